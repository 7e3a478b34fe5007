package locations

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"rmas/contexts/membership/application-service/ports"
)

// RoleCatalog is the assignable-post reference data keyed by category and
// role code, loaded from YAML.
type RoleCatalog struct {
	mu    sync.RWMutex
	roles map[string]ports.RoleDefinition
	path  string
}

type roleFile struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Roles []struct {
			Code string `yaml:"code"`
			Name string `yaml:"name"`
		} `yaml:"roles"`
	} `yaml:"categories"`
}

func LoadRoleCatalog(path string) (*RoleCatalog, error) {
	c := &RoleCatalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewRoleCatalog builds a catalog from an in-memory map keyed
// "category/code", for tests and local runs.
func NewRoleCatalog(roles map[string]ports.RoleDefinition) *RoleCatalog {
	copied := make(map[string]ports.RoleDefinition, len(roles))
	for key, role := range roles {
		copied[normalize(key)] = role
	}
	return &RoleCatalog{roles: copied}
}

func (c *RoleCatalog) Reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read roles file: %w", err)
	}
	var file roleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse roles file: %w", err)
	}

	roles := make(map[string]ports.RoleDefinition)
	for _, category := range file.Categories {
		for _, role := range category.Roles {
			roles[normalize(category.Name+"/"+role.Code)] = ports.RoleDefinition{
				Code: role.Code,
				Name: role.Name,
			}
		}
	}

	c.mu.Lock()
	c.roles = roles
	c.mu.Unlock()
	return nil
}

func (c *RoleCatalog) Lookup(_ context.Context, category string, code string) (ports.RoleDefinition, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	role, found := c.roles[normalize(strings.TrimSpace(category)+"/"+strings.TrimSpace(code))]
	return role, found, nil
}
