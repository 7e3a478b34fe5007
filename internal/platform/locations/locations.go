package locations

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

// Hierarchy is the division → district → block reference data, loaded from a
// YAML file and indexed in both directions. Lookups are case-insensitive on
// entity names but return the canonical spelling from the file.
type Hierarchy struct {
	mu               sync.RWMutex
	districtsByDiv   map[string][]string
	blocksByDistrict map[string][]string
	divByDistrict    map[string]string
	districtByBlock  map[string]string
	path             string
}

type hierarchyFile struct {
	Divisions []struct {
		Name      string `yaml:"name"`
		Districts []struct {
			Name   string   `yaml:"name"`
			Blocks []string `yaml:"blocks"`
		} `yaml:"districts"`
	} `yaml:"divisions"`
}

func LoadHierarchy(path string) (*Hierarchy, error) {
	h := &Hierarchy{path: path}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// NewHierarchy builds an index from in-memory maps, for tests and local runs.
func NewHierarchy(districtsByDivision map[string][]string, blocksByDistrict map[string][]string) *Hierarchy {
	h := &Hierarchy{}
	h.index(districtsByDivision, blocksByDistrict)
	return h
}

// Reload re-reads the file, replacing the indexes atomically.
func (h *Hierarchy) Reload() error {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		return fmt.Errorf("read locations file: %w", err)
	}
	var file hierarchyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse locations file: %w", err)
	}

	districtsByDivision := make(map[string][]string)
	blocksByDistrict := make(map[string][]string)
	for _, division := range file.Divisions {
		for _, district := range division.Districts {
			districtsByDivision[division.Name] = append(districtsByDivision[division.Name], district.Name)
			blocksByDistrict[district.Name] = append(blocksByDistrict[district.Name], district.Blocks...)
		}
	}
	h.index(districtsByDivision, blocksByDistrict)
	return nil
}

func (h *Hierarchy) index(districtsByDivision map[string][]string, blocksByDistrict map[string][]string) {
	divByDistrict := make(map[string]string)
	districtByBlock := make(map[string]string)
	normalizedDistricts := make(map[string][]string, len(districtsByDivision))
	normalizedBlocks := make(map[string][]string, len(blocksByDistrict))

	for division, districts := range districtsByDivision {
		normalizedDistricts[normalize(division)] = append([]string(nil), districts...)
		for _, district := range districts {
			divByDistrict[normalize(district)] = division
		}
	}
	for district, blocks := range blocksByDistrict {
		normalizedBlocks[normalize(district)] = append([]string(nil), blocks...)
		for _, block := range blocks {
			districtByBlock[normalize(block)] = district
		}
	}

	h.mu.Lock()
	h.districtsByDiv = normalizedDistricts
	h.blocksByDistrict = normalizedBlocks
	h.divByDistrict = divByDistrict
	h.districtByBlock = districtByBlock
	h.mu.Unlock()
}

func (h *Hierarchy) DistrictsForDivision(_ context.Context, division string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.districtsByDiv[normalize(division)]...), nil
}

func (h *Hierarchy) BlocksForDistrict(_ context.Context, district string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.blocksByDistrict[normalize(district)]...), nil
}

func (h *Hierarchy) DivisionForDistrict(_ context.Context, district string) (string, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	division, found := h.divByDistrict[normalize(district)]
	return division, found, nil
}

func (h *Hierarchy) DistrictForBlock(_ context.Context, block string) (string, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	district, found := h.districtByBlock[normalize(block)]
	return district, found, nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
