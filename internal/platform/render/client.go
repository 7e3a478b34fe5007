package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	applicationports "rmas/contexts/membership/application-service/ports"
	documententities "rmas/contexts/membership/document-service/domain/entities"
)

// Client calls the external PDF-rendering service. Rendering is best-effort
// from the caller's view; the client bounds each artifact with its own
// timeout and a fixed number of attempts so a stuck renderer never holds an
// HTTP request hostage.
type Client struct {
	baseURL  string
	attempts int
	http     *http.Client
	logger   *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, attempts int, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if attempts <= 0 {
		attempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		attempts: attempts,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// RenderJoiningLetter implements the application service's letter port.
func (c *Client) RenderJoiningLetter(ctx context.Context, letter applicationports.JoiningLetterData) ([]byte, error) {
	return c.render(ctx, "joining", map[string]any{
		"membership_id": letter.MembershipID,
		"full_name":     letter.FullName,
		"father_name":   letter.FatherName,
		"team_type":     letter.TeamType,
		"role_name":     letter.RoleName,
		"district":      letter.District,
		"division":      letter.Division,
		"state":         letter.State,
		"qr_payload":    letter.QRPayload,
		"issued_at":     letter.IssuedAt.UTC().Format(time.RFC3339),
	})
}

// Render implements the document service's renderer port.
func (c *Client) Render(ctx context.Context, kind documententities.DocumentKind, member documententities.MemberProfile) ([]byte, error) {
	return c.render(ctx, string(kind), map[string]any{
		"membership_id": member.MembershipID,
		"full_name":     member.FullName,
		"father_name":   member.FatherName,
		"team_type":     member.TeamType,
		"role_name":     member.RoleName,
		"level":         member.Level,
		"district":      member.District,
		"division":      member.Division,
		"state":         member.State,
		"block":         member.Block,
		"accepted_at":   member.AcceptedAt.UTC().Format(time.RFC3339),
	})
}

func (c *Client) render(ctx context.Context, kind string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		content, err := c.once(ctx, kind, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		c.logger.Warn("render attempt failed",
			"event", "render_attempt_failed",
			"module", "internal/platform/render",
			"layer", "platform",
			"kind", kind,
			"attempt", attempt,
			"error", err.Error(),
		)
		if attempt < c.attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return nil, fmt.Errorf("render %s after %d attempts: %w", kind, c.attempts, lastErr)
}

func (c *Client) once(ctx context.Context, kind string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render/"+kind, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
