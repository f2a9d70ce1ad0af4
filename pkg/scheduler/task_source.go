package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const engineTimeout = 15 * time.Second

// EngineTaskSource lists open tasks from the execution engine's REST API.
type EngineTaskSource struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ TaskSource = (*EngineTaskSource)(nil)

func NewEngineTaskSource(baseURL string, logger *slog.Logger) *EngineTaskSource {
	return &EngineTaskSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: engineTimeout},
		logger:     logger,
	}
}

func (s *EngineTaskSource) OpenTasks(ctx context.Context) ([]*OpenTask, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/tasks/open", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build open tasks request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open tasks request failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			s.logger.Warn("failed to close engine response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("execution engine returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Tasks []*OpenTask `json:"tasks"`
	}

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode open tasks response: %w", err)
	}

	return parsed.Tasks, nil
}
