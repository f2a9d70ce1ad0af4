// Package file provides file-based persistence for workflow definitions,
// reference data and calendar entries. Intended for development and
// tests; production deployments use the postgresql implementation.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caseflow/caseflow/pkg/persistence"
)

var _ persistence.Persistence = (*Persistence)(nil)

const (
	workflowsDir   = "workflows"
	deploymentsDir = "deployments"
	referenceDir   = "reference"
	calendarDir    = "calendar"
	historyDir     = "history"
)

// Persistence implements persistence.Persistence on top of a directory of
// JSON documents. A single lock guards all collections; contention is not
// a concern at the scale this backend serves.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates the file persistence rooted at the given
// directory, creating the layout if needed. Accepts a plain path or a
// file:// URL.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.TrimPrefix(root, "file://")

	for _, dir := range []string{workflowsDir, deploymentsDir, referenceDir, calendarDir, historyDir} {
		err := os.MkdirAll(filepath.Join(cleanRoot, dir), 0o755)
		if err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

// Close performs any necessary cleanup. There is nothing to clean up for
// file-based persistence.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(fp.root)
	if os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) path(parts ...string) string {
	return filepath.Join(append([]string{fp.root}, parts...)...)
}

// readDocument loads a JSON document into target. The second return is
// false when the file does not exist.
func readDocument(path string, target any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	err = json.Unmarshal(data, target)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return true, nil
}

func writeDocument(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// readCollection loads a JSON array document, returning an empty slice
// when the file does not exist yet.
func readCollection[T any](path string) ([]T, error) {
	var items []T

	found, err := readDocument(path, &items)
	if err != nil {
		return nil, err
	}

	if !found {
		return []T{}, nil
	}

	return items, nil
}
