package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir compiles every .rego file in the directory into the engine.
// Policies are named after their file name and enabled at error severity;
// rules can downgrade individual violations by emitting a severity field.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read policy directory %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".rego" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read policy %s: %w", path, err)
		}

		p := Policy{
			Name:     strings.TrimSuffix(entry.Name(), ".rego"),
			Severity: SeverityError,
			Enabled:  true,
			Rego:     string(data),
		}
		if err := e.Add(p); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", path, err)
		}
		loaded++
	}

	e.logger.Info().Int("count", loaded).Str("dir", dir).Msg("Policies loaded")
	return nil
}
