package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConvertDir renders every *.json game record in inDir to a .txt file of
// the same base name in outDir, creating outDir if needed. A record that
// fails to load is skipped; its error is included in the returned error
// and the remaining records are still converted.
func ConvertDir(inDir, outDir string, opts Options) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var written []string
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}

		rec, err := Load(filepath.Join(inDir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}

		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".json")+".txt")
		if err := os.WriteFile(outPath, []byte(Render(rec, opts)), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("failed to write %s: %w", outPath, err))
			continue
		}
		written = append(written, outPath)
	}

	return written, errors.Join(errs...)
}
