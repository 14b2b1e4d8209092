package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult is the outcome of running every scenario in a directory.
type SuiteResult struct {
	Passed  []string
	Failed  map[string][]string
	Skipped map[string]error
}

// OK reports whether every scenario loaded and passed.
func (r *SuiteResult) OK() bool {
	return len(r.Failed) == 0 && len(r.Skipped) == 0
}

// FindScenarios returns every .yaml/.yml file under dir, sorted.
// A path naming a single file is returned as-is.
func FindScenarios(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario path: %w", err)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite loads and runs every scenario under dir. Scenarios that fail to
// load are reported in Skipped; they never abort the suite.
func RunSuite(dir string) (*SuiteResult, error) {
	files, err := FindScenarios(dir)
	if err != nil {
		return nil, err
	}

	out := &SuiteResult{
		Failed:  map[string][]string{},
		Skipped: map[string]error{},
	}
	for _, file := range files {
		scenario, err := LoadScenario(file)
		if err != nil {
			out.Skipped[file] = err
			continue
		}
		result, err := Run(scenario)
		if err != nil {
			out.Skipped[file] = err
			continue
		}
		if result.Pass {
			out.Passed = append(out.Passed, scenario.Name)
		} else {
			out.Failed[scenario.Name] = result.Errors
		}
	}
	return out, nil
}
