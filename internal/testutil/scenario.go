// Package testutil provides shared test helpers for Cookbook Go tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenarios.
const ScenariosDir = "testdata/scenarios"

// Scenario is one end-to-end case loaded from a YAML file.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Cmd         string         `yaml:"cmd"` // run (default), check or fmt
	Source      string         `yaml:"source"`
	Tags        []string       `yaml:"tags"`
	Expect      ExpectedResult `yaml:"expect"`
}

// ExpectedResult describes the expected outcome of a scenario. Nil pointer
// fields are not checked.
type ExpectedResult struct {
	ExitCode       int            `yaml:"exitCode"`
	Stdout         *string        `yaml:"stdout"`
	StdoutContains []string       `yaml:"stdoutContains"`
	Stderr         *string        `yaml:"stderr"`
	StderrContains []string       `yaml:"stderrContains"`
	Diagnostics    []ExpectedDiag `yaml:"diagnostics"`
}

// ExpectedDiag matches a diagnostic by code and, when set, line and message.
type ExpectedDiag struct {
	Code    string `yaml:"code"`
	Line    int    `yaml:"line"`
	Message string `yaml:"message"`
}

// LoadScenario loads a scenario file. Unknown keys are errors so typos in
// expectations do not silently pass.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.Cmd == "" {
		s.Cmd = "run"
	}
	return &s, nil
}

// ListScenarios returns all scenario files under root, sorted.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
