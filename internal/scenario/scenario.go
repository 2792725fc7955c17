// Package scenario replays scripted action sequences against the demo catalog
// without a terminal. A scenario file names a demo, the actions to dispatch
// and, optionally, the summaries every host-visible state must render to.
package scenario

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/teasaga/internal/demos"
	"github.com/kingrea/teasaga/internal/effects"
	"github.com/kingrea/teasaga/saga"
)

// ErrMismatch is returned by Replay when the rendered states differ from the
// scenario's expectations.
var ErrMismatch = errors.New("scenario: unexpected states")

// Seed overrides parts of the demo's initial state.
type Seed struct {
	Count int `yaml:"count"`
	A     int `yaml:"a"`
	B     int `yaml:"b"`
}

// Scenario models one YAML scenario file.
type Scenario struct {
	Name    string   `yaml:"name"`
	Demo    string   `yaml:"demo"`
	Initial *Seed    `yaml:"initial,omitempty"`
	Actions []string `yaml:"actions"`
	Expect  []string `yaml:"expect,omitempty"`

	path string
}

// Path returns the file the scenario was loaded from.
func (s Scenario) Path() string {
	return s.path
}

// Result is the outcome of a replay.
type Result struct {
	Demo     string
	Rendered []string
}

// Parse decodes a scenario document.
func Parse(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("scenario: parse: %w", err)
	}
	sc.normalize()
	if err := sc.validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	return sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	sc.path = path
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name. A
// missing directory yields no scenarios.
func LoadDir(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scenario: read dir %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		sc, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Replay runs the scenario headlessly against catalog. The result holds the
// summary of every host-visible state, starting with the initial one. When
// the scenario lists expectations and they differ, the result is returned
// together with an error wrapping ErrMismatch.
func Replay(catalog []demos.Demo, sc Scenario, opts ...saga.Option) (Result, error) {
	demo, err := demos.Lookup(catalog, sc.Demo)
	if err != nil {
		return Result{}, fmt.Errorf("scenario: %w", err)
	}
	result := Result{Demo: demo.ID}
	var input *demos.State
	if sc.Initial != nil {
		seeded := demo.Initial
		seeded.Count, seeded.A, seeded.B = sc.Initial.Count, sc.Initial.A, sc.Initial.B
		input = &seeded
	}
	render := func(s demos.State) {
		result.Rendered = append(result.Rendered, demo.Describe(s))
	}
	loop, err := effects.NewLoop(demo.Program(), input, render, effects.WithSagaOptions(opts...))
	if loop != nil {
		defer loop.Close()
	}
	if err != nil {
		return result, fmt.Errorf("scenario: %s: %w", sc.Name, err)
	}
	for i, action := range sc.Actions {
		if err := loop.Dispatch(demos.Action(action)); err != nil {
			return result, fmt.Errorf("scenario: %s: action %d (%s): %w", sc.Name, i, action, err)
		}
	}
	if len(sc.Expect) > 0 {
		if diff := compare(sc.Expect, result.Rendered); diff != "" {
			return result, fmt.Errorf("%w: %s: %s", ErrMismatch, sc.Name, diff)
		}
	}
	return result, nil
}

func compare(want, got []string) string {
	for i := 0; i < len(want) && i < len(got); i++ {
		if want[i] != got[i] {
			return fmt.Sprintf("state %d: want %q, got %q", i, want[i], got[i])
		}
	}
	if len(want) != len(got) {
		return fmt.Sprintf("want %d states, got %d", len(want), len(got))
	}
	return ""
}

func (s *Scenario) normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Demo = strings.ToLower(strings.TrimSpace(s.Demo))
	for i := range s.Actions {
		s.Actions[i] = strings.TrimSpace(s.Actions[i])
	}
	for i := range s.Expect {
		s.Expect[i] = strings.TrimSpace(s.Expect[i])
	}
}

func (s Scenario) validate() error {
	if s.Demo == "" {
		return errors.New("demo is required")
	}
	for i, action := range s.Actions {
		if action == "" {
			return fmt.Errorf("actions[%d] is empty", i)
		}
	}
	return nil
}
