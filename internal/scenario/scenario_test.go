package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/teasaga/internal/demos"
)

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(body)), 0o644))
	return path
}

func TestReplayMatchesExpectations(t *testing.T) {
	sc, err := Parse([]byte(`
name: restart
demo: Restart
actions: [inc, inc, restart, inc]
expect:
  - count=0
  - count=1
  - count=2
  - count=0
  - count=1
`))
	require.NoError(t, err)
	result, err := Replay(demos.Catalog(demos.Options{}), sc)
	require.NoError(t, err)
	assert.Equal(t, "restart", result.Demo)
	assert.Len(t, result.Rendered, 5)
}

func TestReplayReportsMismatch(t *testing.T) {
	sc, err := Parse([]byte(`
demo: parallel
actions: [a, b]
expect: ["a=0 b=0", "a=1 b=0", "a=2 b=0"]
`))
	require.NoError(t, err)
	result, err := Replay(demos.Catalog(demos.Options{}), sc)
	require.ErrorIs(t, err, ErrMismatch)
	assert.Contains(t, err.Error(), `state 2: want "a=2 b=0", got "a=1 b=1"`)
	assert.Equal(t, []string{"a=0 b=0", "a=1 b=0", "a=1 b=1"}, result.Rendered)
}

func TestReplaySeedsInitialState(t *testing.T) {
	sc, err := Parse([]byte(`
demo: incdec
initial:
  count: 10
actions: [dec]
`))
	require.NoError(t, err)
	result, err := Replay(demos.Catalog(demos.Options{}), sc)
	require.NoError(t, err)
	assert.Equal(t, []string{"count=10", "count=9"}, result.Rendered)
}

func TestReplayRecordsIntermediateFlushes(t *testing.T) {
	sc, err := Parse([]byte(`
demo: fetch
actions: [fetch]
`))
	require.NoError(t, err)
	result, err := Replay(demos.Catalog(demos.Options{}), sc)
	require.NoError(t, err)
	// The echoed response is a second flush after the loading one.
	assert.Equal(t, []string{
		"magic=0",
		"magic=0 status=loading",
		"magic=1 status=ok (api 1.2.3)",
	}, result.Rendered)
}

func TestReplayUnknownDemo(t *testing.T) {
	_, err := Replay(demos.Catalog(demos.Options{}), Scenario{Demo: "missing"})
	require.Error(t, err)
}

func TestParseValidation(t *testing.T) {
	_, err := Parse([]byte(`actions: [inc]`))
	require.Error(t, err)
	_, err = Parse([]byte("demo: counter\nactions: [inc, '  ']"))
	require.Error(t, err)
	_, err = Parse([]byte("demo: [unterminated"))
	require.Error(t, err)
}

func TestLoadDirSortsAndNamesScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b-fetch.yaml", `
demo: fetch
actions: [fetch]
`)
	writeScenario(t, dir, "a-counter.yml", `
demo: counter
actions: [inc]
`)
	writeScenario(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a-counter", scenarios[0].Name)
	assert.Equal(t, "b-fetch", scenarios[1].Name)
	assert.Equal(t, filepath.Join(dir, "a-counter.yml"), scenarios[0].Path())

	missing, err := LoadDir(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
