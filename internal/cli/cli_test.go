package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sitesearch.yaml")
	content := "sites:\n  - url: https://fish.example\n    name: Fish\n" +
		"storage:\n  path: " + filepath.Join(dir, "index.db") + "\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		searchSite, searchOffset, searchLimit, searchJSON, statsJSON = "", 0, 0, false, false
		configPath = ""
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "index", "index-page", "search", "stats"} {
		assert.True(t, names[want], want)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	_, err := execute(t, "--config", writeConfig(t), "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchEmptyIndex(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "search", "рыба")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	_, err := execute(t, "--config", writeConfig(t), "search", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}

func TestStats(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Sites: 0")

	out, err = execute(t, "--config", writeConfig(t), "stats", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"result": true`)
}

func TestIndexPageOutsideSites(t *testing.T) {
	_, err := execute(t, "--config", writeConfig(t), "index-page", "https://other.example/page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the configured sites")
}

func TestBadConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "stats")
	assert.Error(t, err)
}
