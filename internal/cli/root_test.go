package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Version(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "docqa version 1.2.3\n", out)
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd("dev")
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"server", "ask", "status", "result", "history", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_AskRequiresQuestion(t *testing.T) {
	_, err := runCmd(t, "ask", "policy.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question")
}

func TestRootCmd_StatusInvalidFormat(t *testing.T) {
	_, err := runCmd(t, "status", "job-1", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRootCmd_StatusAgainstServer(t *testing.T) {
	srv := newAPIServer(t, "tok")
	out, err := runCmd(t, "status", "job-1", "--server", srv.URL, "--token", "tok")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "completed"), out)
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644))

	cfg, resolved, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadConfig_MissingExplicitPath(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/a.pdf"))
	assert.True(t, isURL("HTTP://example.com/a.pdf"))
	assert.False(t, isURL("./docs/a.pdf"))
}
