package syncsvc

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitWorkTreeFalseOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, isGitWorkTree(context.Background(), dir))
}

func TestRunPreflightSwallowsUpdateCmdFailure(t *testing.T) {
	dir := t.TempDir()
	assert.NotPanics(t, func() {
		runPreflight(context.Background(), dir, "exit 1", false)
	})
}

func TestRunPreflightRunsUpdateCmdInRoot(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker.txt")
	runPreflight(context.Background(), dir, "pwd > marker.txt", false)
	require.FileExists(t, marker)
	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Contains(t, string(data), filepath.Base(dir))
}

func TestRunPreflightSkipsGitPullWhenNotARepo(t *testing.T) {
	dir := t.TempDir()
	var invoked []string
	orig := execCommand
	execCommand = func(name string, args ...string) *exec.Cmd {
		// Record the command with its last argument ("git pull" for a
		// pull, "git --is-inside-work-tree" for the probe).
		call := name
		if len(args) > 0 {
			call += " " + args[len(args)-1]
		}
		invoked = append(invoked, call)
		return orig(name, args...)
	}
	defer func() { execCommand = orig }()

	runPreflight(context.Background(), dir, "", true)

	// Only the rev-parse probe runs; "pull" must never be invoked since
	// dir isn't a Git working tree.
	for _, call := range invoked {
		assert.NotEqual(t, "git pull", call)
	}
}
