package extool

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	out, err := Run("sh", nil, "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestRunStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	out, err := Run("cat", []byte("pass through"))
	require.NoError(t, err)
	assert.Equal(t, "pass through", string(out))
}

func TestRunFailureCapturesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	_, err := Run("sh", nil, "-c", "echo boom >&2; exit 3")
	require.Error(t, err)

	var terr *ExternalToolError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "sh", terr.Tool)
	assert.Contains(t, terr.Output, "boom")
	assert.Contains(t, terr.Error(), "boom")
}

func TestRunMissingTool(t *testing.T) {
	_, err := Run("/nonexistent/GenFfs", nil, "-h")
	var terr *ExternalToolError
	require.True(t, errors.As(err, &terr))
}
