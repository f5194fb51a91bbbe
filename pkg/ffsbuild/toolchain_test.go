package ffsbuild

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytoy-sec/fwpatcher/pkg/extool"
	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
	"github.com/tinytoy-sec/fwpatcher/pkg/unicode"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// fakeTool writes a shell script that copies a marker to whatever path
// follows -o, standing in for the EDK2 executables.
const fakeTool = `#!/bin/sh
out=""
prev=""
for a in "$@"; do
	if [ "$prev" = "-o" ]; then out="$a"; fi
	prev="$a"
done
printf 'fake-ffs-blob' > "$out"
`

const failingTool = `#!/bin/sh
echo "GenFfs: invalid section" >&2
exit 2
`

func writeTools(t *testing.T, dir string, script string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0755))
	}
}

func testToolchain(t *testing.T, toolsDir string) *Toolchain {
	t.Helper()
	buildDir := t.TempDir()

	layout := filepath.Join(t.TempDir(), "FvLayout.inf")
	require.NoError(t, os.WriteFile(layout, []byte("[files]\nEFI_FILE = TO_PATCH\n"), 0666))

	return &Toolchain{
		ToolsDir:        toolsDir,
		BuildDir:        buildDir,
		FvLayout:        layout,
		FilesystemGUID:  *guid.MustParse("8c8ce578-8a3d-4f1c-9935-896185c32dd3"),
		OuterGUID:       *guid.MustParse("71dad237-900f-4ea8-8dfd-93f8f8c704df"),
		CompressionGUID: *guid.MustParse("EE4E5898-3914-4259-9D6E-DC7BD79403CF"),
		Logger:          nopLogger{},
	}
}

func TestBuildPipeline(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}

	toolsDir := t.TempDir()
	writeTools(t, toolsDir, fakeTool, "GenSec", "GenFfs", "GenFv", "LzmaCompress")
	tc := testToolchain(t, toolsDir)

	blob, err := tc.Build("core.efi", *guid.MustParse("23c9322f-2af2-476a-bc4c-26bc88266c71"), "Rust DXE Core")
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-ffs-blob"), blob)

	// Layout placeholder was substituted with the generated FFS path.
	layout, err := os.ReadFile(filepath.Join(tc.BuildDir, "FvLayout.inf"))
	require.NoError(t, err)
	assert.NotContains(t, string(layout), "TO_PATCH")
	assert.Contains(t, string(layout), filepath.Join(tc.BuildDir, "DxeCore.ffs"))

	// UI section holds the UCS-2 encoded description.
	ui, err := os.ReadFile(filepath.Join(tc.BuildDir, "DxeCore.ui"))
	require.NoError(t, err)
	want, err := unicode.UTF8ToUCS2("Rust DXE Core")
	require.NoError(t, err)
	assert.Equal(t, want, ui)
}

func TestBuildInternalCompressionFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}

	// No LzmaCompress executable: the internal encoder takes its place and
	// the rest of the pipeline carries on.
	toolsDir := t.TempDir()
	writeTools(t, toolsDir, fakeTool, "GenSec", "GenFfs", "GenFv")
	tc := testToolchain(t, toolsDir)

	blob, err := tc.Build("core.efi", *guid.MustParse("23c9322f-2af2-476a-bc4c-26bc88266c71"), "Rust DXE Core")
	require.NoError(t, err)
	assert.NotEmpty(t, blob)

	compressed, err := os.ReadFile(filepath.Join(tc.BuildDir, "DxeCoreCompressed.fv.bin"))
	require.NoError(t, err)
	assert.NotEmpty(t, compressed)
}

func TestBuildToolFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}

	toolsDir := t.TempDir()
	writeTools(t, toolsDir, fakeTool, "GenSec", "GenFv", "LzmaCompress")
	writeTools(t, toolsDir, failingTool, "GenFfs")
	tc := testToolchain(t, toolsDir)

	_, err := tc.Build("core.efi", *guid.MustParse("23c9322f-2af2-476a-bc4c-26bc88266c71"), "Rust DXE Core")
	require.Error(t, err)

	var terr *extool.ExternalToolError
	require.True(t, errors.As(err, &terr))
	assert.True(t, strings.HasSuffix(terr.Tool, "GenFfs"), "tool name should identify the failing stage, got %q", terr.Tool)
	assert.Contains(t, terr.Output, "invalid section")
}
