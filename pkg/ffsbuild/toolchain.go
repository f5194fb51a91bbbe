package ffsbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tinytoy-sec/fwpatcher/pkg/compression"
	"github.com/tinytoy-sec/fwpatcher/pkg/extool"
	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
	"github.com/tinytoy-sec/fwpatcher/pkg/log"
	"github.com/tinytoy-sec/fwpatcher/pkg/unicode"
)

// layoutPlaceholder is the marker in the FV layout template that gets
// replaced with the path of the generated FFS file.
const layoutPlaceholder = "TO_PATCH"

// Toolchain builds the replacement FFS with the EDK2 base tools: the DXE
// core EFI is wrapped into a PE32 section, an FFS file, a firmware volume,
// then LZMA compressed into a GUID-defined section and wrapped into the
// final FV-image FFS file.
type Toolchain struct {
	// ToolsDir holds GenSec, GenFfs, GenFv and LzmaCompress.
	ToolsDir string
	// BuildDir receives intermediate artifacts. Created if missing.
	BuildDir string
	// FvLayout is the layout template passed to GenFv after placeholder
	// substitution.
	FvLayout string
	// FilesystemGUID is the firmware volume filesystem GUID (FFS2).
	FilesystemGUID guid.GUID
	// OuterGUID names the final FFS file. It must equal the GUID the patch
	// engine searches for, or the patched file could never be found again.
	OuterGUID guid.GUID
	// CompressionGUID marks the GUID-defined section holding the
	// compressed FV.
	CompressionGUID guid.GUID
	// Logger receives per-step progress. Defaults to the package sink.
	Logger log.Logger
}

func (t *Toolchain) logger() log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.DefaultLogger
}

func (t *Toolchain) tool(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(t.ToolsDir, name)
}

// prepareLayout copies the FV layout template into the build directory with
// the placeholder pointing at the FFS file about to be generated.
func (t *Toolchain) prepareLayout(ffsPath string) (string, error) {
	data, err := os.ReadFile(t.FvLayout)
	if err != nil {
		return "", err
	}
	out := strings.ReplaceAll(string(data), layoutPlaceholder, ffsPath)
	layout := filepath.Join(t.BuildDir, filepath.Base(t.FvLayout))
	if err := os.WriteFile(layout, []byte(out), 0666); err != nil {
		return "", err
	}
	return layout, nil
}

// prepareUISection encodes the description as a null-terminated UCS-2 blob
// for the GenFfs -oi input.
func (t *Toolchain) prepareUISection(description string) (string, error) {
	ucs2, err := unicode.UTF8ToUCS2(description)
	if err != nil {
		return "", err
	}
	ui := filepath.Join(t.BuildDir, "DxeCore.ui")
	if err := os.WriteFile(ui, ucs2, 0666); err != nil {
		return "", err
	}
	return ui, nil
}

// Build runs the tool pipeline and returns the bytes of the final FFS file.
func (t *Toolchain) Build(efiPath string, contentGUID guid.GUID, description string) ([]byte, error) {
	if err := os.MkdirAll(t.BuildDir, 0755); err != nil {
		return nil, err
	}

	ffsPath := filepath.Join(t.BuildDir, "DxeCore.ffs")
	layout, err := t.prepareLayout(ffsPath)
	if err != nil {
		return nil, err
	}
	ui, err := t.prepareUISection(description)
	if err != nil {
		return nil, err
	}

	dir := func(name string) string { return filepath.Join(t.BuildDir, name) }
	commands := []struct {
		tool string
		args []string
	}{
		{"GenSec", []string{
			"-s", "EFI_SECTION_PE32",
			"-o", dir("DxeCore.pe32"),
			efiPath,
		}},
		{"GenFfs", []string{
			"-t", "EFI_FV_FILETYPE_DXE_CORE",
			"-g", contentGUID.String(),
			"-i", dir("DxeCore.pe32"),
			"-oi", ui,
			"-o", ffsPath,
		}},
		{"GenFv", []string{
			"-F", "FALSE",
			"-g", t.FilesystemGUID.String(),
			"-i", layout,
			"-o", dir("DxeCoreUncompressed.fv"),
		}},
		{"GenSec", []string{
			"-s", "EFI_SECTION_FIRMWARE_VOLUME_IMAGE",
			"-o", dir("DxeCoreUncompressed.fv.sec"),
			dir("DxeCoreUncompressed.fv"),
		}},
		{"GenSec", []string{
			"--sectionalign", "16",
			"-o", dir("DxeCoreUncompressed.fv.sec.aligned"),
			dir("DxeCoreUncompressed.fv.sec"),
		}},
		{"LzmaCompress", []string{
			"-e",
			dir("DxeCoreUncompressed.fv.sec.aligned"),
			"-o", dir("DxeCoreCompressed.fv.bin"),
		}},
		{"GenSec", []string{
			"-s", "EFI_SECTION_GUID_DEFINED",
			"-g", t.CompressionGUID.String(),
			"-r", "PROCESSING_REQUIRED",
			"-o", dir("DxeCoreCompressed.fv.guided.sec"),
			dir("DxeCoreCompressed.fv.bin"),
		}},
		{"GenFfs", []string{
			"-t", "EFI_FV_FILETYPE_FIRMWARE_VOLUME_IMAGE",
			"-g", t.OuterGUID.String(),
			"-i", dir("DxeCoreCompressed.fv.guided.sec"),
			"-o", dir("DxeCoreCompressedFv.ffs"),
		}},
	}

	for step, command := range commands {
		t.logger().Infof("[%d/%d] running %q", step+1, len(commands), command.tool)
		t.logger().Debugf("        command = %s %s", command.tool, strings.Join(command.args, " "))

		if command.tool == "LzmaCompress" {
			if _, err := os.Stat(t.tool(command.tool)); err != nil {
				// No LzmaCompress executable; fall back to the internal
				// compressor, which produces the same 13-byte header.
				if err := t.compressInternal(dir("DxeCoreUncompressed.fv.sec.aligned"), dir("DxeCoreCompressed.fv.bin")); err != nil {
					return nil, err
				}
				continue
			}
		}

		out, err := extool.Run(t.tool(command.tool), nil, command.args...)
		if err != nil {
			return nil, err
		}
		if o := strings.TrimSpace(string(out)); o != "" {
			t.logger().Debugf("        output = %s", o)
		}
	}

	blob, err := os.ReadFile(dir("DxeCoreCompressedFv.ffs"))
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("tool pipeline produced an empty FFS file")
	}
	return blob, nil
}

func (t *Toolchain) compressInternal(src, dst string) error {
	t.logger().Debugf("        LzmaCompress not found in %s, using internal encoder", t.ToolsDir)
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	enc, err := (&compression.LZMA{}).Encode(data)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, enc, 0666)
}
