// Package patcher stages the reference image, obtains the replacement blob
// and drives the patch engine. It is the only package that touches the
// filesystem for the core flow; the engine itself is a pure function of
// (buffer, guid, replacement).
package patcher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tinytoy-sec/fwpatcher/pkg/compression"
	"github.com/tinytoy-sec/fwpatcher/pkg/config"
	"github.com/tinytoy-sec/fwpatcher/pkg/ffs"
	"github.com/tinytoy-sec/fwpatcher/pkg/ffsbuild"
	"github.com/tinytoy-sec/fwpatcher/pkg/log"
)

// compressedExt marks a reference image stored compressed to save space.
const compressedExt = ".lzma"

// Result summarizes a successful run.
type Result struct {
	// PatchCount is the number of FFS occurrences replaced.
	PatchCount int
	// ImageSize is the size of the (decompressed) image, which equals the
	// size of the written output.
	ImageSize int
	// Output is the path the patched image was written to.
	Output string
	// ReplacementSize is the size of the built FFS blob.
	ReplacementSize int
}

// Patcher ties the collaborators of one run together.
type Patcher struct {
	Config *config.Config
	// Builder supplies the replacement blob.
	Builder ffsbuild.Builder
	// LZMA decompresses a compressed reference image. Defaults to the
	// system xz with internal fallback.
	LZMA compression.Compressor
	// Logger receives run diagnostics. Defaults to the package sink.
	Logger log.Logger
}

func (p *Patcher) logger() log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.DefaultLogger
}

func (p *Patcher) lzma() compression.Compressor {
	if p.LZMA != nil {
		return p.LZMA
	}
	return compression.NewLZMA("")
}

// Stage produces the mutable working buffer: the reference image bytes,
// decompressed first when the extension says the stored copy is compressed.
// Staging happens before any patch offsets are computed.
func (p *Patcher) Stage() ([]byte, error) {
	path := p.Config.Paths.ReferenceFw
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if filepath.Ext(path) != compressedExt {
		return buf, nil
	}

	p.logger().Infof("decompressing reference image %s...", path)
	start := time.Now()
	buf, err = p.lzma().Decode(buf)
	if err != nil {
		return nil, err
	}
	p.logger().Infof("  - %s in %.2f seconds", humanize.Bytes(uint64(len(buf))), time.Since(start).Seconds())
	return buf, nil
}

// Run executes one full patch: stage, build, locate, patch, write. Any
// failure aborts the run with nothing written; the output file only appears
// after the complete patched buffer has been flushed.
func (p *Patcher) Run() (*Result, error) {
	cfg := p.Config

	searchGUID, err := cfg.SearchGUID()
	if err != nil {
		return nil, err
	}
	contentGUID, err := cfg.ContentGUID()
	if err != nil {
		return nil, err
	}

	p.logger().Infof("generating new DXE core FFS...")
	replacement, err := p.Builder.Build(cfg.Paths.Input, *contentGUID, cfg.DxeCore.Description)
	if err != nil {
		return nil, err
	}
	p.logger().Debugf("new DXE core FFS size: %d", len(replacement))

	buf, err := p.Stage()
	if err != nil {
		return nil, err
	}

	p.logger().Infof("patching reference image %s...", cfg.Paths.ReferenceFw)
	engine := ffs.Patcher{
		SearchGUID: *searchGUID,
		Source:     cfg.Paths.ReferenceFw,
		Logger:     p.Logger,
	}
	cnt, err := engine.Apply(buf, replacement)
	if err != nil {
		return nil, err
	}

	if err := writeImage(cfg.Paths.Output, buf); err != nil {
		return nil, err
	}

	return &Result{
		PatchCount:      cnt,
		ImageSize:       len(buf),
		Output:          cfg.Paths.Output,
		ReplacementSize: len(replacement),
	}, nil
}

// writeImage writes buf to path without ever exposing a partial file: the
// bytes land in a temp file next to the destination and are renamed into
// place only after a successful flush.
func writeImage(path string, buf []byte) error {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".fwpatcher-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
