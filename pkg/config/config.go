// Package config loads the per-platform reference configuration the patcher
// runs from. Configs are JSON files naming the reference image, the DXE core
// input and the GUIDs involved; command line values override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tinytoy-sec/fwpatcher/pkg/compression"
	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
	"github.com/tinytoy-sec/fwpatcher/pkg/log"
)

// Well-known defaults.
const (
	// DefaultFilesystemGUID is the spec-defined GUID for EFI Filesystem 2.
	DefaultFilesystemGUID = "8c8ce578-8a3d-4f1c-9935-896185c32dd3"

	// DefaultContentGUID identifies the Rust DXE Core FFS file itself. This
	// GUID is currently required for all Rust DXE Core FFS files.
	DefaultContentGUID = "23c9322f-2af2-476a-bc4c-26bc88266c71"

	// DefaultSearchGUID is used to find the FFS FV if another is not given.
	// It is the value used for the Rust DXE Core FV in current Intel
	// platform firmware. Distinct from DefaultContentGUID: one finds the
	// existing file, the other identifies the new content.
	DefaultSearchGUID = "71dad237-900f-4ea8-8dfd-93f8f8c704df"

	// DefaultOutput is where the patched image lands if no path is given.
	DefaultOutput = "PATCHED_ROM.bin"

	// DefaultDescription is the UI section text for the new FFS file.
	DefaultDescription = "Rust DXE Core"
)

// Paths holds every file path a run touches.
type Paths struct {
	// ReferenceFw is the reference firmware image to patch. A .lzma
	// extension marks it as compressed.
	ReferenceFw string
	// Input is the new DXE core EFI file.
	Input string
	// Output is the destination for the patched image.
	Output string
	// FvLayout is the FV layout template consumed by GenFv.
	FvLayout string
	// BuildDir is where intermediate build artifacts go.
	BuildDir string
	// Tools is the directory holding the EDK2 build executables.
	Tools string
}

// DxeCore holds the identity of the file being replaced and built.
type DxeCore struct {
	// FfsGuid locates the existing FFS file inside the reference image.
	FfsGuid string
	// ContentGuid identifies the DXE core file inside the built FFS.
	ContentGuid string
	// CompressionGuid marks the GUID-defined section wrapping the
	// compressed FV.
	CompressionGuid string
	// Description becomes the UI section of the built FFS file.
	Description string
}

// Config is a fully resolved run configuration.
type Config struct {
	Name    string
	Paths   Paths
	DxeCore DxeCore
}

// Load reads the JSON config at path and fills in defaults. An empty path
// yields a default configuration that still needs the required paths set via
// overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("DxeCore.FfsGuid", DefaultSearchGUID)
	v.SetDefault("DxeCore.ContentGuid", DefaultContentGUID)
	v.SetDefault("DxeCore.CompressionGuid", compression.LZMAGUID.String())
	v.SetDefault("DxeCore.Description", DefaultDescription)
	v.SetDefault("Paths.Output", DefaultOutput)
	v.SetDefault("Paths.Tools", "Executables")

	var cfg Config
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Name == "" {
		if path != "" {
			base := filepath.Base(path)
			cfg.Name = strings.TrimSuffix(base, filepath.Ext(base))
		} else {
			cfg.Name = "Intel"
		}
	}
	if cfg.Paths.BuildDir == "" {
		cfg.Paths.BuildDir = filepath.Join("Build", cfg.Name)
	}
	return &cfg, nil
}

// Overrides are command line values that take precedence over the file.
type Overrides struct {
	ReferenceFw string
	Input       string
	Output      string
	Tools       string
}

// Apply copies the non-empty override values into the config.
func (c *Config) Apply(o Overrides) {
	if o.ReferenceFw != "" {
		c.Paths.ReferenceFw = o.ReferenceFw
	}
	if o.Input != "" {
		c.Paths.Input = o.Input
	}
	if o.Output != "" {
		c.Paths.Output = o.Output
	}
	if o.Tools != "" {
		c.Paths.Tools = o.Tools
	}
}

// Validate checks that every required path is set and exists. Output and
// build directories are created later, so only their parents matter.
func (c *Config) Validate(logger log.Logger) error {
	if logger == nil {
		logger = log.DefaultLogger
	}
	required := map[string]string{
		"Input":       c.Paths.Input,
		"ReferenceFw": c.Paths.ReferenceFw,
		"FvLayout":    c.Paths.FvLayout,
	}
	for name, p := range required {
		if p == "" {
			return fmt.Errorf("a %q file path is required", name)
		}
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("the given %q file (%s) does not exist", name, p)
		}
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("an %q file path is required", "Output")
	}
	if filepath.Ext(c.Paths.Input) != ".efi" {
		logger.Warnf("the input file %s does not have a .efi extension", c.Paths.Input)
	}
	if _, err := c.SearchGUID(); err != nil {
		return err
	}
	if _, err := c.ContentGUID(); err != nil {
		return err
	}
	if _, err := guid.Parse(c.DxeCore.CompressionGuid); err != nil {
		return err
	}
	return nil
}

// SearchGUID parses the GUID used to locate the existing file.
func (c *Config) SearchGUID() (*guid.GUID, error) {
	return guid.Parse(c.DxeCore.FfsGuid)
}

// ContentGUID parses the GUID identifying the new file's content.
func (c *Config) ContentGUID() (*guid.GUID, error) {
	return guid.Parse(c.DxeCore.ContentGuid)
}
