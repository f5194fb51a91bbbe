// fwpatcher patches a reference firmware image with a newly built DXE core.
//
// It is meant to be focused and fast for patching specific reference images,
// not a general purpose firmware editing tool.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tinytoy-sec/fwpatcher/pkg/config"
	"github.com/tinytoy-sec/fwpatcher/pkg/ffsbuild"
	"github.com/tinytoy-sec/fwpatcher/pkg/guid"
	"github.com/tinytoy-sec/fwpatcher/pkg/patcher"
)

var (
	confPath  string
	inputPath string
	refPath   string
	outPath   string
	toolsPath string
	logFile   string
	quiet     bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "fwpatcher",
	Short:         "Patch a reference firmware image with a new DXE core",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}

		start := time.Now()

		cfg, err := config.Load(confPath)
		if err != nil {
			return err
		}
		log.Infof("loaded config for %s", cfg.Name)

		cfg.Apply(config.Overrides{
			ReferenceFw: refPath,
			Input:       inputPath,
			Output:      outPath,
			Tools:       toolsPath,
		})
		if err := cfg.Validate(nil); err != nil {
			return err
		}

		builder, err := newToolchain(cfg)
		if err != nil {
			return err
		}

		p := patcher.Patcher{
			Config:  cfg,
			Builder: builder,
		}
		res, err := p.Run()
		if err != nil {
			return err
		}

		bold := color.New(color.Bold).SprintFunc()
		log.Infof("patched %d occurrence(s), wrote %s image to %s",
			res.PatchCount, humanize.Bytes(uint64(res.ImageSize)), bold(res.Output))
		log.Infof("patching complete in %.2f seconds", time.Since(start).Seconds())
		return nil
	},
}

func newToolchain(cfg *config.Config) (*ffsbuild.Toolchain, error) {
	fsGUID, err := guid.Parse(config.DefaultFilesystemGUID)
	if err != nil {
		return nil, err
	}
	outerGUID, err := cfg.SearchGUID()
	if err != nil {
		return nil, err
	}
	compGUID, err := guid.Parse(cfg.DxeCore.CompressionGuid)
	if err != nil {
		return nil, err
	}
	return &ffsbuild.Toolchain{
		ToolsDir:        cfg.Paths.Tools,
		BuildDir:        cfg.Paths.BuildDir,
		FvLayout:        cfg.Paths.FvLayout,
		FilesystemGUID:  *fsGUID,
		OuterGUID:       *outerGUID,
		CompressionGUID: *compGUID,
	}, nil
}

func setupLogging() error {
	var handler log.Handler = cli.New(os.Stdout)
	if quiet {
		handler = discard.New()
	}
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return err
		}
		handler = multi.New(handler, text.New(f))
	}
	log.SetHandler(handler)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&confPath, "config", "c", "Configs/Intel.json", "path to a reference config file")
	flags.StringVarP(&inputPath, "input", "i", "", "path to the new DXE core EFI file")
	flags.StringVarP(&refPath, "reference", "r", "", "path to the reference firmware image to patch")
	flags.StringVarP(&outPath, "output", "o", "", "output file path")
	flags.StringVarP(&toolsPath, "tools", "t", "", "directory holding the EDK2 build executables")
	flags.StringVarP(&logFile, "log-file", "l", "", "file path for debug log output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "disable console output")
	flags.BoolVarP(&verbose, "verbose", "V", false, "enable verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}
