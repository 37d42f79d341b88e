package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/barch.go/pkg/compress/barch"
	"github.com/jpfielding/barch.go/pkg/config"
	"github.com/jpfielding/barch.go/pkg/convert"
	"github.com/jpfielding/barch.go/pkg/logging"
	"github.com/spf13/cobra"
)

// settings is the configuration resolved before any subcommand runs.
type settings struct {
	cfg     config.Config
	logFile io.Closer
}

func (s *settings) convertOptions() (*convert.Options, error) {
	codec, err := s.cfg.Codec.Options()
	if err != nil {
		return nil, err
	}
	return &convert.Options{Codec: codec, Strict: s.cfg.Codec.Strict}, nil
}

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	st := &settings{cfg: config.Defaults()}
	cmd := &cobra.Command{
		Use:           "barchctl",
		Short:         "a CLI to pack 8-bit bitmaps into barch files and back",
		Long:          "barchctl converts 8-bit grayscale BMP images into the run-length packed barch format and back.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.resolve(ctx, cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if st.logFile != nil {
				st.logFile.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewCompressCmd(ctx, st),
		NewDecompressCmd(ctx, st),
		NewInspectCmd(ctx, st),
		NewBatchCmd(ctx, st),
	)
	pf := cmd.PersistentFlags()
	pf.String("config", "", "YAML configuration file")
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("log-json", false, "log as JSON")
	pf.String("log-file", "", "also log to this rotated file")
	pf.String("axis", barch.AxisColumns.String(), "scan axis (columns|rows); must match between compress and decompress")
	pf.Bool("legacy", false, "legacy encoding: drop trailing runs and mark transition-free lines white")
	pf.Bool("strict", false, "fail decompression on parity mismatches")
	return cmd
}

// resolve loads the config file, applies explicitly set flags over it and
// installs the default logger.
func (st *settings) resolve(ctx context.Context, cmd *cobra.Command) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("log-file") {
		cfg.Log.File, _ = flags.GetString("log-file")
	}
	if flags.Changed("axis") {
		cfg.Codec.Axis, _ = flags.GetString("axis")
	}
	if legacy, _ := flags.GetBool("legacy"); legacy {
		cfg.Codec.LegacyTrailingRun = true
		cfg.Codec.LegacySentinel = true
	}
	if flags.Changed("strict") {
		cfg.Codec.Strict, _ = flags.GetBool("strict")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Log.Level))); err != nil {
		slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", cfg.Log.Level, "error", err)
		cfg.Log.Level = "INFO"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		w := logging.RotatingWriter(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
		st.logFile = w
		out = io.MultiWriter(os.Stderr, w)
	}
	slog.SetDefault(logging.Logger(out, cfg.Log.JSON, cfg.Log.SlogLevel()))
	st.cfg = cfg
	return nil
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
