package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/odgs/odgs"
	"github.com/odgs/odgs/bundle"
	"github.com/odgs/odgs/internal/config"
	"github.com/odgs/odgs/internal/logging"
	"github.com/odgs/odgs/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	libDir     string
	verbose    bool
	colorFlag  string

	cfg    *config.Config
	logger = zap.NewNop()

	// newLogger is swapped out by tests to capture log output.
	newLogger = logging.New
)

var rootCmd = &cobra.Command{
	Use:   "odgs",
	Short: "odgs: Open Data Governance Schema bundle",
	Long: `Lists, prints, validates and exports the governance reference bundle:
standard metrics, data-quality dimensions, data rules, root-cause factors,
business-process maps, the physical data map and the ontology graph.

The documents are compiled into the binary. Set lib_dir in odgs.yaml,
ODGS_LIB_DIR, or --lib-dir to read them from a directory instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if libDir != "" {
			loaded.LibDir = libDir
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded

		l, err := newLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		logger.Debug("config loaded",
			zap.String("path", configPath),
			zap.String("lib_dir", cfg.LibDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&libDir, "lib-dir", "", "Read documents from this directory instead of the embedded copy")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "Colorize output: auto, always, never")

	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

// loadBundle returns the full bundle, or the protocol bundle when
// protocolOnly is set. The embedded bundle is used unless lib_dir is set.
func loadBundle(protocolOnly bool) (*bundle.Bundle, error) {
	var (
		b   *bundle.Bundle
		err error
	)
	switch {
	case cfg != nil && cfg.LibDir != "":
		fsys := os.DirFS(cfg.LibDir)
		if protocolOnly {
			b, err = protocol.LoadFS(fsys)
		} else {
			b, err = odgs.LoadFS(fsys)
		}
	case protocolOnly:
		b, err = protocol.Load()
	default:
		b, err = odgs.Load()
	}
	if err != nil {
		logger.Error("bundle load failed", zap.Error(err))
		return nil, err
	}
	logger.Debug("bundle loaded",
		zap.Int("documents", b.Len()),
		zap.Bool("protocol_only", protocolOnly),
		zap.String("digest", b.Digest()))
	return b, nil
}

// resourcesFor returns the resource list matching loadBundle(protocolOnly).
func resourcesFor(protocolOnly bool) []bundle.Resource {
	if protocolOnly {
		return protocol.Resources()
	}
	return odgs.Resources()
}
