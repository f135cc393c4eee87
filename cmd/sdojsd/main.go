package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lychee-technology/sdojsd"
	"github.com/lychee-technology/sdojsd/internal"
)

var (
	configPath string
	schemaDir  string
	metaDir    string

	cfg    *sdojsd.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sdojsd",
	Short: "Build and validate the schema.org JSON Schema vocabulary",
	Long: `sdojsd reads schema.org JSON Schema fragments, links them into one
vocabulary graph and renders it as JSON-LD, TypeScript declarations and JSDoc
typedefs. It also validates JSON-LD documents against the fragments.

Examples:
  sdojsd build                         # write artifacts to ./dist
  sdojsd validate person.jsonld        # validate against its @type
  sdojsd validate --type Place a.json  # validate against Place
  sdojsd check --schema-dir ./schema   # check fragments against meta-schemata`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := sdojsd.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if schemaDir != "" {
			loaded.Schema.Directory = schemaDir
			loaded.Schema.UseEmbedded = false
		}
		if metaDir != "" {
			loaded.Schema.MetaDirectory = metaDir
		}
		cfg = loaded

		l, err := newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		zap.ReplaceGlobals(logger)
		internal.RegisterStageObserver(func(ctx context.Context, stage string, d time.Duration) {
			logger.Debug("stage finished", zap.String("stage", stage), zap.Duration("duration", d))
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&schemaDir, "schema-dir", "", "directory of fragment schemata (disables the embedded vocabulary)")
	rootCmd.PersistentFlags().StringVar(&metaDir, "meta-dir", "", "directory of meta-schemata")

	rootCmd.AddCommand(buildCmd, validateCmd, checkCmd, publishCmd, exportCmd, catalogCmd, watchCmd, pingCmd)
}

func newLogger(lc sdojsd.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logger == nil {
		if err != nil {
			fmt.Fprintf(os.Stderr, "sdojsd: %v\n", err)
			os.Exit(1)
		}
		return
	}
	defer logger.Sync()
	if err != nil {
		logger.Sugar().Fatalf("sdojsd %s: %v", commandName(os.Args), err)
	}
}

func commandName(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return rootCmd.Name()
}
