package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/config"
	logpkg "github.com/kailas-cloud/drugqa/internal/logger"
)

type globalFlags struct {
	env        string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "drugqa",
		Short: "Drug pricing and regulatory question answering",
		Long: `drugqa answers questions about drug prices, reimbursement timelines and
regulatory submissions using documents indexed per tenant.

Configuration is read from config/<env>.yaml (ENV, default "local") or from
--config. Values of the form ${VAR} or ${VAR:-default} are expanded from the
environment, and a .env file in the working directory is loaded first.

Examples:
  # Run the API
  drugqa serve

  # Index a document for a user, then ask about it
  drugqa ingest --tenant user-7 --drug-id d1 --file-id f1 --title "Drug X" review.txt
  drugqa ask --tenant public --tenant user-7 "What will Drug X cost in France?"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.env, "env", config.GetEnv(), "environment name (selects config/<env>.yaml)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "explicit config file path")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newServeCmd(flags),
		newAskCmd(flags),
		newIngestCmd(flags),
		newPurgeCmd(flags),
		newStatsCmd(flags),
		newVersionCmd(),
	)
	return root
}

// load reads configuration and builds the process logger. Commands other
// than serve pass cli=true so logs stay on stderr and quiet.
func (f *globalFlags) load(cli bool) (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load(f.env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	var logger *zap.Logger
	if cli {
		logger, err = logpkg.NewCLILogger(f.logLevel)
	} else {
		level := cfg.Logging.Level
		if f.logLevel != "" {
			level = f.logLevel
		}
		logger, err = logpkg.NewLogger(f.env, level)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
