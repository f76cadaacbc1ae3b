package main

import (
	"fmt"
	"os"

	"biasev/internal/config"
	"biasev/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliEnv carries state shared by every subcommand
type cliEnv struct {
	logger *zap.Logger
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	env := &cliEnv{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "biactl",
		Short:         "Train, test and query BIA severity models from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				return nil
			}
			logger, err := logging.New(config.LogConfig{Level: "debug", Format: "console"})
			if err != nil {
				return err
			}
			env.logger = logger
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(
		newTrainCmd(env),
		newAnovaCmd(env),
		newPredictCmd(env),
		newSchemaCmd(),
	)
	return rootCmd
}
