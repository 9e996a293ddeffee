// Package commands implements the commands of the blocklist demonstration tool.
package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "blocklist",
	Short:         "Exercises the block list container",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log growth decisions of the list")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(dumpCmd)
}

func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config = zap.NewDevelopmentConfig()
	}
	log, err := config.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return log, nil
}
