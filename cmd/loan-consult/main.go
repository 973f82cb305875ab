package main

import (
	"fmt"
	"os"

	"github.com/kkfinancial/loan-consult/internal/config"
	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": %q}\n", err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "loan-consult",
		Short:         "KK Financial loan consultation website and EMI calculator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newServeCommand(opts), newEMICommand(opts))
	return cmd
}

// loadConfiguration reads and validates the configuration file. A missing
// file at the default location falls back to defaults and the environment.
func (o *rootOptions) loadConfiguration() (*config.Configuration, error) {
	path := o.configPath
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", o.configPath, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, nil
}
