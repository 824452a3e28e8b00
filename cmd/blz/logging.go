package main

import (
	"fmt"

	"github.com/bluetuith-org/blz/api/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// configureLogger sets the log level of cfg from the --log-level and --verbose
// flags, with --log-level taking precedence, and creates the logger. Without
// either flag the level from the config file is used, or warn if there is none.
func configureLogger(cmd *cobra.Command, cfg config.Configuration, fromFile bool) (*logrus.Logger, error) {
	if !fromFile {
		cfg.LogLevel = logrus.WarnLevel.String()
	}

	if name, _ := cmd.Flags().GetString("log-level"); name != "" {
		cfg.LogLevel = name
	} else if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	return cfg.NewLogger(), nil
}
