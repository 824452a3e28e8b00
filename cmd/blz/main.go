package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blz",
	Short: "Bluetooth Low Energy client for BlueZ",
	Long: `Bluetooth Low Energy (BLE) client that talks to the BlueZ daemon over D-Bus:

- Scan for nearby devices and list the devices the daemon knows
- Connect to a device and list its services and characteristics
- Read from and write to characteristics
- Print characteristic notifications`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		fmt.Fprintf(os.Stderr, "ERROR: %s\n", formatUserError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(notifyCmd)

	addGlobalFlags(rootCmd)
}

// addGlobalFlags defines the flags shared by all commands.
func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("adapter", "", "Adapter name (default from configuration, hci0)")
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolP("verbose", "V", false, "Enable debug logging")
	flags.Bool("json", false, "Print results as JSON")
	flags.String("address-type", "", "LE address type of the device (public, random); tried in that order if unset")
}
