package main

import (
	"time"

	"github.com/spf13/cobra"
)

// notifyCmd represents the notify command
var notifyCmd = &cobra.Command{
	Use:   "notify <device-address> <uuid>",
	Short: "Print characteristic notifications",
	Long: `Connects to the device, enables notifications or indications on a
characteristic and prints every value until the duration elapses, the device
disconnects, or Ctrl+C is pressed.`,
	Example: `  # Heart Rate Measurement for one minute
  blz notify AA:BB:CC:DD:EE:FF 2a37 --duration 1m`,
	Args: cobra.ExactArgs(2),
	RunE: runNotify,
}

var notifyDuration time.Duration

func init() {
	notifyCmd.Flags().DurationVarP(&notifyDuration, "duration", "d", 0, "Notification duration (0 for indefinite)")
}

func runNotify(cmd *cobra.Command, args []string) error {
	c, err := openSession(cmd)
	if err != nil {
		return err
	}

	device, err := c.connect(cmd, args[0])
	if err != nil {
		c.session.Close()
		return err
	}
	defer c.close(device)

	char, err := device.Characteristic(args[1])
	if err != nil {
		return err
	}

	var printErr error
	err = char.NotifyStart(func(value []byte) {
		if printErr == nil {
			printErr = c.out.value(char.UUID(), value)
		}
	})
	if err != nil {
		return err
	}
	defer char.NotifyStop()

	interrupted, stop := interruptFlag()
	defer stop()

	deadline := time.Now().Add(notifyDuration)
	for !interrupted.Load() && printErr == nil && device.Connected() {
		if notifyDuration > 0 && !time.Now().Before(deadline) {
			break
		}

		if err := c.session.Pump(pollInterval); err != nil {
			return err
		}
	}

	return printErr
}
