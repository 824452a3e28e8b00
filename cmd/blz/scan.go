package main

import (
	"time"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for BLE devices",
	Long: `Starts discovery on the adapter and prints every device the daemon
announces, once per address, until the duration elapses or Ctrl+C is pressed.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var scanDuration time.Duration

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "Scan duration (0 for indefinite)")
}

func runScan(cmd *cobra.Command, _ []string) error {
	c, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer c.session.Close()

	seen := map[bluetooth.MacAddress]struct{}{}
	var printErr error

	err = c.session.StartScan(func(device bluetooth.DeviceData) {
		if _, ok := seen[device.Address]; ok || printErr != nil {
			return
		}
		seen[device.Address] = struct{}{}

		printErr = c.out.device(device)
	})
	if err != nil {
		return err
	}

	interrupted, stop := interruptFlag()
	defer stop()

	deadline := time.Now().Add(scanDuration)
	for !interrupted.Load() && printErr == nil {
		if scanDuration > 0 && !time.Now().Before(deadline) {
			break
		}

		if err := c.session.Pump(pollInterval); err != nil {
			return err
		}
	}

	if err := c.session.StopScan(); err != nil {
		return err
	}

	return printErr
}

// pollInterval bounds a single pump pass of long-running commands, so that
// interrupts are noticed promptly.
const pollInterval = 200 * time.Millisecond
