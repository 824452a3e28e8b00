package main

import (
	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/spf13/cobra"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the devices known to the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer c.session.Close()

		var printErr error
		err = c.session.KnownDevices(func(device bluetooth.DeviceData) {
			if printErr == nil {
				printErr = c.out.device(device)
			}
		})
		if err != nil {
			return err
		}

		return printErr
	},
}
