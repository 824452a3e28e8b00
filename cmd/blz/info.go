package main

import (
	"fmt"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/eventbus"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <device-address>",
	Short: "Connect to a device and list its services and characteristics",
	Example: `  blz info AA:BB:CC:DD:EE:FF
  blz info AA:BB:CC:DD:EE:FF --address-type random --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	c, err := openSession(cmd)
	if err != nil {
		return err
	}

	states := eventbus.Subscribe[bluetooth.ConnectionEventData](bluetooth.EventConnection)
	defer states.Unsubscribe()

	go func() {
		for ev := range states.C {
			c.logger.WithField("device", ev.Data.Address.String()).Info("State: " + ev.Data.State)
		}
	}()

	device, err := c.connect(cmd, args[0])
	if err != nil {
		c.session.Close()
		return err
	}
	defer c.close(device)

	services, err := device.ServiceUUIDs()
	if err != nil {
		return err
	}

	chars, err := device.Characteristics()
	if err != nil {
		return fmt.Errorf("cannot list characteristics: %w", err)
	}

	return c.out.info(deviceInfo{
		Address:         device.Address(),
		State:           device.State().String(),
		Services:        services,
		Characteristics: chars,
	})
}
