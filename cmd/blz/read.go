package main

import (
	"github.com/spf13/cobra"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read <device-address> <uuid>",
	Short: "Read a characteristic value",
	Long: `Connects to the device and reads the complete value of a characteristic.
The UUID may be given in its 16-bit, 32-bit or 128-bit form.`,
	Example: `  # Read Battery Level
  blz read AA:BB:CC:DD:EE:FF 2a19`,
	Args: cobra.ExactArgs(2),
	RunE: runRead,
}

func runRead(cmd *cobra.Command, args []string) error {
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

	value, err := char.ReadValue()
	if err != nil {
		return err
	}

	return c.out.value(char.UUID(), value)
}
