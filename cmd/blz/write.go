package main

import (
	"fmt"
	"os"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/spf13/cobra"
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <device-address> <uuid> [hex-value]",
	Short: "Write a value to a characteristic",
	Example: `  blz write AA:BB:CC:DD:EE:FF 2a06 01
  blz write AA:BB:CC:DD:EE:FF 6e400002-b5a3-f393-e0a9-e50e24dcca9e "48 65 6c 6c 6f"
  blz write AA:BB:CC:DD:EE:FF 6e400002-b5a3-f393-e0a9-e50e24dcca9e 48656c6c6f --stream
  blz read AA:BB:CC:DD:EE:FF 2a06 --json > alert.json && blz write AA:BB:CC:DD:EE:FF 2a06 --from alert.json`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runWrite,
}

var (
	writeStream bool
	writeFrom   string
)

func init() {
	writeCmd.Flags().BoolVar(&writeStream, "stream", false, "Write through an acquired write-without-response socket")
	writeCmd.Flags().StringVar(&writeFrom, "from", "", "Write the value from a file saved with read --json")
}

// writeValue returns the value to write, from the hex argument or the --from file.
func writeValue(args []string, from string) ([]byte, error) {
	switch {
	case len(args) == 3 && from != "":
		return nil, fmt.Errorf("either a hex value or --from must be given, not both")

	case len(args) == 3:
		return parseHexValue(args[2])

	case from == "":
		return nil, fmt.Errorf("a hex value or --from is required")
	}

	input, err := os.ReadFile(from)
	if err != nil {
		return nil, err
	}

	return parseValueInput(input, args[1])
}

func runWrite(cmd *cobra.Command, args []string) error {
	data, err := writeValue(args, writeFrom)
	if err != nil {
		return err
	}

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

	if !writeStream || !char.Flags().Has(bluetooth.CharWriteWithoutResponse) {
		return char.Write(data)
	}

	file, mtu, err := char.AcquireWrite()
	if err != nil {
		return err
	}
	defer file.Close()

	// Each write on the socket is sent as one packet, and the ATT header
	// takes three bytes of the MTU.
	chunk := max(int(mtu)-3, 1)
	for len(data) > 0 {
		n := min(chunk, len(data))
		if _, err := file.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}

	return nil
}
