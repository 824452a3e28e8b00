package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/internal/serde"
	"github.com/fatih/color"
)

var (
	addressColor = color.New(color.FgCyan, color.Bold)
	nameColor    = color.New(color.FgGreen)
	stateColor   = color.New(color.FgYellow)
	uuidColor    = color.New(color.FgBlue)
	faintColor   = color.New(color.Faint)
)

// printer writes command results either as colored text or as JSON lines.
type printer struct {
	out  io.Writer
	json bool
}

// deviceInfo is the result of the info command.
type deviceInfo struct {
	Address         bluetooth.MacAddress           `json:"address"`
	State           string                         `json:"state"`
	Services        []string                       `json:"services,omitempty"`
	Characteristics []bluetooth.CharacteristicData `json:"characteristics,omitempty"`
}

// valueOutput is a characteristic value read or notified.
type valueOutput struct {
	UUID   string `json:"uuid"`
	Value  string `json:"value"`
	Length int    `json:"length"`
}

func newPrinter(out io.Writer, json bool) *printer {
	return &printer{out: out, json: json}
}

func (p *printer) device(device bluetooth.DeviceData) error {
	if p.json {
		return p.encode(device)
	}

	name := device.Alias
	if device.Name != "" {
		name = device.Name
	}
	if name == "" {
		name = "(unknown)"
	}

	line := addressColor.Sprint(device.Address.String()) + "  " + nameColor.Sprint(name)
	if device.RSSI != 0 {
		line += faintColor.Sprintf("  %d dBm", device.RSSI)
	}
	if device.Connected {
		line += "  " + stateColor.Sprint("connected")
	}

	_, err := fmt.Fprintln(p.out, line)

	return err
}

func (p *printer) info(info deviceInfo) error {
	if p.json {
		return p.encode(info)
	}

	fmt.Fprintf(p.out, "%s  %s\n", addressColor.Sprint(info.Address.String()), stateColor.Sprint(info.State))

	if len(info.Services) > 0 {
		fmt.Fprintln(p.out, "Services:")
		for _, uuid := range info.Services {
			fmt.Fprintf(p.out, "  %s\n", uuidColor.Sprint(uuid))
		}
	}

	if len(info.Characteristics) > 0 {
		fmt.Fprintln(p.out, "Characteristics:")
		for _, c := range info.Characteristics {
			fmt.Fprintf(p.out, "  %s  %s\n", uuidColor.Sprint(c.UUID), faintColor.Sprint(c.Flags.String()))
		}
	}

	return nil
}

func (p *printer) value(uuid string, value []byte) error {
	out := valueOutput{
		UUID:   uuid,
		Value:  strings.ToUpper(hex.EncodeToString(value)),
		Length: len(value),
	}

	if p.json {
		return p.encode(out)
	}

	_, err := fmt.Fprintf(p.out, "%s  %s\n", uuidColor.Sprint(out.UUID), out.Value)

	return err
}

func (p *printer) encode(v any) error {
	data, err := serde.MarshalJson(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(p.out, string(data))

	return err
}

// parseHexValue decodes a hex string, ignoring an optional 0x prefix and
// space, colon or dash separators.
func parseHexValue(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)

	if s == "" {
		return nil, fmt.Errorf("empty value")
	}

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value: %w", err)
	}

	return data, nil
}

// parseValueInput decodes a value written by "read --json". The uuid of the
// input, if present, must match the target characteristic.
func parseValueInput(data []byte, uuid string) ([]byte, error) {
	var in valueOutput
	if err := serde.UnmarshalJson(data, &in); err != nil {
		return nil, fmt.Errorf("invalid value input: %w", err)
	}

	if in.UUID != "" && !strings.EqualFold(in.UUID, uuid) {
		return nil, fmt.Errorf("value input is for characteristic %s, not %s", in.UUID, uuid)
	}

	value, err := parseHexValue(in.Value)
	if err != nil {
		return nil, err
	}

	if in.Length != 0 && in.Length != len(value) {
		return nil, fmt.Errorf("value input length %d does not match its value (%d bytes)", in.Length, len(value))
	}

	return value, nil
}
