package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/bluetuith-org/blz/api/bluetooth"
	"github.com/bluetuith-org/blz/api/config"
	"github.com/bluetuith-org/blz/bluez"
	"github.com/bluetuith-org/blz/platform"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// commandContext holds what every command needs once its arguments are validated.
type commandContext struct {
	cfg     config.Configuration
	logger  *logrus.Logger
	session *bluez.Session
	out     *printer
}

// loadConfig builds the configuration from defaults, the --config file and the
// --adapter flag, in increasing order of precedence.
func loadConfig(cmd *cobra.Command) (config.Configuration, bool, error) {
	cfg := config.New()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, false, err
		}
		cfg = loaded
	}

	if adapter, _ := cmd.Flags().GetString("adapter"); adapter != "" {
		cfg.Adapter = adapter
		if err := cfg.Validate(); err != nil {
			return cfg, false, err
		}
	}

	return cfg, path != "", nil
}

// openSession loads the configuration, configures logging and opens a
// session on the configured adapter.
func openSession(cmd *cobra.Command) (*commandContext, error) {
	cfg, fromFile, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := configureLogger(cmd, cfg, fromFile)
	if err != nil {
		return nil, err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	session, info, err := platform.Open(cfg, bluez.WithLogger(logger))
	if err != nil {
		logger.WithField("platform", info.OS).WithField("stack", info.Stack.String()).Debug("Cannot open session")
		return nil, err
	}

	return &commandContext{
		cfg:     cfg,
		logger:  logger,
		session: session,
		out:     newPrinter(cmd.OutOrStdout(), jsonOutput),
	}, nil
}

// connect parses the address argument and the --address-type flag, and
// connects to the device.
func (c *commandContext) connect(cmd *cobra.Command, address string) (*bluez.Device, error) {
	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, fmt.Errorf("invalid device address %q: %w", address, err)
	}

	name, _ := cmd.Flags().GetString("address-type")
	addressType, err := bluetooth.ParseAddressType(name)
	if err != nil {
		return nil, fmt.Errorf("invalid address type %q: must be public or random", name)
	}

	return c.session.Connect(mac, addressType, func(mac bluetooth.MacAddress) {
		c.logger.WithField("device", mac.String()).Warn("Device disconnected")
	})
}

func (c *commandContext) close(device *bluez.Device) {
	device.Disconnect()
	c.session.Close()
}

// interruptFlag returns a flag that is set once SIGINT or SIGTERM is received.
// The session pump runs on the calling goroutine, so long-running commands
// poll the flag between pump passes.
func interruptFlag() (*atomic.Bool, func()) {
	var interrupted atomic.Bool

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
			interrupted.Store(true)
		case <-done:
		}
	}()

	return &interrupted, func() {
		signal.Stop(sigChan)
		close(done)
	}
}
