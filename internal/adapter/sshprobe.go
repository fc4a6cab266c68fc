package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"netinspect/internal/domain"
)

// Vendor LLDP commands
const (
	huaweiLLDPCommand = "display lldp neighbor brief"
	ciscoLLDPCommand  = "show lldp neighbors"
)

// SSHConfig holds configuration for the SSH neighbor discoverer
type SSHConfig struct {
	// Port is the SSH port on devices
	Port int
	// ConnectionTimeout bounds dial and handshake
	ConnectionTimeout time.Duration
	// CommandTimeout bounds the LLDP command
	CommandTimeout time.Duration
	// Commands overrides the LLDP command per lowercase vendor
	Commands map[string]string
}

// DefaultSSHConfig returns sensible defaults
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{
		Port:              22,
		ConnectionTimeout: 10 * time.Second,
		CommandTimeout:    30 * time.Second,
	}
}

// SSHDiscoverer reads LLDP neighbor tables over SSH
type SSHDiscoverer struct {
	port           int
	timeout        time.Duration
	commandTimeout time.Duration
	commands       map[string]string
	logger         zerolog.Logger
}

// NewSSHDiscoverer creates a new SSH discoverer
func NewSSHDiscoverer(config SSHConfig, logger zerolog.Logger) *SSHDiscoverer {
	if config.Port == 0 {
		config.Port = 22
	}
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = 10 * time.Second
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 30 * time.Second
	}

	commands := map[string]string{
		"huawei": huaweiLLDPCommand,
		"华为":     huaweiLLDPCommand,
		"h3c":    huaweiLLDPCommand,
		"cisco":  ciscoLLDPCommand,
		"思科":     ciscoLLDPCommand,
	}
	for vendor, cmd := range config.Commands {
		commands[strings.ToLower(vendor)] = cmd
	}

	return &SSHDiscoverer{
		port:           config.Port,
		timeout:        config.ConnectionTimeout,
		commandTimeout: config.CommandTimeout,
		commands:       commands,
		logger:         logger,
	}
}

// Name returns the adapter identifier
func (s *SSHDiscoverer) Name() string {
	return "ssh"
}

// DiscoverNeighbors logs into the device and parses its LLDP neighbor table
func (s *SSHDiscoverer) DiscoverNeighbors(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error) {
	if cred.Username == "" || cred.Secret == "" {
		return nil, fmt.Errorf("ssh discovery of %s needs username and password", device.IP)
	}

	client, err := s.connect(ctx, device.IP, s.port, cred)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	defer client.Close()

	cmd := s.commandFor(device.Vendor)
	output, err := s.runCommand(ctx, client, cmd)
	if err != nil {
		return nil, fmt.Errorf("%q on %s: %w", cmd, device.IP, err)
	}

	name := device.Name
	if name == "" {
		name = device.IP
	}
	records := ParseLLDPOutput(device.ID, name, output)

	s.logger.Debug().
		Str("device", name).
		Str("ip", device.IP).
		Int("records", len(records)).
		Msg("SSH LLDP collection complete")

	return records, nil
}

// commandFor returns the LLDP command for a vendor, defaulting to the Huawei form
func (s *SSHDiscoverer) commandFor(vendor string) string {
	if cmd, ok := s.commands[strings.ToLower(strings.TrimSpace(vendor))]; ok {
		return cmd
	}
	return huaweiLLDPCommand
}
