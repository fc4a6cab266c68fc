package loader

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"netinspect/internal/domain"
)

// InventoryYAML represents the YAML file structure
type InventoryYAML struct {
	Version string       `yaml:"version"`
	Devices []DeviceYAML `yaml:"devices"`
}

// DeviceYAML represents a device in YAML format
type DeviceYAML struct {
	Name     string `yaml:"name"`
	IP       string `yaml:"ip"`
	Vendor   string `yaml:"vendor,omitempty"`
	Model    string `yaml:"model,omitempty"`
	Protocol string `yaml:"protocol,omitempty"`
	Username string `yaml:"username,omitempty"`
	// Password is the login password, or the community for SNMP devices
	Password string `yaml:"password,omitempty"`
	// PasswordEnv names an environment variable holding the password
	PasswordEnv string `yaml:"password_env,omitempty"`
	GroupID     *int64 `yaml:"group_id,omitempty"`
}

// Entry is a parsed device with its plaintext password
type Entry struct {
	Device   domain.Device
	Password string
}

// Inventory is a parsed device inventory file
type Inventory struct {
	Version string
	Entries []Entry
}

// LoadYAML loads an inventory from a YAML file
func LoadYAML(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses an inventory from YAML bytes
func ParseYAML(data []byte) (*Inventory, error) {
	var yamlData InventoryYAML
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return convertYAMLToInventory(&yamlData)
}

func convertYAMLToInventory(y *InventoryYAML) (*Inventory, error) {
	inv := &Inventory{Version: y.Version}
	seen := make(map[string]string, len(y.Devices))

	for i, d := range y.Devices {
		name := strings.TrimSpace(d.Name)
		ip := strings.TrimSpace(d.IP)

		if name == "" {
			return nil, fmt.Errorf("device %d: name is required", i)
		}
		if net.ParseIP(ip) == nil {
			return nil, fmt.Errorf("device %s: invalid ip %q", name, d.IP)
		}
		if other, dup := seen[ip]; dup {
			return nil, fmt.Errorf("device %s: ip %s already used by %s", name, ip, other)
		}
		seen[ip] = name

		protocol := domain.Protocol(strings.ToLower(strings.TrimSpace(d.Protocol)))
		switch protocol {
		case "":
			protocol = domain.ProtocolSSH
		case domain.ProtocolSSH, domain.ProtocolSNMP:
		default:
			return nil, fmt.Errorf("device %s: unsupported protocol %q", name, d.Protocol)
		}

		password := d.Password
		if d.PasswordEnv != "" {
			password = os.Getenv(d.PasswordEnv)
		}

		inv.Entries = append(inv.Entries, Entry{
			Device: domain.Device{
				Name:     name,
				IP:       ip,
				Vendor:   strings.TrimSpace(d.Vendor),
				Model:    strings.TrimSpace(d.Model),
				Protocol: protocol,
				Username: d.Username,
				GroupID:  d.GroupID,
				Status:   domain.DeviceStatusOffline,
			},
			Password: password,
		})
	}

	return inv, nil
}

// ExportYAML renders devices as an inventory file without passwords
func ExportYAML(devices []domain.Device) ([]byte, error) {
	y := InventoryYAML{Version: "1"}
	for _, d := range devices {
		y.Devices = append(y.Devices, DeviceYAML{
			Name:     d.Name,
			IP:       d.IP,
			Vendor:   d.Vendor,
			Model:    d.Model,
			Protocol: string(d.EffectiveProtocol()),
			Username: d.Username,
			GroupID:  d.GroupID,
		})
	}

	data, err := yaml.Marshal(&y)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}
