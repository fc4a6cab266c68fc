package adapter

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog"

	"netinspect/internal/domain"
)

// LLDP-MIB OIDs
const (
	oidLLDPLocPortDesc = ".1.0.8802.1.1.2.1.3.7.1.4"
	oidLLDPRemTable    = ".1.0.8802.1.1.2.1.4.1.1"

	lldpRemPortID   = "7"
	lldpRemPortDesc = "8"
	lldpRemSysName  = "9"
)

// SNMPConfig holds configuration for the SNMP neighbor discoverer
type SNMPConfig struct {
	Port    uint16
	Timeout time.Duration
	Retries int
}

// DefaultSNMPConfig returns sensible defaults
func DefaultSNMPConfig() SNMPConfig {
	return SNMPConfig{
		Port:    161,
		Timeout: 5 * time.Second,
		Retries: 1,
	}
}

// SNMPDiscoverer walks the LLDP-MIB of a device over SNMPv2c. The
// credential secret is used as community string.
type SNMPDiscoverer struct {
	config SNMPConfig
	logger zerolog.Logger
}

// NewSNMPDiscoverer creates a new SNMP discoverer
func NewSNMPDiscoverer(config SNMPConfig, logger zerolog.Logger) *SNMPDiscoverer {
	if config.Port == 0 {
		config.Port = 161
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	return &SNMPDiscoverer{config: config, logger: logger}
}

// Name returns the adapter identifier
func (s *SNMPDiscoverer) Name() string {
	return "snmp"
}

// DiscoverNeighbors walks the local port and remote system tables of device
func (s *SNMPDiscoverer) DiscoverNeighbors(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error) {
	if cred.Secret == "" {
		return nil, fmt.Errorf("snmp discovery of %s needs a community", device.IP)
	}

	client := &gosnmp.GoSNMP{
		Target:    device.IP,
		Port:      s.config.Port,
		Community: cred.Secret,
		Version:   gosnmp.Version2c,
		Timeout:   s.config.Timeout,
		Retries:   s.config.Retries,
		Context:   ctx,
		MaxOids:   gosnmp.MaxOids,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := client.Conn.Close(); err != nil {
			s.logger.Debug().Err(err).Str("ip", device.IP).Msg("Error closing SNMP connection")
		}
	}()

	walk := newLLDPWalk()

	if err := client.BulkWalk(oidLLDPLocPortDesc, walk.addLocalPort); err != nil {
		// Port descriptions only improve naming, neighbors are still usable without them.
		s.logger.Debug().Err(err).Str("ip", device.IP).Msg("LLDP local port walk failed")
	}

	if err := client.BulkWalk(oidLLDPRemTable, walk.addRemote); err != nil {
		return nil, fmt.Errorf("walk LLDP remote table: %w", err)
	}

	name := device.Name
	if name == "" {
		name = device.IP
	}
	records := walk.records(device.ID, name)

	s.logger.Debug().
		Str("device", name).
		Str("ip", device.IP).
		Int("records", len(records)).
		Msg("SNMP LLDP collection complete")

	return records, nil
}

// lldpRemoteKey is the timeMark.localPortNum.index suffix of a remote table row
type lldpRemoteKey struct {
	timeMark  int
	localPort int
	index     int
}

type lldpRemote struct {
	sysName  string
	portID   string
	portDesc string
}

// lldpWalk accumulates PDUs from the LLDP-MIB walks
type lldpWalk struct {
	localPorts map[int]string
	remotes    map[lldpRemoteKey]*lldpRemote
}

func newLLDPWalk() *lldpWalk {
	return &lldpWalk{
		localPorts: make(map[int]string),
		remotes:    make(map[lldpRemoteKey]*lldpRemote),
	}
}

// addLocalPort handles lldpLocPortDesc.<localPortNum>
func (w *lldpWalk) addLocalPort(pdu gosnmp.SnmpPDU) error {
	suffix, ok := oidSuffix(pdu.Name, oidLLDPLocPortDesc)
	if !ok || len(suffix) != 1 {
		return nil
	}

	num, err := strconv.Atoi(suffix[0])
	if err != nil {
		return nil
	}

	if desc := pduString(pdu); desc != "" {
		w.localPorts[num] = desc
	}
	return nil
}

// addRemote handles lldpRemEntry.<column>.<timeMark>.<localPortNum>.<index>
func (w *lldpWalk) addRemote(pdu gosnmp.SnmpPDU) error {
	suffix, ok := oidSuffix(pdu.Name, oidLLDPRemTable)
	if !ok || len(suffix) != 4 {
		return nil
	}

	column := suffix[0]
	if column != lldpRemPortID && column != lldpRemPortDesc && column != lldpRemSysName {
		return nil
	}

	var key lldpRemoteKey
	var err error
	if key.timeMark, err = strconv.Atoi(suffix[1]); err != nil {
		return nil
	}
	if key.localPort, err = strconv.Atoi(suffix[2]); err != nil {
		return nil
	}
	if key.index, err = strconv.Atoi(suffix[3]); err != nil {
		return nil
	}

	remote, exists := w.remotes[key]
	if !exists {
		remote = &lldpRemote{}
		w.remotes[key] = remote
	}

	switch column {
	case lldpRemPortID:
		remote.portID = formatLLDPID(pdu)
	case lldpRemPortDesc:
		remote.portDesc = pduString(pdu)
	case lldpRemSysName:
		remote.sysName = pduString(pdu)
	}

	return nil
}

// records converts the walk into neighbor records ordered by local port.
// Rows without any neighbor identifier are dropped.
func (w *lldpWalk) records(deviceID int64, deviceName string) []domain.RawLinkRecord {
	keys := make([]lldpRemoteKey, 0, len(w.remotes))
	for k := range w.remotes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.localPort != b.localPort {
			return a.localPort < b.localPort
		}
		if a.index != b.index {
			return a.index < b.index
		}
		return a.timeMark < b.timeMark
	})

	records := make([]domain.RawLinkRecord, 0, len(keys))
	for _, k := range keys {
		remote := w.remotes[k]

		neighbor := remote.sysName
		if neighbor == "" {
			neighbor = remote.portID
		}
		if neighbor == "" {
			continue
		}

		neighborPort := remote.portDesc
		if neighborPort == "" {
			neighborPort = remote.portID
		}

		localPort, ok := w.localPorts[k.localPort]
		if !ok {
			localPort = fmt.Sprintf("LocalPort-%d", k.localPort)
		}

		records = append(records, domain.RawLinkRecord{
			DeviceID:     deviceID,
			DeviceName:   deviceName,
			LocalPort:    localPort,
			Neighbor:     neighbor,
			NeighborPort: neighborPort,
			Status:       domain.StatusUp,
		})
	}

	return records
}

// oidSuffix returns the sub-identifiers of oid below prefix
func oidSuffix(oid, prefix string) ([]string, bool) {
	oid = "." + strings.TrimPrefix(oid, ".")
	if !strings.HasPrefix(oid, prefix+".") {
		return nil, false
	}
	return strings.Split(oid[len(prefix)+1:], "."), true
}

func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case []byte:
		return strings.TrimSpace(string(v))
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}

// formatLLDPID renders a binary six-byte identifier as a MAC address
func formatLLDPID(pdu gosnmp.SnmpPDU) string {
	b, ok := pdu.Value.([]byte)
	if !ok {
		return pduString(pdu)
	}
	if len(b) == 6 && !isPrintable(b) {
		return net.HardwareAddr(b).String()
	}
	return strings.TrimSpace(string(b))
}

func isPrintable(b []byte) bool {
	for _, r := range string(b) {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
