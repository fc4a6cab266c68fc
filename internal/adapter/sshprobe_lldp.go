package adapter

import (
	"regexp"
	"strings"

	"netinspect/internal/domain"
)

var (
	// <local-if> <Up|Down> <neighbor> <neighbor-if>
	lldpStatusLine = regexp.MustCompile(`^\s*(\S+)\s+((?i:up|down))\s+(\S+)\s+(\S+)`)
	// <local-if> <neighbor> <neighbor-if> <exptime>, as printed by "display lldp neighbor brief"
	lldpBriefLine = regexp.MustCompile(`^\s*(\S+)\s+(\S+)\s+(\S+)\s+(\d+)\s*$`)
)

// ParseLLDPOutput extracts neighbor records from LLDP command output.
// Lines that match neither known layout are ignored.
func ParseLLDPOutput(deviceID int64, deviceName, output string) []domain.RawLinkRecord {
	var records []domain.RawLinkRecord
	if strings.TrimSpace(output) == "" {
		return records
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")

		if m := lldpStatusLine.FindStringSubmatch(line); m != nil {
			records = append(records, domain.RawLinkRecord{
				DeviceID:     deviceID,
				DeviceName:   deviceName,
				LocalPort:    m[1],
				Status:       canonicalStatus(m[2]),
				Neighbor:     m[3],
				NeighborPort: m[4],
			})
			continue
		}

		if m := lldpBriefLine.FindStringSubmatch(line); m != nil && looksLikeInterface(m[1]) {
			records = append(records, domain.RawLinkRecord{
				DeviceID:     deviceID,
				DeviceName:   deviceName,
				LocalPort:    m[1],
				Neighbor:     m[2],
				NeighborPort: m[3],
			})
		}
	}

	return records
}

// canonicalStatus maps up/down in any case to "Up"/"Down"
func canonicalStatus(s string) string {
	switch strings.ToLower(s) {
	case "up":
		return "Up"
	case "down":
		return "Down"
	}
	return s
}

// looksLikeInterface filters header and separator lines
func looksLikeInterface(s string) bool {
	return strings.ContainsAny(s, "0123456789") && !strings.HasPrefix(s, "-")
}
