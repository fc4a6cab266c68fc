package domain

import (
	"sort"
	"strings"
)

// StatusUnknown is recorded when no report for a link carried a status
const StatusUnknown = "Unknown"

// StatusUp is the status that, once recorded for a link, is never replaced
const StatusUp = "Up"

// RawLinkRecord is one neighbor-table row as reported by a single device.
// An empty Status means the report carried none.
type RawLinkRecord struct {
	DeviceID     int64  `json:"device_id"`
	DeviceName   string `json:"device_name"`
	LocalPort    string `json:"local_port"`
	Neighbor     string `json:"neighbor"`
	NeighborPort string `json:"neighbor_port"`
	Status       string `json:"status,omitempty"`
}

// TopologyLink is the canonical form of one physical adjacency.
// TargetDeviceID is nil when the neighbor could not be resolved to a known device.
type TopologyLink struct {
	SourceDeviceID int64  `json:"sourceDeviceId" yaml:"source_device_id"`
	SourceName     string `json:"sourceName" yaml:"source_name"`
	SourceIP       string `json:"sourceIp" yaml:"source_ip"`
	SourcePort     string `json:"sourcePort" yaml:"source_port"`
	TargetDeviceID *int64 `json:"targetDeviceId" yaml:"target_device_id"`
	TargetName     string `json:"targetName" yaml:"target_name"`
	TargetIP       string `json:"targetIp" yaml:"target_ip"`
	TargetPort     string `json:"targetPort" yaml:"target_port"`
	Status         string `json:"status" yaml:"status"`
}

// Resolved reports whether the far end of the link is a known device
func (l *TopologyLink) Resolved() bool {
	return l.TargetDeviceID != nil
}

// LinkKey returns the order-independent key of a link between two endpoints.
// The same adjacency reported from either end yields the same key.
func LinkKey(sourceName, sourcePort, targetName, targetPort string) string {
	parts := []string{
		sourceName + "#" + sourcePort,
		targetName + "#" + targetPort,
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
