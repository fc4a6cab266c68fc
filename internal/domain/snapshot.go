package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one computed topology. It is never modified after
// construction; accessors hand out copies.
type Snapshot struct {
	id         string
	nodes      []TopologyNode
	links      []TopologyLink
	computedAt time.Time
}

// SnapshotView is the serialized form of a Snapshot
type SnapshotView struct {
	Nodes []TopologyNode `json:"nodes" yaml:"nodes"`
	Links []TopologyLink `json:"links" yaml:"links"`
}

// NewSnapshot builds a snapshot from nodes and links computed at the given instant
func NewSnapshot(nodes []TopologyNode, links []TopologyLink, computedAt time.Time) *Snapshot {
	return &Snapshot{
		id:         uuid.NewString(),
		nodes:      cloneNodes(nodes),
		links:      cloneLinks(links),
		computedAt: computedAt,
	}
}

// EmptySnapshot returns a snapshot with no nodes and no links
func EmptySnapshot(computedAt time.Time) *Snapshot {
	return NewSnapshot(nil, nil, computedAt)
}

// ID uniquely identifies this build
func (s *Snapshot) ID() string { return s.id }

// ComputedAt is the instant the build finished
func (s *Snapshot) ComputedAt() time.Time { return s.computedAt }

// Nodes returns a copy of the ordered node sequence
func (s *Snapshot) Nodes() []TopologyNode { return cloneNodes(s.nodes) }

// Links returns a copy of the ordered link sequence
func (s *Snapshot) Links() []TopologyLink { return cloneLinks(s.links) }

// NodeCount returns the number of nodes
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// LinkCount returns the number of links
func (s *Snapshot) LinkCount() int { return len(s.links) }

// View returns the serializable nodes/links pair
func (s *Snapshot) View() SnapshotView {
	return SnapshotView{Nodes: s.Nodes(), Links: s.Links()}
}

// MarshalJSON implements json.Marshaler
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.View())
}

// MarshalYAML implements yaml.Marshaler
func (s *Snapshot) MarshalYAML() (interface{}, error) {
	return s.View(), nil
}

func cloneNodes(nodes []TopologyNode) []TopologyNode {
	out := make([]TopologyNode, len(nodes))
	copy(out, nodes)
	return out
}

func cloneLinks(links []TopologyLink) []TopologyLink {
	out := make([]TopologyLink, len(links))
	for i, l := range links {
		if l.TargetDeviceID != nil {
			id := *l.TargetDeviceID
			l.TargetDeviceID = &id
		}
		out[i] = l
	}
	return out
}
