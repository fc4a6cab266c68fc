// Package codec renders topology snapshots in exchange formats.
package codec

import (
	"fmt"
	"io"
	"strings"
	"time"

	"netinspect/internal/domain"
)

// Document is the exported form of a snapshot
type Document struct {
	SnapshotID string                `json:"snapshot_id" yaml:"snapshot_id"`
	ComputedAt time.Time             `json:"computed_at" yaml:"computed_at"`
	Nodes      []domain.TopologyNode `json:"nodes" yaml:"nodes"`
	Links      []domain.TopologyLink `json:"links" yaml:"links"`
}

// NewDocument captures snap for export
func NewDocument(snap *domain.Snapshot) Document {
	return Document{
		SnapshotID: snap.ID(),
		ComputedAt: snap.ComputedAt().UTC(),
		Nodes:      snap.Nodes(),
		Links:      snap.Links(),
	}
}

// Importer interface for reading exported documents back
type Importer interface {
	Parse(r io.Reader) (*Document, error)
	Format() string
}

// Exporter interface for exporting snapshots to various formats
type Exporter interface {
	Export(snap *domain.Snapshot, w io.Writer) error
	Format() string
	ContentType() string
}

// ForFormat returns the exporter for a format name; empty selects JSON
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}
