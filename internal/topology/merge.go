package topology

import (
	"strings"

	"netinspect/internal/domain"
)

// MergeLinks folds raw neighbor records into canonical undirected links.
//
// Records without a known source device, a local port or a neighbor are
// dropped. Records sharing a LinkKey collapse into one link: an "Up" status
// (case-insensitive) is never replaced, a record without status never
// replaces anything, otherwise the later status wins. Links are returned in
// first-seen order.
func MergeLinks(records []domain.RawLinkRecord, devices []domain.Device) []domain.TopologyLink {
	byID := make(map[int64]*domain.Device, len(devices))
	for i := range devices {
		byID[devices[i].ID] = &devices[i]
	}

	merged := make(map[string]*domain.TopologyLink)
	var order []string

	for _, rec := range records {
		source := byID[rec.DeviceID]
		if source == nil || rec.LocalPort == "" || rec.Neighbor == "" {
			continue
		}

		key := domain.LinkKey(source.Name, rec.LocalPort, rec.Neighbor, rec.NeighborPort)

		existing, ok := merged[key]
		if !ok {
			merged[key] = newLink(source, rec, resolveNeighbor(devices, rec.Neighbor))
			order = append(order, key)
			continue
		}

		if strings.EqualFold(existing.Status, domain.StatusUp) || rec.Status == "" {
			continue
		}
		existing.Status = rec.Status
	}

	links := make([]domain.TopologyLink, 0, len(order))
	for _, key := range order {
		links = append(links, *merged[key])
	}
	return links
}

// resolveNeighbor finds the device a neighbor identifier refers to, by
// case-insensitive name or exact address
func resolveNeighbor(devices []domain.Device, neighbor string) *domain.Device {
	for i := range devices {
		if strings.EqualFold(neighbor, devices[i].Name) || neighbor == devices[i].IP {
			return &devices[i]
		}
	}
	return nil
}

func newLink(source *domain.Device, rec domain.RawLinkRecord, target *domain.Device) *domain.TopologyLink {
	status := rec.Status
	if status == "" {
		status = domain.StatusUnknown
	}

	link := &domain.TopologyLink{
		SourceDeviceID: source.ID,
		SourceName:     source.Name,
		SourceIP:       source.IP,
		SourcePort:     rec.LocalPort,
		TargetName:     rec.Neighbor,
		TargetIP:       rec.Neighbor,
		TargetPort:     rec.NeighborPort,
		Status:         status,
	}
	if target != nil {
		id := target.ID
		link.TargetDeviceID = &id
		link.TargetIP = target.IP
	}
	return link
}
