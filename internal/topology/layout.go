package topology

import (
	"math"

	"netinspect/internal/domain"
)

// minLayoutRadius keeps small graphs from collapsing onto the origin
const minLayoutRadius = 10

// Layout places devices evenly on a circle in the XZ plane.
// The radius is max(10, 2n) and device i sits at angle 2πi/n, so the result
// depends only on the order and count of devices.
func Layout(devices []domain.Device) []domain.TopologyNode {
	n := len(devices)
	nodes := make([]domain.TopologyNode, 0, n)
	if n == 0 {
		return nodes
	}

	radius := math.Max(minLayoutRadius, float64(n*2))
	for i, device := range devices {
		angle := 2 * math.Pi * float64(i) / float64(n)
		nodes = append(nodes, domain.NewTopologyNode(device, domain.Position{
			X: radius * math.Cos(angle),
			Y: 0,
			Z: radius * math.Sin(angle),
		}))
	}
	return nodes
}
