package domain

// Position is a point in the 3D visualization space
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// TopologyNode is a device placed in the visualization
type TopologyNode struct {
	ID     int64        `json:"id" yaml:"id"`
	Name   string       `json:"name" yaml:"name"`
	IP     string       `json:"ip" yaml:"ip"`
	Vendor string       `json:"vendor" yaml:"vendor"`
	Status DeviceStatus `json:"status" yaml:"status"`
	X      float64      `json:"x" yaml:"x"`
	Y      float64      `json:"y" yaml:"y"`
	Z      float64      `json:"z" yaml:"z"`
}

// NewTopologyNode places a device at the given position
func NewTopologyNode(device Device, pos Position) TopologyNode {
	return TopologyNode{
		ID:     device.ID,
		Name:   device.Name,
		IP:     device.IP,
		Vendor: device.Vendor,
		Status: device.Status,
		X:      pos.X,
		Y:      pos.Y,
		Z:      pos.Z,
	}
}

// Position returns the node coordinates
func (n TopologyNode) Position() Position {
	return Position{X: n.X, Y: n.Y, Z: n.Z}
}
