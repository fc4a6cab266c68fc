// Package domain defines the core types of the netinspect topology service.
//
// # Inventory
//
// Device is a managed network element as recorded by the device directory.
// Credential is the decrypted login material handed to neighbor discovery for
// exactly one device.
//
// # Discovery
//
// RawLinkRecord is one neighbor-table row reported by a single device. Records
// are untrusted and short-lived: they are merged into canonical links and
// discarded.
//
// # Topology
//
// TopologyLink is the canonical, undirected representation of one physical
// adjacency. TopologyNode is a device placed in 3D space. Snapshot pairs the
// ordered nodes and links of one build and is never modified after
// construction.
package domain
