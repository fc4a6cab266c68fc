// Package adapter implements neighbor discovery clients for netinspect.
//
// Every client implements Discoverer: one call per device that returns the
// device's raw LLDP neighbor records. A call either returns all records it
// could read or an error; callers decide how failures are absorbed.
//
// # Clients
//
// CollectorClient delegates to the external collect service over HTTP. This
// is the default mode, the collect service owns protocol handling.
//
// SSHDiscoverer logs in with the device credential, runs the vendor LLDP
// command and parses the neighbor table from its output.
//
// SNMPDiscoverer walks the LLDP-MIB remote and local port tables using the
// credential secret as SNMPv2c community.
//
// Router dispatches to one of the above by the device collection protocol.
package adapter
