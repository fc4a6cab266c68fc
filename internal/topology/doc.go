// Package topology computes and caches the network topology graph.
//
// A build lists devices from the directory, fans out one neighbor discovery
// call per device, merges the raw records into canonical links and lays the
// devices out on a circle. Cache keeps the last good Snapshot, serves it
// while it is younger than the TTL and collapses concurrent misses into a
// single build. Refresher re-runs the same refresh path on a fixed interval.
package topology
