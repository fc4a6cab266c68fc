// Package service implements the application layer of netinspect.
//
// TopologyService sits between the HTTP handlers and the topology cache. It
// serves snapshots, forces refreshes, and reports cache status.
//
// # Event System
//
// Every snapshot the cache stores is announced on the EventBus as a
// topology_updated event, which main forwards to SSE clients via the hub.
// Publishing never blocks: slow subscribers miss events.
package service
