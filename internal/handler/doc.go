// Package handler implements the HTTP surface of netinspect.
//
// # Endpoints
//
//	GET  /api/topology          current snapshot in a {code,msg,data} envelope
//	POST /api/topology/refresh  force a rebuild, returns the resulting snapshot
//	GET  /api/topology/status   cache status without building
//	GET  /api/topology/export   snapshot as a JSON or YAML document (?format=)
//	GET  /healthz               liveness
//
// Topology responses carry the snapshot id as ETag and the build instant in
// X-Topology-Computed-At. A failed build with nothing cached is reported as
// 503; once a snapshot exists, failures are absorbed by the cache and clients
// keep receiving the last good one.
//
// Middleware provides panic recovery, CORS, and request logging.
package handler
