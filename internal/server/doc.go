// Package server implements the sandbox portal API: a local stand-in for the automation
// portal backend that the CLI and TUI can be pointed at.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging], [CORS] and [Recover] wrap the whole mux, so CORS preflights are answered even though no
// route registers OPTIONS.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/nodes/{id}").
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// The Socket.IO [Hub] is registered this way.
//
// # Sandbox
//
// [Sandbox] serves the REST contract under /api from the sqlite repositories and a [PlaybookStore]:
//
//	GET    /api/playbooks            GET /api/playbooks/{name}
//	GET    /api/nodes                POST /api/nodes     PUT|DELETE /api/nodes/{id}
//	GET    /api/groups               POST /api/groups    PUT|DELETE /api/groups/{id}
//	GET    /api/executions           GET /api/executions/{id}
//	POST   /api/execute              POST /api/ping
//
// Errors are JSON {"error": "..."}; unknown ids are 404 and duplicate names 409.
//
// POST /api/execute records a running execution and hands it to the [Executor], which simulates
// the run and broadcasts execution_completed or execution_failed on the [Hub].
// POST /api/ping fans TCP probes out through a rate limited [Pinger] and stores each node's status.
//
// # Push Channel
//
// [Hub] speaks Engine.IO v4 over WebSocket only: it sends the open packet, answers the namespace
// connect, pings every 25 s and pushes 42["name",payload] frames to connected clients.
package server
