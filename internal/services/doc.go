// Package services talks to the automation portal backend.
//
// # REST Client
//
// [APIService] performs raw HTTP requests against the API root (default http://localhost:5000/api)
// and returns an [APIResponse]. Non-2xx responses become an [APIError] carrying the server's
// {"error": ...} message. An optional [rate.Limiter] caps outbound requests.
//
// [PortalService] layers typed endpoint methods on top:
//   - Playbooks: GET /playbooks, GET /playbooks/{name}
//   - Nodes: GET/POST /nodes, PUT/DELETE /nodes/{id}
//   - Groups: GET/POST /groups, PUT/DELETE /groups/{id}
//   - Executions: POST /execute, GET /executions, GET /executions/{id}
//   - Connectivity: POST /ping
//
// # Push Channel
//
// [EventListener] connects to the Socket.IO endpoint over a WebSocket, answers server pings,
// and delivers execution_completed and execution_failed events. [ParsePacket], [DecodeEvent]
// and [EncodeEvent] implement the subset of Engine.IO v4 framing both sides need.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrAPIRequest] : Non-2xx response
//   - [shared.ErrNotFound] : 404 response
//   - [shared.ErrServiceUnavailable] : Connection failure
//   - [shared.ErrEventChannel] : Push channel closed or broken
package services
