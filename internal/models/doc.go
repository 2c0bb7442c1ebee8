// Package models defines the entities exchanged with the automation portal API.
//
// The package contains two categories of types:
//
// 1. Entities returned by list and detail endpoints
//   - [Playbook] : A playbook file with size and modification time
//   - [Node] : A managed host with its group memberships
//   - [Group] : A named set of nodes
//   - [Execution] : One run of playbooks against targets, with captured output
//
// 2. Request and response bodies
//   - [NodeInput], [GroupInput] : Create and update payloads
//   - [ExecuteRequest], [PingRequest], [PingResults] : Execution and connectivity checks
//   - [MessageResponse], [ErrorResponse] : Acknowledgements and failures
//
// [Target] and [TargetType] describe the execution targets a user has selected.
// [Timestamp] accepts both zoned and naive ISO-8601 values; naive values are UTC, except in
// [LocalTimestamp] (playbook file times) where they are local.
package models
