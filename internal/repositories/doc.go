// Package repositories implements SQLite persistence for the sandbox API server.
//
// Key Implementations:
//   - [NodeRepository] : managed hosts, unique by name, with ping status
//   - [GroupRepository] : node groups and the node_group_members junction table
//   - [ExecutionRepository] : playbook run history with JSON-encoded playbook and target lists
//
// Lookups of unknown ids return errors wrapping [shared.ErrNotFound]; duplicate names return
// errors wrapping [shared.ErrConflict]. Deleting a node or group cascades its memberships.
package repositories
