// package models defines the data model shared by the portal client and the sandbox server
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Playbook is a playbook file available on the server. Identity is the file name.
type Playbook struct {
	Name     string    `json:"name"`
	Path     string    `json:"path,omitempty"`
	Size     int64     `json:"size"`
	Modified LocalTimestamp `json:"modified"`
}

// NodeRef is the short form of a node embedded in a [Group].
type NodeRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GroupRef is the short form of a group embedded in a [Node].
type GroupRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Node is a managed host.
type Node struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Hostname    string     `json:"hostname"`
	Port        int        `json:"port"`
	Username    string     `json:"username"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   Timestamp  `json:"created_at"`
	Groups      []GroupRef `json:"groups"`
}

// Address returns host:port as shown on node cards.
func (n Node) Address() string {
	return n.Hostname + ":" + strconv.Itoa(n.Port)
}

// Group is a named set of nodes.
type Group struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"created_at"`
	Nodes       []NodeRef `json:"nodes"`
}

// NodeIDs returns the ids of the group's members in order.
func (g Group) NodeIDs() []int {
	ids := make([]int, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// Execution statuses reported by the server.
const (
	ExecutionPending   = "pending"
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// Node statuses. The server may report others.
const (
	NodeUnknown     = "unknown"
	NodeReachable   = "reachable"
	NodeUnreachable = "unreachable"
)

// Execution is one run of one or more playbooks against a set of targets.
type Execution struct {
	ID           int        `json:"id"`
	Status       string     `json:"status"`
	Playbooks    []string   `json:"playbooks"`
	TargetNodes  []int      `json:"target_nodes"`
	TargetGroups []int      `json:"target_groups,omitempty"`
	StartedAt    Timestamp  `json:"started_at"`
	CompletedAt  *Timestamp `json:"completed_at"`
	Output       string     `json:"output"`
	ErrorOutput  string     `json:"error_output"`
}

// Finished reports whether the execution has a completion time.
func (e Execution) Finished() bool {
	return e.CompletedAt != nil && !e.CompletedAt.IsZero()
}

// Duration returns the elapsed run time, or zero when the execution has not finished.
func (e Execution) Duration() time.Duration {
	if !e.Finished() || e.StartedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt.Time)
}

// TargetType selects which kind of target the user is picking.
type TargetType string

const (
	TargetNodes  TargetType = "nodes"
	TargetGroups TargetType = "groups"
)

// Other returns the opposite target type.
func (t TargetType) Other() TargetType {
	if t == TargetGroups {
		return TargetNodes
	}
	return TargetGroups
}

// Valid reports whether t is one of the known target types.
func (t TargetType) Valid() bool {
	return t == TargetNodes || t == TargetGroups
}

// Target is a selected execution target: a node or a group, by id.
type Target struct {
	Type TargetType `json:"type"`
	ID   int        `json:"id"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Type, t.ID)
}

// NodeInput is the request body for creating or updating a node.
type NodeInput struct {
	Name        string `json:"name"`
	Hostname    string `json:"hostname"`
	Username    string `json:"username"`
	Port        int    `json:"port"`
	Description string `json:"description"`
}

// GroupInput is the request body for creating or updating a group.
type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	NodeIDs     []int  `json:"node_ids"`
}

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Playbooks []string `json:"playbooks"`
	NodeIDs   []int    `json:"node_ids"`
	GroupIDs  []int    `json:"group_ids"`
}

// PingRequest is the body of POST /ping.
type PingRequest struct {
	NodeIDs []int `json:"node_ids"`
}

// PingResult is the per-node outcome of a ping.
type PingResult struct {
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PingResults maps a node id, as a decimal string, to its result.
type PingResults map[string]PingResult

// MessageResponse is the acknowledgement returned by mutating endpoints.
// Create endpoints also return the new id.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id,omitempty"`
}

// ErrorResponse is the body of a non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PlaybookContent is the body of GET /playbooks/{name}.
type PlaybookContent struct {
	Content string `json:"content"`
}

// Push channel event names.
const (
	EventExecutionCompleted = "execution_completed"
	EventExecutionFailed    = "execution_failed"
)

// Event is a server-pushed notification.
type Event struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ExecutionEvent is the payload the server attaches to execution events.
type ExecutionEvent struct {
	ExecutionID int `json:"execution_id"`
}

// timestampLayouts are tried in order. Servers emit either RFC 3339 or naive
// isoformat() values with optional fractional seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Timestamp is a [time.Time] that decodes the ISO-8601 forms the portal API emits.
// Naive values are taken as UTC, which is how the server stores record times.
// A JSON null or empty string decodes to the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s using the accepted layouts. Naive values are taken as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	return ParseTimestampIn(s, time.UTC)
}

// ParseTimestampIn parses s using the accepted layouts. Naive values are taken in loc.
func ParseTimestampIn(s string, loc *time.Location) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	return t.unmarshal(data, time.UTC)
}

func (t *Timestamp) unmarshal(data []byte, loc *time.Location) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestampIn(s, loc)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// LocalTimestamp is a [Timestamp] whose naive values are wall-clock times of the server's
// local zone, read in [time.Local]. Playbook file times are written this way.
type LocalTimestamp struct {
	Timestamp
}

// NewLocalTimestamp wraps t.
func NewLocalTimestamp(t time.Time) LocalTimestamp {
	return LocalTimestamp{Timestamp: NewTimestamp(t)}
}

func (t *LocalTimestamp) UnmarshalJSON(data []byte) error {
	return t.Timestamp.unmarshal(data, time.Local)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
