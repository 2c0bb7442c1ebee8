// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// FakeAPI is an in-memory test double for the portal REST API.
//
// Set Errs[op] to make the named operation (e.g. "ListNodes") fail.
type FakeAPI struct {
	mu sync.Mutex

	Playbooks  []models.Playbook
	Contents   map[string]string
	Nodes      []models.Node
	Groups     []models.Group
	Executions []models.Execution

	// PingStatus is the status reported for every pinged node that exists.
	PingStatus string
	// PingExtra is merged into every ping response.
	PingExtra models.PingResults
	// ExecutionID is returned by Execute when set.
	ExecutionID int

	Errs     map[string]error
	Calls    []string
	Executed []models.ExecuteRequest
	Pinged   [][]int
	Created  []models.NodeInput
	Saved    []models.GroupInput

	nextID int
}

// NewFakeAPI returns an empty fake whose ids start at 100.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{Errs: map[string]error{}, Contents: map[string]string{}, PingStatus: models.NodeReachable, nextID: 100}
}

// Fail makes op return err until cleared with Fail(op, nil).
func (f *FakeAPI) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errs, op)
		return
	}
	f.Errs[op] = err
}

// CallCount returns how many times op was invoked.
func (f *FakeAPI) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *FakeAPI) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	return f.Errs[op]
}

func (f *FakeAPI) ListPlaybooks(ctx context.Context) ([]models.Playbook, error) {
	if err := f.enter("ListPlaybooks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Playbooks), nil
}

func (f *FakeAPI) PlaybookContent(ctx context.Context, name string) (string, error) {
	if err := f.enter("PlaybookContent"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.Contents[name]
	if !ok {
		return "", fmt.Errorf("%w: playbook %s", shared.ErrNotFound, name)
	}
	return content, nil
}

func (f *FakeAPI) ListNodes(ctx context.Context) ([]models.Node, error) {
	if err := f.enter("ListNodes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Nodes), nil
}

func (f *FakeAPI) CreateNode(ctx context.Context, in models.NodeInput) (int, error) {
	if err := f.enter("CreateNode"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.Created = append(f.Created, in)
	f.Nodes = append(f.Nodes, models.Node{
		ID: f.nextID, Name: in.Name, Hostname: in.Hostname, Username: in.Username,
		Port: in.Port, Description: in.Description, Status: models.NodeUnknown,
	})
	return f.nextID, nil
}

func (f *FakeAPI) UpdateNode(ctx context.Context, id int, in models.NodeInput) error {
	if err := f.enter("UpdateNode"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, in)
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			n := &f.Nodes[i]
			n.Name, n.Hostname, n.Username, n.Port, n.Description = in.Name, in.Hostname, in.Username, in.Port, in.Description
			return nil
		}
	}
	return fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
}

func (f *FakeAPI) DeleteNode(ctx context.Context, id int) error {
	if err := f.enter("DeleteNode"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.Nodes)
	f.Nodes = slices.DeleteFunc(f.Nodes, func(n models.Node) bool { return n.ID == id })
	if len(f.Nodes) == before {
		return fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
	}
	for i := range f.Groups {
		f.Groups[i].Nodes = slices.DeleteFunc(f.Groups[i].Nodes, func(r models.NodeRef) bool { return r.ID == id })
	}
	return nil
}

func (f *FakeAPI) ListGroups(ctx context.Context) ([]models.Group, error) {
	if err := f.enter("ListGroups"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Groups), nil
}

func (f *FakeAPI) CreateGroup(ctx context.Context, in models.GroupInput) (int, error) {
	if err := f.enter("CreateGroup"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.Saved = append(f.Saved, in)
	f.Groups = append(f.Groups, models.Group{ID: f.nextID, Name: in.Name, Description: in.Description, Nodes: f.refs(in.NodeIDs)})
	return f.nextID, nil
}

func (f *FakeAPI) UpdateGroup(ctx context.Context, id int, in models.GroupInput) error {
	if err := f.enter("UpdateGroup"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Saved = append(f.Saved, in)
	for i := range f.Groups {
		if f.Groups[i].ID == id {
			f.Groups[i].Name, f.Groups[i].Description, f.Groups[i].Nodes = in.Name, in.Description, f.refs(in.NodeIDs)
			return nil
		}
	}
	return fmt.Errorf("%w: group %d", shared.ErrNotFound, id)
}

func (f *FakeAPI) DeleteGroup(ctx context.Context, id int) error {
	if err := f.enter("DeleteGroup"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.Groups)
	f.Groups = slices.DeleteFunc(f.Groups, func(g models.Group) bool { return g.ID == id })
	if len(f.Groups) == before {
		return fmt.Errorf("%w: group %d", shared.ErrNotFound, id)
	}
	return nil
}

func (f *FakeAPI) refs(ids []int) []models.NodeRef {
	refs := []models.NodeRef{}
	for _, n := range f.Nodes {
		if slices.Contains(ids, n.ID) {
			refs = append(refs, models.NodeRef{ID: n.ID, Name: n.Name})
		}
	}
	return refs
}

// Execute records req and returns ExecutionID, or a fresh id when it is unset.
func (f *FakeAPI) Execute(ctx context.Context, req models.ExecuteRequest) (int, error) {
	if err := f.enter("Execute"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Executed = append(f.Executed, req)
	if f.ExecutionID != 0 {
		return f.ExecutionID, nil
	}
	f.nextID++
	return f.nextID, nil
}

func (f *FakeAPI) Ping(ctx context.Context, nodeIDs []int) (models.PingResults, error) {
	if err := f.enter("Ping"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pinged = append(f.Pinged, slices.Clone(nodeIDs))
	results := models.PingResults{}
	for _, n := range f.Nodes {
		if slices.Contains(nodeIDs, n.ID) {
			results[strconv.Itoa(n.ID)] = models.PingResult{Status: f.PingStatus}
		}
	}
	for id, r := range f.PingExtra {
		results[id] = r
	}
	return results, nil
}

func (f *FakeAPI) ListExecutions(ctx context.Context) ([]models.Execution, error) {
	if err := f.enter("ListExecutions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Executions), nil
}

func (f *FakeAPI) GetExecution(ctx context.Context, id int) (*models.Execution, error) {
	if err := f.enter("GetExecution"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.Executions {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: execution %d", shared.ErrNotFound, id)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// WritePlaybook creates a playbook file named name under dir.
func WritePlaybook(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := dir + string(os.PathSeparator) + name
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write playbook %s: %v", path, err)
	}
	return path
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return dir
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
