package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// API is the subset of the portal backend the controller drives.
type API interface {
	ListPlaybooks(ctx context.Context) ([]models.Playbook, error)
	PlaybookContent(ctx context.Context, name string) (string, error)
	ListNodes(ctx context.Context) ([]models.Node, error)
	CreateNode(ctx context.Context, in models.NodeInput) (int, error)
	UpdateNode(ctx context.Context, id int, in models.NodeInput) error
	DeleteNode(ctx context.Context, id int) error
	ListGroups(ctx context.Context) ([]models.Group, error)
	CreateGroup(ctx context.Context, in models.GroupInput) (int, error)
	UpdateGroup(ctx context.Context, id int, in models.GroupInput) error
	DeleteGroup(ctx context.Context, id int) error
	Execute(ctx context.Context, req models.ExecuteRequest) (int, error)
	Ping(ctx context.Context, nodeIDs []int) (models.PingResults, error)
	ListExecutions(ctx context.Context) ([]models.Execution, error)
	GetExecution(ctx context.Context, id int) (*models.Execution, error)
}

// Collection names one of the server-backed lists the controller caches.
type Collection int

const (
	Playbooks Collection = iota
	Nodes
	Groups
	Executions
)

// AllCollections lists every collection in load order.
var AllCollections = []Collection{Playbooks, Nodes, Groups, Executions}

func (c Collection) String() string {
	switch c {
	case Playbooks:
		return "playbooks"
	case Nodes:
		return "nodes"
	case Groups:
		return "groups"
	case Executions:
		return "executions"
	default:
		return fmt.Sprintf("collection(%d)", int(c))
	}
}

// Task performs network I/O away from the owner goroutine. It must not touch [Portal] state;
// everything it learns is captured in the returned [Completion].
type Task func(ctx context.Context) Completion

// Completion applies a task's result on the owner goroutine and returns the collections
// that should be reloaded as a consequence.
type Completion func(p *Portal) []Collection

// Portal is the controller: it owns every piece of client state and exposes explicit
// mutation methods. It is not safe for concurrent use; all methods must be called from
// a single owner goroutine, with network work expressed as [Task] values.
type Portal struct {
	api    API
	logger *log.Logger

	playbooks  []models.Playbook
	nodes      []models.Node
	groups     []models.Group
	executions []models.Execution
	loaded     map[Collection]bool

	selectedPlaybooks []string
	targetType        models.TargetType
	selectedTargets   []models.Target
	markedNodes       []int
	startedExecution  int

	nodeModal   *NodeModal
	groupModal  *GroupModal
	confirm     *Confirmation
	detail      *models.Execution
	playbook    *PlaybookView
	contextMenu *ContextMenu

	toasts *Toasts
	err    error
}

// Option configures a [Portal].
type Option func(*Portal)

// WithLogger sets the logger used for failed call sites.
func WithLogger(l *log.Logger) Option {
	return func(p *Portal) { p.logger = l }
}

// WithClock replaces the toast clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Portal) { p.toasts.now = now }
}

// New creates a controller bound to api. Target selection starts on nodes.
func New(api API, opts ...Option) *Portal {
	p := &Portal{
		api:        api,
		logger:     shared.NewLogger(nil),
		targetType: models.TargetNodes,
		loaded:     map[Collection]bool{},
		toasts:     NewToasts(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes task synchronously on the calling goroutine, applies its completion, and then
// runs any follow-up reloads the same way. It returns the first failure recorded while applying,
// which lets non-interactive callers turn toasts into exit codes.
func (p *Portal) Run(ctx context.Context, task Task) error {
	p.err = nil
	p.run(ctx, task)
	err := p.err
	p.err = nil
	return err
}

func (p *Portal) run(ctx context.Context, task Task) {
	if task == nil {
		return
	}
	for _, c := range p.Apply(task(ctx)) {
		p.run(ctx, p.Load(c))
	}
}

// Apply runs a completion on the owner goroutine and returns the reloads it requested.
func (p *Portal) Apply(c Completion) []Collection {
	if c == nil {
		return nil
	}
	return c(p)
}

// Err returns and clears the last failure recorded by a completion.
func (p *Portal) Err() error {
	err := p.err
	p.err = nil
	return err
}

// Toasts returns the notification stack.
func (p *Portal) Toasts() *Toasts {
	return p.toasts
}

// Loaded reports whether c has been fetched successfully at least once.
func (p *Portal) Loaded(c Collection) bool {
	return p.loaded[c]
}

// Playbooks returns the cached playbooks.
func (p *Portal) Playbooks() []models.Playbook { return p.playbooks }

// Nodes returns the cached nodes.
func (p *Portal) Nodes() []models.Node { return p.nodes }

// Groups returns the cached groups.
func (p *Portal) Groups() []models.Group { return p.groups }

// Executions returns the cached execution history.
func (p *Portal) Executions() []models.Execution { return p.executions }

// Node looks up a cached node by id.
func (p *Portal) Node(id int) (models.Node, bool) {
	for _, n := range p.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return models.Node{}, false
}

// Group looks up a cached group by id.
func (p *Portal) Group(id int) (models.Group, bool) {
	for _, g := range p.groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

// fail logs err, shows msg as an error toast, and records err for [Portal.Run].
func (p *Portal) fail(err error, msg string, kv ...any) {
	p.logger.Error(msg, append(kv, "error", err)...)
	p.toasts.Push(LevelError, msg)
	if p.err == nil {
		p.err = fmt.Errorf("%s: %w", msg, err)
	}
}

// warn shows msg as a warning toast and records it as an [shared.ErrNothingSelected] failure.
func (p *Portal) warn(msg string) {
	p.toasts.Push(LevelWarning, msg)
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s", shared.ErrNothingSelected, msg)
	}
}

func (p *Portal) succeed(msg string) {
	p.toasts.Push(LevelSuccess, msg)
}

type fetched struct {
	collection Collection
	playbooks  []models.Playbook
	nodes      []models.Node
	groups     []models.Group
	executions []models.Execution
	err        error
}

func (p *Portal) fetch(ctx context.Context, c Collection) fetched {
	f := fetched{collection: c}
	switch c {
	case Playbooks:
		f.playbooks, f.err = p.api.ListPlaybooks(ctx)
	case Nodes:
		f.nodes, f.err = p.api.ListNodes(ctx)
	case Groups:
		f.groups, f.err = p.api.ListGroups(ctx)
	case Executions:
		f.executions, f.err = p.api.ListExecutions(ctx)
	default:
		f.err = fmt.Errorf("%w: %s", shared.ErrInvalidArgument, c)
	}
	return f
}

func (p *Portal) applyFetched(f fetched) {
	if f.err != nil {
		p.fail(f.err, "Failed to load "+f.collection.String(), "collection", f.collection.String())
		return
	}

	switch f.collection {
	case Playbooks:
		p.playbooks = orEmpty(f.playbooks)
	case Nodes:
		p.nodes = orEmpty(f.nodes)
	case Groups:
		p.groups = orEmpty(f.groups)
	case Executions:
		p.executions = orEmpty(f.executions)
	}
	p.loaded[f.collection] = true
	p.pruneSelections(f.collection)
}

// Load returns a task that fetches c and, on success, replaces the cached collection.
// On failure the previous collection is kept and "Failed to load <collection>" is shown.
func (p *Portal) Load(c Collection) Task {
	return func(ctx context.Context) Completion {
		f := p.fetch(ctx, c)
		return func(p *Portal) []Collection {
			p.applyFetched(f)
			return nil
		}
	}
}

// LoadInitialData fetches all four collections concurrently and applies them together.
func (p *Portal) LoadInitialData() Task {
	return func(ctx context.Context) Completion {
		results := make([]fetched, len(AllCollections))

		var wg sync.WaitGroup
		for i, c := range AllCollections {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = p.fetch(ctx, c)
			}()
		}
		wg.Wait()

		return func(p *Portal) []Collection {
			for _, f := range results {
				p.applyFetched(f)
			}
			return nil
		}
	}
}

// Refresh reloads the given collections one after another in a single task.
func (p *Portal) Refresh(collections ...Collection) Task {
	return func(ctx context.Context) Completion {
		results := make([]fetched, 0, len(collections))
		for _, c := range collections {
			results = append(results, p.fetch(ctx, c))
		}
		return func(p *Portal) []Collection {
			for _, f := range results {
				p.applyFetched(f)
			}
			return nil
		}
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
