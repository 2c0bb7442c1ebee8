package portal

import (
	"context"

	"github.com/desertthunder/portal/internal/models"
)

// OpenExecution fetches execution id and shows it in the detail view.
func (p *Portal) OpenExecution(id int) Task {
	return func(ctx context.Context) Completion {
		e, err := p.api.GetExecution(ctx, id)
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to load execution details", "id", id)
				return nil
			}
			p.playbook = nil
			p.detail = e
			return nil
		}
	}
}

// ExecutionDetail returns the execution shown in the detail view, if any.
func (p *Portal) ExecutionDetail() (*models.Execution, bool) {
	return p.detail, p.detail != nil
}

// CloseExecution hides the detail view.
func (p *Portal) CloseExecution() {
	p.detail = nil
}

// PlaybookView is an opened playbook file.
type PlaybookView struct {
	Name    string
	Content string
}

// OpenPlaybook fetches the named playbook's content for viewing.
func (p *Portal) OpenPlaybook(name string) Task {
	return func(ctx context.Context) Completion {
		content, err := p.api.PlaybookContent(ctx, name)
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to load playbook", "name", name)
				return nil
			}
			p.detail = nil
			p.playbook = &PlaybookView{Name: name, Content: content}
			return nil
		}
	}
}

// Playbook returns the opened playbook, if any.
func (p *Portal) Playbook() (PlaybookView, bool) {
	if p.playbook == nil {
		return PlaybookView{}, false
	}
	return *p.playbook, true
}

// ClosePlaybook hides the playbook view.
func (p *Portal) ClosePlaybook() {
	p.playbook = nil
}

// HandleEvent reacts to a push channel event. Completion and failure notifications show a
// toast and return a reload of the execution history; any other event is ignored and yields nil.
// The payload is not inspected.
func (p *Portal) HandleEvent(ev models.Event) Task {
	switch ev.Name {
	case models.EventExecutionCompleted:
		p.toasts.Push(LevelSuccess, "Execution completed")
	case models.EventExecutionFailed:
		p.toasts.Push(LevelError, "Execution failed")
	default:
		p.logger.Debug("ignoring event", "name", ev.Name)
		return nil
	}
	return p.Load(Executions)
}
