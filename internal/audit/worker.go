package audit

import "context"

// Worker consumes audit events from a channel and persists them, keeping the
// trail off the request path.
type Worker struct {
	store Store
	inbox <-chan Event
}

// NewWorker constructs a Worker draining inbox into store.
func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run drains the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
