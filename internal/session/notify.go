// Package session holds the client-side state engines: model selection,
// the collection registry, the conversation ledger, and the upload
// orchestrator. Each engine owns its state exclusively, exposes snapshot
// accessors, and emits change notifications for the UI coordinator to
// re-render on. Cross-engine effects only happen through snapshot reads
// at call time.
package session

import "sync"

// notifier fans out change notifications to subscribers. Callbacks run on
// the goroutine that caused the change and must not call back into the
// emitting engine.
type notifier struct {
	mu   sync.Mutex
	subs []func()
}

func (n *notifier) subscribe(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

func (n *notifier) emit() {
	n.mu.Lock()
	subs := make([]func(), len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
