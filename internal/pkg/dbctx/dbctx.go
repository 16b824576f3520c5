package dbctx

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction and the
// post-commit hook list of the enclosing transaction boundary.
type Context struct {
	Ctx   context.Context
	Tx    *gorm.DB
	hooks *HookList
}

// HookList collects callbacks that must run only after the enclosing write
// transaction has committed.
type HookList struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// WithHooks builds a transactional Context whose AfterCommit callbacks are
// collected into the returned HookList.
func WithHooks(ctx context.Context, tx *gorm.DB) (Context, *HookList) {
	h := &HookList{}
	return Context{Ctx: ctx, Tx: tx, hooks: h}, h
}

// AfterCommit registers fn to run once the enclosing transaction commits.
// Outside a transaction boundary (no hook list) fn runs immediately, since
// there is no commit to wait for.
func (c Context) AfterCommit(fn func(context.Context)) {
	if fn == nil {
		return
	}
	if c.hooks == nil {
		fn(c.Ctx)
		return
	}
	c.hooks.mu.Lock()
	c.hooks.fns = append(c.hooks.fns, fn)
	c.hooks.mu.Unlock()
}

// Fire runs the collected callbacks in registration order and clears the list.
func (h *HookList) Fire(ctx context.Context) {
	if h == nil {
		return
	}
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// Len reports how many callbacks are pending.
func (h *HookList) Len() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fns)
}
