package periodmap

import (
	"sync"

	"github.com/agentstation/periodmap/pkg/catalogs"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// NewPeriodsHook is called with the links of one category whose periods were
// not known before a NewSince call.
type NewPeriodsHook func(category catalogs.Category, links []catalogs.DiscoveredLink)

// Hooks provides event callback registration.
type Hooks interface {
	// OnNewPeriods registers a callback for newly discovered periods
	OnNewPeriods(fn NewPeriodsHook)
}

// OnNewPeriods registers a callback for newly discovered periods.
func (c *client) OnNewPeriods(fn NewPeriodsHook) {
	c.hooks.OnNewPeriods(fn)
}

// hooks manages event callbacks for new periods.
type hooks struct {
	mu           sync.RWMutex
	onNewPeriods []NewPeriodsHook
}

// newHooks creates a new hooks instance.
func newHooks() *hooks {
	return &hooks{}
}

// OnNewPeriods registers a callback for newly discovered periods.
func (h *hooks) OnNewPeriods(fn NewPeriodsHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onNewPeriods = append(h.onNewPeriods, fn)
}

// triggerNewPeriods calls every hook once per category present in fresh, in
// category order.
func (h *hooks) triggerNewPeriods(fresh *catalogs.Catalog) {
	if fresh.IsEmpty() {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, category := range fresh.Categories() {
		links := fresh.Filter(category).Links()
		for _, hook := range h.onNewPeriods {
			hook(category, links)
		}
	}
}
