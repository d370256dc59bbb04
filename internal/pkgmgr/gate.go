package pkgmgr

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
)

// RefreshGate rate-limits the shared package-index refresh. A single gate is
// shared by every planner in the process; the mutex spans the whole
// read-check-act sequence so concurrent callers serialize on the decision,
// not merely on the timestamp write.
type RefreshGate struct {
	mu       sync.Mutex
	gw       Gateway
	log      *zap.Logger
	interval time.Duration
	last     time.Time

	now func() time.Time // injectable clock for tests
}

// NewRefreshGate creates the process-wide refresh gate.
func NewRefreshGate(cfg *config.Config, gw Gateway, log *zap.Logger) *RefreshGate {
	return &RefreshGate{
		gw:       gw,
		log:      log,
		interval: time.Duration(cfg.Apt.RefreshInterval) * time.Second,
		now:      time.Now,
	}
}

// EnsureRefreshed makes sure the package index is fresh. Within the interval
// it returns true without touching the package manager, unless force is set.
// The timestamp is recorded even when the refresh fails, so a broken mirror
// is not hammered on every planning call.
func (g *RefreshGate) EnsureRefreshed(ctx context.Context, force bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !force && !g.last.IsZero() {
		if elapsed := now.Sub(g.last); elapsed < g.interval {
			g.log.Debug("Package index still fresh, skipping refresh",
				zap.Duration("age", elapsed))
			return true
		}
	}

	res := g.gw.Refresh(ctx)
	g.last = now
	if !res.OK {
		g.log.Warn("Failed to refresh package index", zap.String("stderr", res.Stderr))
		return false
	}
	g.log.Debug("Package index refreshed")
	return true
}
