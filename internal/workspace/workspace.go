// Package workspace builds and caches the stores of each signed-in user.
package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhishek622/careerflow/internal/calendar"
	"github.com/abhishek622/careerflow/internal/filter"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/internal/pipeline"
	"github.com/abhishek622/careerflow/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Workspace is the full client state of one user.
type Workspace struct {
	UserID       string
	Applications *store.ApplicationStore
	Resumes      *store.ResumeStore
	Tags         *store.TagStore
	Selection    *filter.Selection
	Calendar     *calendar.Store
}

// Load fetches every store concurrently. Each store keeps its own error and
// a failing store does not cancel the others.
func (w *Workspace) Load(ctx context.Context) error {
	ctx = gateway.WithUser(ctx, w.UserID)
	var g errgroup.Group
	g.Go(func() error { return w.Applications.Fetch(ctx) })
	g.Go(func() error { return w.Resumes.Fetch(ctx) })
	g.Go(func() error { return w.Tags.Fetch(ctx) })
	g.Go(func() error { return w.Calendar.Load(ctx) })
	return g.Wait()
}

type Config struct {
	Gateway  gateway.Gateway
	Calendar *calendar.DB
	Rules    pipeline.Rules
	Currency string
	Logger   *zap.Logger
}

// Registry hands out one Workspace per user, built on first use.
type Registry struct {
	cfg Config

	mu     sync.RWMutex
	spaces map[string]*Workspace
	group  singleflight.Group
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registry{cfg: cfg, spaces: map[string]*Workspace{}}
}

// Get returns the user's workspace, building and loading it on first use.
// Concurrent first calls for one user share a single load.
func (r *Registry) Get(ctx context.Context, userID string) (*Workspace, error) {
	if ws, ok := r.lookup(userID); ok {
		return ws, nil
	}
	v, err, _ := r.group.Do(userID, func() (any, error) {
		if ws, ok := r.lookup(userID); ok {
			return ws, nil
		}
		ws := r.build(userID)
		if err := ws.Load(ctx); err != nil {
			return nil, fmt.Errorf("load workspace %s: %w", userID, err)
		}
		r.mu.Lock()
		r.spaces[userID] = ws
		r.mu.Unlock()
		r.cfg.Logger.Sugar().Infow("workspace loaded", "user_id", userID,
			"applications", len(ws.Applications.List()),
			"resumes", len(ws.Resumes.List()),
			"tags", len(ws.Tags.List()))
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

// Evict drops the cached workspace so the next Get reloads it.
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spaces, userID)
}

func (r *Registry) lookup(userID string) (*Workspace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.spaces[userID]
	return ws, ok
}

func (r *Registry) build(userID string) *Workspace {
	logger := r.cfg.Logger.With(zap.String("user_id", userID))
	sel := filter.NewSelection()
	common := []store.Option{store.WithLogger(logger)}
	if r.cfg.Currency != "" {
		common = append(common, store.WithDefaultCurrency(r.cfg.Currency))
	}

	apps := store.NewApplicationStore(r.cfg.Gateway, r.cfg.Rules, append(common, store.WithSelection(sel))...)
	return &Workspace{
		UserID:       userID,
		Applications: apps,
		Resumes:      store.NewResumeStore(r.cfg.Gateway, common...),
		Tags:         store.NewTagStore(r.cfg.Gateway, append(common, store.WithLinkObserver(apps))...),
		Selection:    sel,
		Calendar:     r.cfg.Calendar.Store(userID, logger),
	}
}
