package gateway

import (
	"context"
	"fmt"

	"github.com/abhishek622/careerflow/internal/cache"
	"github.com/abhishek622/careerflow/pkg/model"
	"go.uber.org/zap"
)

// Cached serves SelectAll and the full tag join from redis and drops the
// user's cached table on every write to it. Cache errors never fail a call.
type Cached struct {
	next   Gateway
	cache  *cache.HashCache
	logger *zap.Logger
}

func NewCached(next Gateway, c *cache.HashCache, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, cache: c, logger: logger}
}

func (g *Cached) SelectAll(ctx context.Context, table Table, order Order) ([]Row, error) {
	userID, ok := UserFromContext(ctx)
	if !ok {
		return g.next.SelectAll(ctx, table, order)
	}
	field := fmt.Sprintf("%s:%t", order.Column, order.Ascending)
	return readThrough(ctx, g, table, []string{userID, string(table)}, field, func() ([]Row, error) {
		return g.next.SelectAll(ctx, table, order)
	})
}

// readThrough serves key/field from redis or loads and stores it. A value
// loaded while key was invalidated is returned but not stored.
func readThrough[T any](ctx context.Context, g *Cached, table Table, key []string, field string, load func() ([]T, error)) ([]T, error) {
	var rows []T
	hit, err := g.cache.Get(ctx, key, field, &rows)
	if err != nil {
		g.logger.Sugar().Warnw("cache read failed", "table", table, "err", err)
	}
	if hit {
		return rows, nil
	}

	gen, genErr := g.cache.Generation(ctx, key)
	rows, err = load()
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		g.logger.Sugar().Warnw("cache read failed", "table", table, "err", genErr)
		return rows, nil
	}
	stored, err := g.cache.SetAt(ctx, key, gen, field, rows)
	switch {
	case err != nil:
		g.logger.Sugar().Warnw("cache write failed", "table", table, "err", err)
	case !stored:
		g.logger.Sugar().Debugw("cache write skipped", "table", table, "generation", gen)
	}
	return rows, nil
}

func (g *Cached) Insert(ctx context.Context, table Table, row Row) (Row, error) {
	out, err := g.next.Insert(ctx, table, row)
	g.invalidate(ctx, table)
	return out, err
}

func (g *Cached) UpdateByID(ctx context.Context, table Table, id string, patch Row) error {
	err := g.next.UpdateByID(ctx, table, id, patch)
	g.invalidate(ctx, table)
	return err
}

func (g *Cached) UpdateWhereIDIn(ctx context.Context, table Table, ids []string, patch Row) error {
	err := g.next.UpdateWhereIDIn(ctx, table, ids, patch)
	g.invalidate(ctx, table)
	return err
}

func (g *Cached) DeleteByID(ctx context.Context, table Table, id string) error {
	err := g.next.DeleteByID(ctx, table, id)
	g.invalidate(ctx, deleteEffects(table)...)
	return err
}

func (g *Cached) DeleteWhereIDIn(ctx context.Context, table Table, ids []string) error {
	err := g.next.DeleteWhereIDIn(ctx, table, ids)
	g.invalidate(ctx, deleteEffects(table)...)
	return err
}

func (g *Cached) SelectApplicationTags(ctx context.Context, applicationID string) ([]JoinRow, error) {
	userID, ok := UserFromContext(ctx)
	if !ok || applicationID != "" {
		return g.next.SelectApplicationTags(ctx, applicationID)
	}
	key := []string{userID, string(TableApplicationTags)}
	return readThrough(ctx, g, TableApplicationTags, key, "all", func() ([]JoinRow, error) {
		return g.next.SelectApplicationTags(ctx, "")
	})
}

func (g *Cached) DeleteLink(ctx context.Context, applicationID, tagID string) error {
	err := g.next.DeleteLink(ctx, applicationID, tagID)
	g.invalidate(ctx, TableApplicationTags)
	return err
}

func (g *Cached) SetDefaultResume(ctx context.Context, id string) error {
	err := g.next.SetDefaultResume(ctx, id)
	g.invalidate(ctx, TableResumes)
	return err
}

func (g *Cached) CurrentUser(ctx context.Context) (model.User, error) {
	return g.next.CurrentUser(ctx)
}

// deleteEffects lists the tables a delete on table can change. Deleting a
// resume nulls applications.resume_id.
func deleteEffects(table Table) []Table {
	if table == TableResumes {
		return []Table{TableResumes, TableApplications}
	}
	return []Table{table}
}

// invalidate also runs after failed writes. Writes to either side of the
// join drop the cached join too.
func (g *Cached) invalidate(ctx context.Context, tables ...Table) {
	userID, ok := UserFromContext(ctx)
	if !ok {
		return
	}
	seen := make(map[Table]bool, len(tables)+1)
	var keys [][]string
	add := func(t Table) {
		if !seen[t] {
			seen[t] = true
			keys = append(keys, []string{userID, string(t)})
		}
	}
	for _, t := range tables {
		add(t)
		if t == TableApplications || t == TableTags {
			add(TableApplicationTags)
		}
	}
	if err := g.cache.Invalidate(context.WithoutCancel(ctx), keys...); err != nil {
		g.logger.Sugar().Warnw("cache invalidate failed", "tables", tables, "err", err)
	}
}
