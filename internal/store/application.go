package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhishek622/careerflow/internal/codec"
	"github.com/abhishek622/careerflow/internal/filter"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/internal/pipeline"
	"github.com/abhishek622/careerflow/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ApplicationStore mirrors the applications table, newest first.
type ApplicationStore struct {
	gw        gateway.Gateway
	items     *collection[model.Application]
	selection *filter.Selection
	rules     pipeline.Rules
	logger    *zap.Logger
	now       func() time.Time
	currency  string
}

func NewApplicationStore(gw gateway.Gateway, rules pipeline.Rules, opts ...Option) *ApplicationStore {
	o := buildOptions(opts)
	sel := o.selection
	if sel == nil {
		sel = filter.NewSelection()
	}
	return &ApplicationStore{
		gw:        gw,
		items:     newCollection(model.Application.Clone),
		selection: sel,
		rules:     rules,
		logger:    o.logger,
		now:       o.now,
		currency:  o.currency,
	}
}

func (s *ApplicationStore) State() State[model.Application] { return s.items.state() }
func (s *ApplicationStore) List() []model.Application       { return s.items.list() }
func (s *ApplicationStore) Selection() *filter.Selection    { return s.selection }

func (s *ApplicationStore) Get(id string) (model.Application, bool) {
	return s.items.find(func(a model.Application) bool { return a.ID == id })
}

func (s *ApplicationStore) ByStatus(status model.Status) []model.Application {
	return filter.Apply(s.List(), filter.Filters{Statuses: []model.Status{status}})
}

func (s *ApplicationStore) Filtered(f filter.Filters) []model.Application {
	return filter.Apply(s.List(), f)
}

// Fetch reloads every application and attaches its tags. On failure the
// current list is kept.
func (s *ApplicationStore) Fetch(ctx context.Context) error {
	s.items.setLoading()

	var (
		rows  []gateway.Row
		links []gateway.JoinRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.gw.SelectAll(gctx, gateway.TableApplications, gateway.ByCreatedDesc)
		return err
	})
	g.Go(func() error {
		var err error
		links, err = s.gw.SelectApplicationTags(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return s.fetchFailed(err)
	}

	tagsByApp := make(map[string][]model.Tag)
	for _, j := range links {
		link, err := codec.LinkFromJoin(j)
		if err != nil {
			return s.fetchFailed(err)
		}
		tagsByApp[link.ApplicationID] = append(tagsByApp[link.ApplicationID], link.Tag)
	}

	apps := make([]model.Application, 0, len(rows))
	for _, row := range rows {
		a, err := codec.ApplicationFromRow(row)
		if err != nil {
			return s.fetchFailed(err)
		}
		a.Tags = tagsByApp[a.ID]
		apps = append(apps, a)
	}
	s.items.replace(apps)
	return nil
}

func (s *ApplicationStore) fetchFailed(err error) error {
	err = fmt.Errorf("fetch applications: %w", err)
	s.items.fail(err)
	s.logger.Sugar().Errorw("fetch failed", "table", gateway.TableApplications, "err", err)
	return err
}

// Add inserts draft and prepends the stored row. Nothing is added locally
// before the gateway has assigned an id.
func (s *ApplicationStore) Add(ctx context.Context, draft model.ApplicationDraft) (model.Application, error) {
	draft.CompanyName = strings.TrimSpace(draft.CompanyName)
	draft.JobTitle = strings.TrimSpace(draft.JobTitle)
	if draft.Status == "" {
		draft.Status = model.StatusWishlist
	}
	if draft.Priority == "" {
		draft.Priority = model.PriorityMedium
	}
	if draft.JobType == "" {
		draft.JobType = model.JobTypeFullTime
	}
	if draft.Currency == "" {
		draft.Currency = s.currency
	}
	if err := validate.Struct(draft); err != nil {
		err = fmt.Errorf("add application: %w: %v", ErrValidation, err)
		s.items.fail(err)
		return model.Application{}, err
	}

	user, err := s.gw.CurrentUser(ctx)
	if err != nil {
		err = fmt.Errorf("add application: %w", err)
		s.items.fail(err)
		return model.Application{}, err
	}

	s.items.setLoading()
	row, err := s.gw.Insert(ctx, gateway.TableApplications, codec.ApplicationInsertRow(draft, user.ID))
	if err == nil {
		var app model.Application
		if app, err = codec.ApplicationFromRow(row); err == nil {
			s.items.mutate(func(items []model.Application) []model.Application {
				return append([]model.Application{app}, items...)
			})
			s.items.done()
			return app.Clone(), nil
		}
	}
	err = fmt.Errorf("add application: %w", err)
	s.items.fail(err)
	s.logger.Sugar().Errorw("insert failed", "table", gateway.TableApplications, "err", err)
	return model.Application{}, err
}

// Update merges patch into the application right away, then writes only the
// patched columns. A failed write restores the whole list as it was.
func (s *ApplicationStore) Update(ctx context.Context, id string, patch model.ApplicationPatch) error {
	if err := checkApplicationPatch(&patch); err != nil {
		err = fmt.Errorf("update application %s: %w", id, err)
		s.items.fail(err)
		return err
	}
	if _, ok := s.Get(id); !ok {
		err := fmt.Errorf("update application %s: %w", id, ErrNotFound)
		s.items.fail(err)
		return err
	}
	return s.apply(ctx, id, patch)
}

// checkApplicationPatch trims the text fields of patch and rejects values an
// insert would not accept.
func checkApplicationPatch(patch *model.ApplicationPatch) error {
	patch.CompanyName = trimPtr(patch.CompanyName)
	patch.JobTitle = trimPtr(patch.JobTitle)
	patch.Currency = trimPtr(patch.Currency)
	if err := validate.Struct(patch); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for _, salary := range []model.Nullable[int64]{patch.SalaryMin, patch.SalaryMax} {
		if v, ok := salary.Get(); ok && v <= 0 {
			return fmt.Errorf("%w: salary must be positive, got %d", ErrValidation, v)
		}
	}
	return nil
}

// Move changes the status of one application through the pipeline rules.
// Moving onto the current status does nothing.
func (s *ApplicationStore) Move(ctx context.Context, id string, status model.Status) error {
	app, ok := s.Get(id)
	if !ok {
		err := fmt.Errorf("move application %s: %w", id, ErrNotFound)
		s.items.fail(err)
		return err
	}
	if app.Status == status {
		return nil
	}
	patch, err := s.rules.Transition(app, status, s.now())
	if err != nil {
		err = fmt.Errorf("move application %s: %w: %v", id, ErrValidation, err)
		s.items.fail(err)
		return err
	}
	return s.apply(ctx, id, patch)
}

func (s *ApplicationStore) apply(ctx context.Context, id string, patch model.ApplicationPatch) error {
	now := s.now()
	prev := s.items.mutate(func(items []model.Application) []model.Application {
		return mapItems(items, func(a model.Application) model.Application {
			if a.ID != id {
				return a
			}
			a = a.Clone()
			patch.Apply(&a)
			a.UpdatedAt = now
			return a
		})
	})

	if err := s.gw.UpdateByID(ctx, gateway.TableApplications, id, codec.ApplicationPatchRow(patch, now)); err != nil {
		err = fmt.Errorf("update application %s: %w", id, err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("update rolled back", "table", gateway.TableApplications, "id", id, "err", err)
		return err
	}
	return nil
}

// Delete removes the application and its selection entry right away. The
// selection entry stays removed even if the delete is rolled back.
func (s *ApplicationStore) Delete(ctx context.Context, id string) error {
	prev := s.items.mutate(func(items []model.Application) []model.Application {
		return filterItems(items, func(a model.Application) bool { return a.ID != id })
	})
	s.selection.Remove(id)

	if err := s.gw.DeleteByID(ctx, gateway.TableApplications, id); err != nil {
		err = fmt.Errorf("delete application %s: %w", id, err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("delete rolled back", "table", gateway.TableApplications, "id", id, "err", err)
		return err
	}
	return nil
}

// BulkUpdateStatus sets status on every id and clears the selection in one
// step, then issues a single set-predicate write. A failure rolls the whole
// batch back. No appliedDate is stamped here.
func (s *ApplicationStore) BulkUpdateStatus(ctx context.Context, ids []string, status model.Status) error {
	if len(ids) == 0 {
		return nil
	}
	if !pipeline.Valid(status) {
		err := fmt.Errorf("bulk update status: %w: %w %q", ErrValidation, pipeline.ErrUnknownStatus, status)
		s.items.fail(err)
		return err
	}

	now := s.now()
	set := idSet(ids)
	prev := s.items.mutate(func(items []model.Application) []model.Application {
		return mapItems(items, func(a model.Application) model.Application {
			if _, ok := set[a.ID]; !ok {
				return a
			}
			a = a.Clone()
			a.Status = status
			a.UpdatedAt = now
			return a
		})
	})
	s.selection.Clear()

	patch := codec.ApplicationPatchRow(model.ApplicationPatch{Status: &status}, now)
	if err := s.gw.UpdateWhereIDIn(ctx, gateway.TableApplications, ids, patch); err != nil {
		err = fmt.Errorf("bulk update status: %w", err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("bulk update rolled back", "table", gateway.TableApplications, "count", len(ids), "err", err)
		return err
	}
	return nil
}

// BulkDelete removes every id locally and from the selection, then issues
// a single set-predicate delete. A failure rolls the whole batch back.
func (s *ApplicationStore) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	set := idSet(ids)
	prev := s.items.mutate(func(items []model.Application) []model.Application {
		return filterItems(items, func(a model.Application) bool {
			_, gone := set[a.ID]
			return !gone
		})
	})
	s.selection.Remove(ids...)

	if err := s.gw.DeleteWhereIDIn(ctx, gateway.TableApplications, ids); err != nil {
		err = fmt.Errorf("bulk delete: %w", err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("bulk delete rolled back", "table", gateway.TableApplications, "count", len(ids), "err", err)
		return err
	}
	return nil
}

func (s *ApplicationStore) ClearError() { s.items.clearErr() }

// TagLinked, TagUnlinked, TagChanged and TagRemoved keep the tags carried by
// each application in line with confirmed writes made through TagStore.

func (s *ApplicationStore) TagLinked(applicationID string, tag model.Tag) {
	s.items.mutate(func(items []model.Application) []model.Application {
		return mapItems(items, func(a model.Application) model.Application {
			if a.ID != applicationID || a.HasTag(tag.ID) {
				return a
			}
			a = a.Clone()
			a.Tags = append(a.Tags, tag)
			return a
		})
	})
}

func (s *ApplicationStore) TagUnlinked(applicationID, tagID string) {
	s.items.mutate(func(items []model.Application) []model.Application {
		return mapItems(items, func(a model.Application) model.Application {
			if a.ID != applicationID || !a.HasTag(tagID) {
				return a
			}
			return withoutTag(a, tagID)
		})
	})
}

func (s *ApplicationStore) TagChanged(tag model.Tag) {
	s.items.mutate(func(items []model.Application) []model.Application {
		return mapItems(items, func(a model.Application) model.Application {
			if !a.HasTag(tag.ID) {
				return a
			}
			a = a.Clone()
			for i := range a.Tags {
				if a.Tags[i].ID == tag.ID {
					a.Tags[i] = tag
				}
			}
			return a
		})
	})
}

func (s *ApplicationStore) TagRemoved(tagID string) {
	s.items.mutate(func(items []model.Application) []model.Application {
		return mapItems(items, func(a model.Application) model.Application {
			if !a.HasTag(tagID) {
				return a
			}
			return withoutTag(a, tagID)
		})
	})
}

func withoutTag(a model.Application, tagID string) model.Application {
	a = a.Clone()
	kept := make([]model.Tag, 0, len(a.Tags))
	for _, t := range a.Tags {
		if t.ID != tagID {
			kept = append(kept, t)
		}
	}
	a.Tags = kept
	return a
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
