package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhishek622/careerflow/internal/codec"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
	"go.uber.org/zap"
)

// ResumeStore mirrors the resumes table, newest first. At most one resume
// is the default.
type ResumeStore struct {
	gw     gateway.Gateway
	items  *collection[model.Resume]
	logger *zap.Logger
	now    func() time.Time
}

func NewResumeStore(gw gateway.Gateway, opts ...Option) *ResumeStore {
	o := buildOptions(opts)
	return &ResumeStore{
		gw:     gw,
		items:  newCollection(model.Resume.Clone),
		logger: o.logger,
		now:    o.now,
	}
}

func (s *ResumeStore) State() State[model.Resume] { return s.items.state() }
func (s *ResumeStore) List() []model.Resume       { return s.items.list() }
func (s *ResumeStore) ClearError()                { s.items.clearErr() }

func (s *ResumeStore) Get(id string) (model.Resume, bool) {
	return s.items.find(func(r model.Resume) bool { return r.ID == id })
}

// Default returns the resume flagged as default, if any.
func (s *ResumeStore) Default() (model.Resume, bool) {
	return s.items.find(func(r model.Resume) bool { return r.IsDefault })
}

func (s *ResumeStore) Fetch(ctx context.Context) error {
	s.items.setLoading()
	rows, err := s.gw.SelectAll(ctx, gateway.TableResumes, gateway.ByCreatedDesc)
	if err != nil {
		return s.fetchFailed(err)
	}
	resumes := make([]model.Resume, 0, len(rows))
	for _, row := range rows {
		r, err := codec.ResumeFromRow(row)
		if err != nil {
			return s.fetchFailed(err)
		}
		resumes = append(resumes, r)
	}
	s.items.replace(resumes)
	return nil
}

func (s *ResumeStore) fetchFailed(err error) error {
	err = fmt.Errorf("fetch resumes: %w", err)
	s.items.fail(err)
	s.logger.Sugar().Errorw("fetch failed", "table", gateway.TableResumes, "err", err)
	return err
}

// Add inserts draft and prepends the stored row. A draft flagged as default
// is stored plain and then promoted through SetDefault.
func (s *ResumeStore) Add(ctx context.Context, draft model.ResumeDraft) (model.Resume, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if err := validate.Struct(draft); err != nil {
		err = fmt.Errorf("add resume: %w: %v", ErrValidation, err)
		s.items.fail(err)
		return model.Resume{}, err
	}
	user, err := s.gw.CurrentUser(ctx)
	if err != nil {
		err = fmt.Errorf("add resume: %w", err)
		s.items.fail(err)
		return model.Resume{}, err
	}

	makeDefault := draft.IsDefault
	draft.IsDefault = false

	s.items.setLoading()
	row, err := s.gw.Insert(ctx, gateway.TableResumes, codec.ResumeInsertRow(draft, user.ID))
	if err != nil {
		return model.Resume{}, s.addFailed(err)
	}
	res, err := codec.ResumeFromRow(row)
	if err != nil {
		return model.Resume{}, s.addFailed(err)
	}
	s.items.mutate(func(items []model.Resume) []model.Resume {
		return append([]model.Resume{res}, items...)
	})
	s.items.done()

	if makeDefault {
		if err := s.SetDefault(ctx, res.ID); err != nil {
			return res, err
		}
		res, _ = s.Get(res.ID)
	}
	return res, nil
}

func (s *ResumeStore) addFailed(err error) error {
	err = fmt.Errorf("add resume: %w", err)
	s.items.fail(err)
	s.logger.Sugar().Errorw("insert failed", "table", gateway.TableResumes, "err", err)
	return err
}

// Update applies patch optimistically. Setting is_default through a patch
// goes through SetDefault so exclusivity holds.
func (s *ResumeStore) Update(ctx context.Context, id string, patch model.ResumePatch) error {
	patch.Name = trimPtr(patch.Name)
	if err := validate.Struct(patch); err != nil {
		err = fmt.Errorf("update resume %s: %w: %v", id, ErrValidation, err)
		s.items.fail(err)
		return err
	}
	if _, ok := s.Get(id); !ok {
		err := fmt.Errorf("update resume %s: %w", id, ErrNotFound)
		s.items.fail(err)
		return err
	}
	promote := patch.IsDefault != nil && *patch.IsDefault
	if promote {
		patch.IsDefault = nil
	}

	now := s.now()
	prev := s.items.mutate(func(items []model.Resume) []model.Resume {
		return mapItems(items, func(r model.Resume) model.Resume {
			if r.ID != id {
				return r
			}
			r = r.Clone()
			patch.Apply(&r)
			r.UpdatedAt = now
			return r
		})
	})
	if err := s.gw.UpdateByID(ctx, gateway.TableResumes, id, codec.ResumePatchRow(patch, now)); err != nil {
		err = fmt.Errorf("update resume %s: %w", id, err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("update rolled back", "table", gateway.TableResumes, "id", id, "err", err)
		return err
	}
	if promote {
		return s.SetDefault(ctx, id)
	}
	return nil
}

func (s *ResumeStore) Delete(ctx context.Context, id string) error {
	prev := s.items.mutate(func(items []model.Resume) []model.Resume {
		return filterItems(items, func(r model.Resume) bool { return r.ID != id })
	})
	if err := s.gw.DeleteByID(ctx, gateway.TableResumes, id); err != nil {
		err = fmt.Errorf("delete resume %s: %w", id, err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("delete rolled back", "table", gateway.TableResumes, "id", id, "err", err)
		return err
	}
	return nil
}

// SetDefault flags id as default and clears the flag on every other resume
// in one local pass. The remote side is a single atomic write.
func (s *ResumeStore) SetDefault(ctx context.Context, id string) error {
	if _, ok := s.Get(id); !ok {
		err := fmt.Errorf("set default resume %s: %w", id, ErrNotFound)
		s.items.fail(err)
		return err
	}
	now := s.now()
	prev := s.items.mutate(func(items []model.Resume) []model.Resume {
		return mapItems(items, func(r model.Resume) model.Resume {
			isTarget := r.ID == id
			if r.IsDefault == isTarget && !isTarget {
				return r
			}
			r = r.Clone()
			r.IsDefault = isTarget
			r.UpdatedAt = now
			return r
		})
	})
	if err := s.gw.SetDefaultResume(ctx, id); err != nil {
		err = fmt.Errorf("set default resume %s: %w", id, err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("set default rolled back", "table", gateway.TableResumes, "id", id, "err", err)
		return err
	}
	return nil
}
