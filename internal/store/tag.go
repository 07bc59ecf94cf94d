package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/abhishek622/careerflow/internal/codec"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
	"go.uber.org/zap"
)

// LinkObserver is told about tag changes that other stores cache.
type LinkObserver interface {
	TagLinked(applicationID string, tag model.Tag)
	TagUnlinked(applicationID, tagID string)
	TagChanged(tag model.Tag)
	TagRemoved(tagID string)
}

// TagStore mirrors the tags table sorted by name and manages the
// application_tags links.
type TagStore struct {
	gw       gateway.Gateway
	items    *collection[model.Tag]
	observer LinkObserver
	logger   *zap.Logger
}

func NewTagStore(gw gateway.Gateway, opts ...Option) *TagStore {
	o := buildOptions(opts)
	return &TagStore{
		gw:       gw,
		items:    newCollection(func(t model.Tag) model.Tag { return t }),
		observer: o.observer,
		logger:   o.logger,
	}
}

func (s *TagStore) State() State[model.Tag] { return s.items.state() }
func (s *TagStore) List() []model.Tag       { return s.items.list() }
func (s *TagStore) ClearError()             { s.items.clearErr() }

func (s *TagStore) Get(id string) (model.Tag, bool) {
	return s.items.find(func(t model.Tag) bool { return t.ID == id })
}

func sortByName(tags []model.Tag) []model.Tag {
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags
}

func (s *TagStore) Fetch(ctx context.Context) error {
	s.items.setLoading()
	rows, err := s.gw.SelectAll(ctx, gateway.TableTags, gateway.ByNameAsc)
	if err != nil {
		return s.fetchFailed(err)
	}
	tags := make([]model.Tag, 0, len(rows))
	for _, row := range rows {
		t, err := codec.TagFromRow(row)
		if err != nil {
			return s.fetchFailed(err)
		}
		tags = append(tags, t)
	}
	s.items.replace(tags)
	return nil
}

func (s *TagStore) fetchFailed(err error) error {
	err = fmt.Errorf("fetch tags: %w", err)
	s.items.fail(err)
	s.logger.Sugar().Errorw("fetch failed", "table", gateway.TableTags, "err", err)
	return err
}

func checkColor(c string) error {
	if !model.IsTagColor(c) {
		return fmt.Errorf("%w: color %q is not in the palette", ErrValidation, c)
	}
	return nil
}

// Add inserts the tag and returns it as stored.
func (s *TagStore) Add(ctx context.Context, draft model.TagDraft) (model.Tag, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if err := validate.Struct(draft); err != nil {
		err = fmt.Errorf("add tag: %w: %v", ErrValidation, err)
		s.items.fail(err)
		return model.Tag{}, err
	}
	if err := checkColor(draft.Color); err != nil {
		err = fmt.Errorf("add tag: %w", err)
		s.items.fail(err)
		return model.Tag{}, err
	}
	user, err := s.gw.CurrentUser(ctx)
	if err != nil {
		err = fmt.Errorf("add tag: %w", err)
		s.items.fail(err)
		return model.Tag{}, err
	}

	s.items.setLoading()
	row, err := s.gw.Insert(ctx, gateway.TableTags, codec.TagInsertRow(draft, user.ID))
	if err == nil {
		var tag model.Tag
		if tag, err = codec.TagFromRow(row); err == nil {
			s.items.mutate(func(items []model.Tag) []model.Tag {
				return sortByName(append(append([]model.Tag(nil), items...), tag))
			})
			s.items.done()
			return tag, nil
		}
	}
	err = fmt.Errorf("add tag: %w", err)
	s.items.fail(err)
	s.logger.Sugar().Errorw("insert failed", "table", gateway.TableTags, "err", err)
	return model.Tag{}, err
}

func (s *TagStore) Update(ctx context.Context, id string, patch model.TagPatch) error {
	patch.Name = trimPtr(patch.Name)
	if err := validate.Struct(patch); err != nil {
		err = fmt.Errorf("update tag %s: %w: %v", id, ErrValidation, err)
		s.items.fail(err)
		return err
	}
	if patch.Color != nil {
		if err := checkColor(*patch.Color); err != nil {
			err = fmt.Errorf("update tag %s: %w", id, err)
			s.items.fail(err)
			return err
		}
	}
	if _, ok := s.Get(id); !ok {
		err := fmt.Errorf("update tag %s: %w", id, ErrNotFound)
		s.items.fail(err)
		return err
	}

	prev := s.items.mutate(func(items []model.Tag) []model.Tag {
		return sortByName(mapItems(items, func(t model.Tag) model.Tag {
			if t.ID == id {
				patch.Apply(&t)
			}
			return t
		}))
	})
	if err := s.gw.UpdateByID(ctx, gateway.TableTags, id, codec.TagPatchRow(patch)); err != nil {
		err = fmt.Errorf("update tag %s: %w", id, err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("update rolled back", "table", gateway.TableTags, "id", id, "err", err)
		return err
	}
	if s.observer != nil {
		if t, ok := s.Get(id); ok {
			s.observer.TagChanged(t)
		}
	}
	return nil
}

func (s *TagStore) Delete(ctx context.Context, id string) error {
	prev := s.items.mutate(func(items []model.Tag) []model.Tag {
		return filterItems(items, func(t model.Tag) bool { return t.ID != id })
	})
	if err := s.gw.DeleteByID(ctx, gateway.TableTags, id); err != nil {
		err = fmt.Errorf("delete tag %s: %w", id, err)
		s.items.rollback(prev, err)
		s.logger.Sugar().Warnw("delete rolled back", "table", gateway.TableTags, "id", id, "err", err)
		return err
	}
	if s.observer != nil {
		s.observer.TagRemoved(id)
	}
	return nil
}

// AddToApplication links tagID to applicationID. Linking a pair that is
// already linked succeeds without a second link.
func (s *TagStore) AddToApplication(ctx context.Context, applicationID, tagID string) error {
	_, err := s.gw.Insert(ctx, gateway.TableApplicationTags, codec.LinkRow(applicationID, tagID))
	if err != nil && !gateway.IsDuplicate(err) {
		err = fmt.Errorf("link tag %s to %s: %w", tagID, applicationID, err)
		s.items.fail(err)
		s.logger.Sugar().Warnw("link failed", "application_id", applicationID, "tag_id", tagID, "err", err)
		return err
	}
	if s.observer != nil {
		if t, ok := s.Get(tagID); ok {
			s.observer.TagLinked(applicationID, t)
		}
	}
	return nil
}

func (s *TagStore) RemoveFromApplication(ctx context.Context, applicationID, tagID string) error {
	if err := s.gw.DeleteLink(ctx, applicationID, tagID); err != nil {
		err = fmt.Errorf("unlink tag %s from %s: %w", tagID, applicationID, err)
		s.items.fail(err)
		s.logger.Sugar().Warnw("unlink failed", "application_id", applicationID, "tag_id", tagID, "err", err)
		return err
	}
	if s.observer != nil {
		s.observer.TagUnlinked(applicationID, tagID)
	}
	return nil
}

// ForApplication reads the tags linked to one application from the gateway.
func (s *TagStore) ForApplication(ctx context.Context, applicationID string) ([]model.Tag, error) {
	joins, err := s.gw.SelectApplicationTags(ctx, applicationID)
	if err != nil {
		err = fmt.Errorf("tags for %s: %w", applicationID, err)
		s.items.fail(err)
		return nil, err
	}
	tags := make([]model.Tag, 0, len(joins))
	for _, j := range joins {
		link, err := codec.LinkFromJoin(j)
		if err != nil {
			err = fmt.Errorf("tags for %s: %w", applicationID, err)
			s.items.fail(err)
			return nil, err
		}
		tags = append(tags, link.Tag)
	}
	return sortByName(tags), nil
}
