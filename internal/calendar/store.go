package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound   = errors.New("event not found")
	ErrValidation = errors.New("invalid event")
	ErrExists     = errors.New("event id already used")
)

// UpcomingWindow is how far ahead Upcoming looks.
const UpcomingWindow = 7 * 24 * time.Hour

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store is one user's event list. Every write reaches SQLite before the
// in-memory list changes.
type Store struct {
	db     *DB
	userID string
	logger *zap.Logger

	mu     sync.RWMutex
	events []model.CalendarEvent
}

// Store returns the event list of userID. Call Load before reading it.
func (db *DB) Store(userID string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, userID: userID, logger: logger}
}

const selectEvents = `SELECT id, user_id, application_id, company_name, title, type, date, time, notes, completed
	FROM calendar_events WHERE user_id = ? ORDER BY position`

func (s *Store) Load(ctx context.Context) error {
	rows, err := s.db.sql.QueryContext(ctx, selectEvents, s.userID)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
	return nil
}

func scanEvent(rows *sql.Rows) (model.CalendarEvent, error) {
	var (
		e                   model.CalendarEvent
		appID, clock, notes sql.NullString
		date, typ           string
	)
	if err := rows.Scan(&e.ID, &e.UserID, &appID, &e.CompanyName, &e.Title, &typ, &date, &clock, &notes, &e.Completed); err != nil {
		return e, err
	}
	d, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return e, fmt.Errorf("event %s date: %w", e.ID, err)
	}
	e.Type = model.EventType(typ)
	e.Date = d
	e.ApplicationID = nullable(appID)
	e.Time = nullable(clock)
	e.Notes = nullable(notes)
	return e, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func (s *Store) List() []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.events)
}

func (s *Store) Get(id string) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return cloneEvent(s.events[i]), true
	}
	return model.CalendarEvent{}, false
}

// Add stores the event under the caller's id, or a new uuid when it has none.
func (s *Store) Add(ctx context.Context, d model.EventDraft) (model.CalendarEvent, error) {
	d.CompanyName = strings.TrimSpace(d.CompanyName)
	d.Title = strings.TrimSpace(d.Title)
	if err := validate.Struct(d); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("add event: %w: %v", ErrValidation, err)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	e := model.CalendarEvent{
		ID:            d.ID,
		UserID:        s.userID,
		ApplicationID: d.ApplicationID,
		CompanyName:   d.CompanyName,
		Title:         d.Title,
		Type:          d.Type,
		Date:          d.Date,
		Time:          d.Time,
		Notes:         d.Notes,
		Completed:     d.Completed,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(e.ID) >= 0 {
		return model.CalendarEvent{}, fmt.Errorf("add event %s: %w", e.ID, ErrExists)
	}
	_, err := s.db.sql.ExecContext(ctx, `INSERT INTO calendar_events
		(id, user_id, application_id, company_name, title, type, date, time, notes, completed, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM calendar_events WHERE user_id = ?))`,
		e.ID, e.UserID, nullString(e.ApplicationID), e.CompanyName, e.Title, string(e.Type),
		formatDate(e.Date), nullString(e.Time), nullString(e.Notes), e.Completed, s.userID)
	if isConstraint(err) {
		return model.CalendarEvent{}, fmt.Errorf("add event %s: %w", e.ID, ErrExists)
	}
	if err != nil {
		s.logger.Sugar().Errorw("insert event failed", "id", e.ID, "err", err)
		return model.CalendarEvent{}, fmt.Errorf("add event %s: %w", e.ID, err)
	}
	s.events = append(s.events, cloneEvent(e))
	return cloneEvent(e), nil
}

// Update merges patch into the event.
func (s *Store) Update(ctx context.Context, id string, patch model.EventPatch) (model.CalendarEvent, error) {
	if patch.CompanyName != nil {
		v := strings.TrimSpace(*patch.CompanyName)
		patch.CompanyName = &v
	}
	if patch.Title != nil {
		v := strings.TrimSpace(*patch.Title)
		patch.Title = &v
	}
	if err := validate.Struct(patch); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("update event %s: %w: %v", id, ErrValidation, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.CalendarEvent{}, fmt.Errorf("update event %s: %w", id, ErrNotFound)
	}
	e := cloneEvent(s.events[i])
	patch.Apply(&e)
	if e.Type != "" && !validType(e.Type) {
		return model.CalendarEvent{}, fmt.Errorf("update event %s: %w: type %q", id, ErrValidation, e.Type)
	}
	if err := s.write(ctx, e); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("update event %s: %w", id, err)
	}
	s.events = replaceAt(s.events, i, e)
	return cloneEvent(e), nil
}

// ToggleCompleted flips the completed flag and returns the stored event.
func (s *Store) ToggleCompleted(ctx context.Context, id string) (model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.CalendarEvent{}, fmt.Errorf("toggle event %s: %w", id, ErrNotFound)
	}
	e := cloneEvent(s.events[i])
	e.Completed = !e.Completed
	if err := s.write(ctx, e); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("toggle event %s: %w", id, err)
	}
	s.events = replaceAt(s.events, i, e)
	return cloneEvent(e), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("delete event %s: %w", id, ErrNotFound)
	}
	if _, err := s.db.sql.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ? AND user_id = ?`, id, s.userID); err != nil {
		s.logger.Sugar().Errorw("delete event failed", "id", id, "err", err)
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	s.events = append(append([]model.CalendarEvent(nil), s.events[:i]...), s.events[i+1:]...)
	return nil
}

// ForApplication lists the events that point at applicationID.
func (s *Store) ForApplication(applicationID string) []model.CalendarEvent {
	return s.filter(func(e model.CalendarEvent) bool {
		return e.ApplicationID != nil && *e.ApplicationID == applicationID
	})
}

// OnDay lists the events dated on the calendar day of day, in day's location.
func (s *Store) OnDay(day time.Time) []model.CalendarEvent {
	y, m, d := day.Date()
	return s.filter(func(e model.CalendarEvent) bool {
		ey, em, ed := e.Date.In(day.Location()).Date()
		return ey == y && em == m && ed == d
	})
}

// Upcoming lists open events from the start of now's day through
// UpcomingWindow later, soonest first.
func (s *Store) Upcoming(now time.Time) []model.CalendarEvent {
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	to := from.Add(UpcomingWindow)
	out := s.filter(func(e model.CalendarEvent) bool {
		return !e.Completed && !e.Date.Before(from) && !e.Date.After(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s *Store) filter(keep func(model.CalendarEvent) bool) []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CalendarEvent
	for _, e := range s.events {
		if keep(e) {
			out = append(out, cloneEvent(e))
		}
	}
	return out
}

func (s *Store) write(ctx context.Context, e model.CalendarEvent) error {
	_, err := s.db.sql.ExecContext(ctx, `UPDATE calendar_events SET
		application_id = ?, company_name = ?, title = ?, type = ?, date = ?, time = ?, notes = ?, completed = ?
		WHERE id = ? AND user_id = ?`,
		nullString(e.ApplicationID), e.CompanyName, e.Title, string(e.Type), formatDate(e.Date),
		nullString(e.Time), nullString(e.Notes), e.Completed, e.ID, s.userID)
	if err != nil {
		s.logger.Sugar().Errorw("update event failed", "id", e.ID, "err", err)
	}
	return err
}

func (s *Store) index(id string) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func validType(t model.EventType) bool {
	switch t {
	case model.EventInterview, model.EventOA, model.EventDeadline, model.EventFollowup:
		return true
	}
	return false
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func replaceAt(events []model.CalendarEvent, i int, e model.CalendarEvent) []model.CalendarEvent {
	out := append([]model.CalendarEvent(nil), events...)
	out[i] = e
	return out
}

func cloneEvent(e model.CalendarEvent) model.CalendarEvent {
	e.ApplicationID = clonePtr(e.ApplicationID)
	e.Time = clonePtr(e.Time)
	e.Notes = clonePtr(e.Notes)
	return e
}

func cloneEvents(events []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, len(events))
	for i, e := range events {
		out[i] = cloneEvent(e)
	}
	return out
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
