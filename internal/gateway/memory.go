package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/google/uuid"
)

type Op string

const (
	OpSelect     Op = "select"
	OpInsert     Op = "insert"
	OpUpdate     Op = "update"
	OpUpdateMany Op = "update_many"
	OpDelete     Op = "delete"
	OpDeleteMany Op = "delete_many"
	OpSelectJoin Op = "select_join"
	OpDeleteLink Op = "delete_link"
	OpSetDefault Op = "set_default"
)

// Call records one request served by Memory.
type Call struct {
	Op    Op
	Table Table
}

// Memory is an in-process Gateway. It assigns ids and timestamps the way the
// hosted store does and lets callers inject failures per operation.
type Memory struct {
	mu     sync.RWMutex
	rows   map[Table][]Row
	fails  map[Op][]error
	calls  []Call
	hook   func(ctx context.Context, op Op, table Table)
	now    func() time.Time
	layout string
}

func NewMemory() *Memory {
	return &Memory{
		rows:   map[Table][]Row{},
		fails:  map[Op][]error{},
		now:    time.Now,
		layout: time.RFC3339Nano,
	}
}

// FailNext makes the next call of op return err.
func (m *Memory) FailNext(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fails[op] = append(m.fails[op], err)
}

// SetHook installs fn to run before every request, outside the lock.
func (m *Memory) SetHook(fn func(ctx context.Context, op Op, table Table)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

// Seed stores rows as given, bypassing id and timestamp assignment.
func (m *Memory) Seed(table Table, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[table] = append(m.rows[table], r.Clone())
	}
}

// Rows returns every stored row of table regardless of owner.
func (m *Memory) Rows(table Table) []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.rows[table]))
	for _, r := range m.rows[table] {
		out = append(out, r.Clone())
	}
	return out
}

// begin runs the hook, records the call and pops an injected failure.
func (m *Memory) begin(ctx context.Context, op Op, table Table) (string, error) {
	m.mu.RLock()
	hook := m.hook
	m.mu.RUnlock()
	if hook != nil {
		hook(ctx, op, table)
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: op, Table: table})
	var injected error
	if q := m.fails[op]; len(q) > 0 {
		injected, m.fails[op] = q[0], q[1:]
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	userID, ok := UserFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	if injected != nil {
		return "", injected
	}
	return userID, nil
}

func (m *Memory) SelectAll(ctx context.Context, table Table, order Order) ([]Row, error) {
	userID, err := m.begin(ctx, OpSelect, table)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.rows[table]))
	for _, r := range m.rows[table] {
		if r["user_id"] == userID {
			out = append(out, r.Clone())
		}
	}
	if order.Column != "" {
		sort.SliceStable(out, func(i, j int) bool {
			less := m.less(out[i][order.Column], out[j][order.Column])
			if order.Ascending {
				return less
			}
			return m.less(out[j][order.Column], out[i][order.Column])
		})
	}
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, table Table, row Row) (Row, error) {
	userID, err := m.begin(ctx, OpInsert, table)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := row.Clone()
	stored["user_id"] = userID
	if table == TableApplicationTags {
		for _, r := range m.rows[table] {
			if r["application_id"] == stored["application_id"] && r["tag_id"] == stored["tag_id"] {
				return nil, fmt.Errorf("insert %s: %w", table, ErrDuplicate)
			}
		}
	} else {
		stored["id"] = uuid.NewString()
	}
	now := m.now().UTC().Format(m.layout)
	stored["created_at"] = now
	if hasUpdatedAt(table) {
		stored["updated_at"] = now
	}
	m.rows[table] = append(m.rows[table], stored)
	return stored.Clone(), nil
}

func (m *Memory) UpdateByID(ctx context.Context, table Table, id string, patch Row) error {
	userID, err := m.begin(ctx, OpUpdate, table)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.update(table, userID, map[string]bool{id: true}, patch) == 0 {
		return fmt.Errorf("update %s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (m *Memory) UpdateWhereIDIn(ctx context.Context, table Table, ids []string, patch Row) error {
	userID, err := m.begin(ctx, OpUpdateMany, table)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.update(table, userID, toSet(ids), patch)
	return nil
}

func (m *Memory) DeleteByID(ctx context.Context, table Table, id string) error {
	userID, err := m.begin(ctx, OpDelete, table)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delete(table, userID, map[string]bool{id: true}) == 0 {
		return fmt.Errorf("delete %s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (m *Memory) DeleteWhereIDIn(ctx context.Context, table Table, ids []string) error {
	userID, err := m.begin(ctx, OpDeleteMany, table)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.delete(table, userID, toSet(ids))
	return nil
}

func (m *Memory) SelectApplicationTags(ctx context.Context, applicationID string) ([]JoinRow, error) {
	userID, err := m.begin(ctx, OpSelectJoin, TableApplicationTags)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	tags := make(map[any]Row)
	for _, t := range m.rows[TableTags] {
		tags[t["id"]] = t
	}
	var out []JoinRow
	for _, l := range m.rows[TableApplicationTags] {
		if l["user_id"] != userID {
			continue
		}
		if applicationID != "" && l["application_id"] != applicationID {
			continue
		}
		t, ok := tags[l["tag_id"]]
		if !ok {
			continue
		}
		appID, _ := l["application_id"].(string)
		out = append(out, JoinRow{ApplicationID: appID, Tag: t.Clone()})
	}
	return out, nil
}

func (m *Memory) DeleteLink(ctx context.Context, applicationID, tagID string) error {
	userID, err := m.begin(ctx, OpDeleteLink, TableApplicationTags)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[TableApplicationTags][:0]
	for _, l := range m.rows[TableApplicationTags] {
		if l["user_id"] == userID && l["application_id"] == applicationID && l["tag_id"] == tagID {
			continue
		}
		kept = append(kept, l)
	}
	m.rows[TableApplicationTags] = kept
	return nil
}

func (m *Memory) SetDefaultResume(ctx context.Context, id string) error {
	userID, err := m.begin(ctx, OpSetDefault, TableResumes)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, r := range m.rows[TableResumes] {
		if r["user_id"] == userID && r["id"] == id {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("set default resume %s: %w", id, ErrNotFound)
	}
	now := m.now().UTC().Format(m.layout)
	for _, r := range m.rows[TableResumes] {
		if r["user_id"] != userID {
			continue
		}
		isTarget := r["id"] == id
		if r["is_default"] != isTarget || isTarget {
			r["updated_at"] = now
		}
		r["is_default"] = isTarget
	}
	return nil
}

func (m *Memory) CurrentUser(ctx context.Context) (model.User, error) {
	userID, ok := UserFromContext(ctx)
	if !ok {
		return model.User{}, ErrUnauthenticated
	}
	return model.User{ID: userID}, nil
}

func (m *Memory) update(table Table, userID string, ids map[string]bool, patch Row) int {
	n := 0
	now := m.now().UTC().Format(m.layout)
	for _, r := range m.rows[table] {
		id, _ := r["id"].(string)
		if r["user_id"] != userID || !ids[id] {
			continue
		}
		for k, v := range patch {
			if k == "id" || k == "user_id" || k == "created_at" {
				continue
			}
			r[k] = v
		}
		if hasUpdatedAt(table) {
			r["updated_at"] = now
		}
		n++
	}
	return n
}

func (m *Memory) delete(table Table, userID string, ids map[string]bool) int {
	n := 0
	kept := m.rows[table][:0]
	for _, r := range m.rows[table] {
		id, _ := r["id"].(string)
		if r["user_id"] == userID && ids[id] {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows[table] = kept

	// links cascade with either side
	column := ""
	switch table {
	case TableApplications:
		column = "application_id"
	case TableTags:
		column = "tag_id"
	}
	if column != "" {
		links := m.rows[TableApplicationTags][:0]
		for _, l := range m.rows[TableApplicationTags] {
			id, _ := l[column].(string)
			if l["user_id"] == userID && ids[id] {
				continue
			}
			links = append(links, l)
		}
		m.rows[TableApplicationTags] = links
	}

	if table == TableResumes {
		for _, a := range m.rows[TableApplications] {
			id, _ := a["resume_id"].(string)
			if a["user_id"] == userID && ids[id] {
				a["resume_id"] = nil
			}
		}
	}
	return n
}

func (m *Memory) less(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		at, aerr := time.Parse(time.RFC3339Nano, av)
		bt, berr := time.Parse(time.RFC3339Nano, bv)
		if aerr == nil && berr == nil {
			return at.Before(bt)
		}
		return av < bv
	case int64:
		bv, _ := b.(int64)
		return av < bv
	}
	return false
}

func hasUpdatedAt(table Table) bool {
	return table == TableApplications || table == TableResumes
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
