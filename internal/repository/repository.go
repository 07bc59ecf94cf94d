// Package repository implements the persistence gateway on PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// table describes the columns of one gateway table. Only columns listed
// here ever reach SQL text.
type table struct {
	columns  []string
	writable map[string]bool
	times    map[string]bool
}

func newTable(columns []string, times ...string) table {
	t := table{columns: columns, writable: map[string]bool{}, times: map[string]bool{}}
	for _, c := range columns {
		switch c {
		case "id", "user_id", "created_at", "updated_at":
		default:
			t.writable[c] = true
		}
	}
	for _, c := range times {
		t.times[c] = true
	}
	return t
}

func (t table) has(col string) bool {
	for _, c := range t.columns {
		if c == col {
			return true
		}
	}
	return false
}

var tables = map[gateway.Table]table{
	gateway.TableApplications: newTable([]string{
		"id", "user_id", "company_name", "job_title", "job_url", "location", "remote_policy",
		"status", "priority", "job_type", "salary_min", "salary_max", "currency",
		"applied_date", "notes", "resume_id", "created_at", "updated_at",
	}, "applied_date", "created_at", "updated_at"),
	gateway.TableResumes: newTable([]string{
		"id", "user_id", "name", "file_url", "version", "is_default", "notes", "created_at", "updated_at",
	}, "created_at", "updated_at"),
	gateway.TableTags: newTable([]string{
		"id", "user_id", "name", "color", "created_at",
	}, "created_at"),
	gateway.TableApplicationTags: newTable([]string{
		"application_id", "tag_id", "user_id", "created_at",
	}, "created_at"),
}

// Postgres is the gateway backed by a pgx pool. Every statement is scoped
// to the user carried by the context.
type Postgres struct {
	db *pgxpool.Pool
}

var _ gateway.Gateway = (*Postgres)(nil)

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) execTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func lookup(name gateway.Table) (table, error) {
	t, ok := tables[name]
	if !ok {
		return table{}, fmt.Errorf("unknown table %q", name)
	}
	return t, nil
}

// currentUser returns the context user as a uuid.
func currentUser(ctx context.Context) (uuid.UUID, error) {
	id, ok := gateway.UserFromContext(ctx)
	if !ok {
		return uuid.Nil, gateway.ErrUnauthenticated
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, gateway.ErrUnauthenticated
	}
	return u, nil
}

// parseIDs drops ids that cannot name a row.
func parseIDs(ids []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			out = append(out, u)
		}
	}
	return out
}

// param converts a row value into a pgx argument for col.
func (t table) param(col string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if t.times[col] {
		switch tv := v.(type) {
		case time.Time:
			return tv, nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, tv)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("column %s: unexpected %T", col, v)
	}
	return v, nil
}

// normalize turns a scanned row into the boundary shape: times become
// RFC3339 strings and uuids become their text form.
func normalize(raw map[string]any) gateway.Row {
	row := make(gateway.Row, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case time.Time:
			row[k] = tv.UTC().Format(time.RFC3339Nano)
		case [16]byte:
			row[k] = uuid.UUID(tv).String()
		case uuid.UUID:
			row[k] = tv.String()
		case int32:
			row[k] = int64(tv)
		default:
			row[k] = v
		}
	}
	return row
}

func collect(rows pgx.Rows) ([]gateway.Row, error) {
	raw, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]gateway.Row, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalize(r))
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// setClause builds "col = $n, ..." from the writable columns of patch,
// numbering from start. Unknown columns are skipped.
func (t table) setClause(patch gateway.Row, start int) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, col := range t.columns {
		v, ok := patch[col]
		if !ok || !t.writable[col] {
			continue
		}
		p, err := t.param(col, v)
		if err != nil {
			return "", nil, err
		}
		args = append(args, p)
		parts = append(parts, fmt.Sprintf("%s = $%d", col, start+len(args)-1))
	}
	if t.has("updated_at") {
		parts = append(parts, "updated_at = now()")
	}
	return strings.Join(parts, ", "), args, nil
}
