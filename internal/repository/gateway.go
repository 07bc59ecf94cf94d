package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Postgres) SelectAll(ctx context.Context, name gateway.Table, order gateway.Order) ([]gateway.Row, error) {
	t, err := lookup(name)
	if err != nil {
		return nil, err
	}
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = $1", strings.Join(t.columns, ", "), name)
	if order.Column != "" {
		if !t.has(order.Column) {
			return nil, fmt.Errorf("select %s: unknown order column %q", name, order.Column)
		}
		dir := "DESC"
		if order.Ascending {
			dir = "ASC"
		}
		q += fmt.Sprintf(" ORDER BY %s %s", order.Column, dir)
	}

	rows, err := r.db.Query(ctx, q, user)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}
	return out, nil
}

func (r *Postgres) Insert(ctx context.Context, name gateway.Table, row gateway.Row) (gateway.Row, error) {
	t, err := lookup(name)
	if err != nil {
		return nil, err
	}
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if name == gateway.TableApplicationTags {
		return r.insertLink(ctx, user, row)
	}

	cols := []string{"user_id"}
	args := []any{user}
	for _, col := range t.columns {
		v, ok := row[col]
		if !ok || !t.writable[col] {
			continue
		}
		p, err := t.param(col, v)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", name, err)
		}
		cols = append(cols, col)
		args = append(args, p)
	}
	holders := make([]string, len(cols))
	for i := range cols {
		holders[i] = fmt.Sprintf("$%d", i+1)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		name, strings.Join(cols, ", "), strings.Join(holders, ", "), strings.Join(t.columns, ", "))
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", name, err)
	}
	out, err := collect(rows)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert %s: %w", name, gateway.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert %s: %w", name, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("insert %s: %d rows returned", name, len(out))
	}
	return out[0], nil
}

// insertLink only links an application and a tag that both belong to user.
func (r *Postgres) insertLink(ctx context.Context, user uuid.UUID, row gateway.Row) (gateway.Row, error) {
	appID, _ := row["application_id"].(string)
	tagID, _ := row["tag_id"].(string)
	ids := parseIDs([]string{appID, tagID})
	if len(ids) != 2 {
		return nil, fmt.Errorf("insert link: %w", gateway.ErrNotFound)
	}

	const q = `
INSERT INTO application_tags (application_id, tag_id, user_id)
SELECT $1, $2, $3
WHERE EXISTS (SELECT 1 FROM applications WHERE id = $1 AND user_id = $3)
  AND EXISTS (SELECT 1 FROM tags WHERE id = $2 AND user_id = $3)
RETURNING application_id, tag_id, user_id, created_at
`
	rows, err := r.db.Query(ctx, q, ids[0], ids[1], user)
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}
	out, err := collect(rows)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert link: %w", gateway.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert link: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert link: %w", gateway.ErrNotFound)
	}
	return out[0], nil
}

func (r *Postgres) UpdateByID(ctx context.Context, name gateway.Table, id string, patch gateway.Row) error {
	n, err := r.update(ctx, name, []string{id}, patch)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", name, id, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", name, id, gateway.ErrNotFound)
	}
	return nil
}

func (r *Postgres) UpdateWhereIDIn(ctx context.Context, name gateway.Table, ids []string, patch gateway.Row) error {
	if _, err := r.update(ctx, name, ids, patch); err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}
	return nil
}

func (r *Postgres) update(ctx context.Context, name gateway.Table, ids []string, patch gateway.Row) (int64, error) {
	t, err := lookup(name)
	if err != nil {
		return 0, err
	}
	user, err := currentUser(ctx)
	if err != nil {
		return 0, err
	}
	parsed := parseIDs(ids)
	if len(parsed) == 0 {
		return 0, nil
	}

	set, args, err := t.setClause(patch, 3)
	if err != nil {
		return 0, err
	}
	if set == "" {
		return int64(len(parsed)), nil
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ANY($1) AND user_id = $2", name, set)
	tag, err := r.db.Exec(ctx, q, append([]any{parsed, user}, args...)...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Postgres) DeleteByID(ctx context.Context, name gateway.Table, id string) error {
	n, err := r.delete(ctx, name, []string{id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", name, id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s %s: %w", name, id, gateway.ErrNotFound)
	}
	return nil
}

func (r *Postgres) DeleteWhereIDIn(ctx context.Context, name gateway.Table, ids []string) error {
	if _, err := r.delete(ctx, name, ids); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// delete relies on ON DELETE CASCADE to drop the links of removed rows.
func (r *Postgres) delete(ctx context.Context, name gateway.Table, ids []string) (int64, error) {
	if _, err := lookup(name); err != nil {
		return 0, err
	}
	user, err := currentUser(ctx)
	if err != nil {
		return 0, err
	}
	parsed := parseIDs(ids)
	if len(parsed) == 0 {
		return 0, nil
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1) AND user_id = $2", name)
	tag, err := r.db.Exec(ctx, q, parsed, user)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Postgres) SelectApplicationTags(ctx context.Context, applicationID string) ([]gateway.JoinRow, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	q := `
SELECT at.application_id, t.id, t.user_id, t.name, t.color, t.created_at
FROM application_tags at
JOIN tags t ON t.id = at.tag_id
WHERE at.user_id = $1`
	args := []any{user}
	if applicationID != "" {
		ids := parseIDs([]string{applicationID})
		if len(ids) == 0 {
			return nil, nil
		}
		q += " AND at.application_id = $2"
		args = append(args, ids[0])
	}
	q += " ORDER BY t.name"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select application tags: %w", err)
	}
	defer rows.Close()

	var out []gateway.JoinRow
	for rows.Next() {
		var (
			appID, tagID, owner uuid.UUID
			name, color         string
			created             any
		)
		if err := rows.Scan(&appID, &tagID, &owner, &name, &color, &created); err != nil {
			return nil, fmt.Errorf("scan application tag: %w", err)
		}
		tag := normalize(map[string]any{
			"id": tagID, "user_id": owner, "name": name, "color": color, "created_at": created,
		})
		out = append(out, gateway.JoinRow{ApplicationID: appID.String(), Tag: tag})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *Postgres) DeleteLink(ctx context.Context, applicationID, tagID string) error {
	user, err := currentUser(ctx)
	if err != nil {
		return err
	}
	ids := parseIDs([]string{applicationID, tagID})
	if len(ids) != 2 {
		return nil
	}
	const q = `DELETE FROM application_tags WHERE application_id = $1 AND tag_id = $2 AND user_id = $3`
	if _, err := r.db.Exec(ctx, q, ids[0], ids[1], user); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// SetDefaultResume flips every affected resume of the user in one statement.
func (r *Postgres) SetDefaultResume(ctx context.Context, id string) error {
	user, err := currentUser(ctx)
	if err != nil {
		return err
	}
	ids := parseIDs([]string{id})
	if len(ids) == 0 {
		return fmt.Errorf("set default resume %s: %w", id, gateway.ErrNotFound)
	}

	return r.execTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		const check = `SELECT EXISTS (SELECT 1 FROM resumes WHERE id = $1 AND user_id = $2)`
		if err := tx.QueryRow(ctx, check, ids[0], user).Scan(&exists); err != nil {
			return fmt.Errorf("set default resume %s: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("set default resume %s: %w", id, gateway.ErrNotFound)
		}
		const q = `
UPDATE resumes SET is_default = (id = $1), updated_at = now()
WHERE user_id = $2 AND (is_default OR id = $1)
`
		if _, err := tx.Exec(ctx, q, ids[0], user); err != nil {
			return fmt.Errorf("set default resume %s: %w", id, err)
		}
		return nil
	})
}

func (r *Postgres) CurrentUser(ctx context.Context) (model.User, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{ID: user.String()}
	const q = `SELECT email FROM users WHERE id = $1`
	if err := r.db.QueryRow(ctx, q, user).Scan(&u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, gateway.ErrUnauthenticated
		}
		return model.User{}, fmt.Errorf("get current user: %w", err)
	}
	return u, nil
}
