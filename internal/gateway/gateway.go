// Package gateway defines the persistence boundary the stores talk to: flat
// snake_case rows in named tables, scoped to the authenticated user.
package gateway

import (
	"context"
	"errors"

	"github.com/abhishek622/careerflow/pkg/model"
)

type Table string

const (
	TableApplications    Table = "applications"
	TableResumes         Table = "resumes"
	TableTags            Table = "tags"
	TableApplicationTags Table = "application_tags"
)

// Row is one record as it crosses the boundary. Keys are column names,
// absent optional values are nil, timestamps are RFC3339 strings.
type Row map[string]any

// Clone copies the top level of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Order names the sort column of a SelectAll.
type Order struct {
	Column    string
	Ascending bool
}

var (
	ByCreatedDesc = Order{Column: "created_at"}
	ByNameAsc     = Order{Column: "name", Ascending: true}
)

// JoinRow pairs an application id with the full tag row it links to.
type JoinRow struct {
	ApplicationID string
	Tag           Row
}

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotFound        = errors.New("row not found")
	ErrDuplicate       = errors.New("duplicate key value")
)

type Gateway interface {
	SelectAll(ctx context.Context, table Table, order Order) ([]Row, error)
	Insert(ctx context.Context, table Table, row Row) (Row, error)
	UpdateByID(ctx context.Context, table Table, id string, patch Row) error
	UpdateWhereIDIn(ctx context.Context, table Table, ids []string, patch Row) error
	DeleteByID(ctx context.Context, table Table, id string) error
	DeleteWhereIDIn(ctx context.Context, table Table, ids []string) error

	// SelectApplicationTags returns the links of one application, or of
	// every application of the user when applicationID is empty.
	SelectApplicationTags(ctx context.Context, applicationID string) ([]JoinRow, error)
	DeleteLink(ctx context.Context, applicationID, tagID string) error

	// SetDefaultResume flags id as the user's only default resume in one write.
	SetDefaultResume(ctx context.Context, id string) error

	CurrentUser(ctx context.Context) (model.User, error)
}

type userKey struct{}

// WithUser attaches the authenticated user id to ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the user id set by WithUser.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
