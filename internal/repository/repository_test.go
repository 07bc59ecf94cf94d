package repository

import (
	"context"
	"testing"
	"time"

	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetClauseKeepsWritableColumnsInOrder(t *testing.T) {
	apps := tables[gateway.TableApplications]
	set, args, err := apps.setClause(gateway.Row{
		"status":       "APPLIED",
		"applied_date": "2026-03-02T09:30:00Z",
		"user_id":      "someone-else",
		"id":           "x",
		"updated_at":   "2020-01-01T00:00:00Z",
		"bogus; DROP":  1,
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, "status = $3, applied_date = $4, updated_at = now()", set)
	require.Len(t, args, 2)
	assert.Equal(t, "APPLIED", args[0])
	assert.Equal(t, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), args[1])
}

func TestSetClauseWithoutUpdatedAt(t *testing.T) {
	set, args, err := tables[gateway.TableTags].setClause(gateway.Row{"color": "#ef4444"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "color = $3", set)
	assert.Equal(t, []any{"#ef4444"}, args)

	set, _, err = tables[gateway.TableTags].setClause(gateway.Row{}, 3)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestParamConvertsTimes(t *testing.T) {
	apps := tables[gateway.TableApplications]
	v, err := apps.param("applied_date", nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = apps.param("applied_date", "yesterday")
	assert.Error(t, err)

	v, err = apps.param("notes", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestNormalize(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.FixedZone("IST", 19800))
	row := normalize(map[string]any{
		"id":         [16]byte(id),
		"created_at": at,
		"count":      int32(4),
		"notes":      nil,
	})
	assert.Equal(t, id.String(), row["id"])
	assert.Equal(t, "2026-01-01T21:34:05.000000006Z", row["created_at"])
	assert.Equal(t, int64(4), row["count"])
	assert.Nil(t, row["notes"])
}

func TestCurrentUserNeedsUUID(t *testing.T) {
	_, err := currentUser(context.Background())
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)
	_, err = currentUser(gateway.WithUser(context.Background(), "not-a-uuid"))
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)

	id := uuid.New()
	got, err := currentUser(gateway.WithUser(context.Background(), id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseIDsDropsGarbage(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b}, parseIDs([]string{a.String(), "nope", b.String()}))
}

func TestUnknownTable(t *testing.T) {
	_, err := lookup("users")
	assert.Error(t, err)
}
