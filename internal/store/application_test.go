package store

import (
	"context"
	"errors"
	"testing"

	"github.com/abhishek622/careerflow/internal/codec"
	"github.com/abhishek622/careerflow/internal/filter"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote unavailable")

func newAppStore(gw gateway.Gateway) *ApplicationStore {
	return NewApplicationStore(gw, nil, WithClock(fixedClock))
}

func TestAddAppliesDefaults(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)

	app, err := s.Add(userCtx(), model.ApplicationDraft{CompanyName: "  Acme ", JobTitle: "SRE"})
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, "Acme", app.CompanyName)
	assert.Equal(t, model.StatusWishlist, app.Status)
	assert.Equal(t, model.PriorityMedium, app.Priority)
	assert.Equal(t, model.JobTypeFullTime, app.JobType)
	assert.Equal(t, "USD", app.Currency)
	assert.Equal(t, "user-1", app.UserID)

	rows := gw.Rows(gateway.TableApplications)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["salary_min"])
	assert.Contains(t, rows[0], "notes")
}

func TestAddPrependsNewest(t *testing.T) {
	s := newAppStore(newMemory())
	seedApps(t, s, "first", "second")

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].CompanyName)
	assert.Equal(t, "first", list[1].CompanyName)
}

func TestAddPreconditionsMakeNoCalls(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)

	_, err := s.Add(context.Background(), model.ApplicationDraft{CompanyName: "Acme", JobTitle: "SRE"})
	assert.ErrorIs(t, err, gateway.ErrUnauthenticated)
	assert.NotEmpty(t, s.State().Err)

	_, err = s.Add(userCtx(), model.ApplicationDraft{CompanyName: "   ", JobTitle: "SRE"})
	assert.ErrorIs(t, err, ErrValidation)

	bad := int64(-5)
	_, err = s.Add(userCtx(), model.ApplicationDraft{CompanyName: "Acme", JobTitle: "SRE", SalaryMin: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, gw.Calls())
	assert.Empty(t, s.List())
}

func TestAddFailureLeavesListAlone(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	seedApps(t, s, "kept")

	gw.FailNext(gateway.OpInsert, errRemote)
	_, err := s.Add(userCtx(), model.ApplicationDraft{CompanyName: "lost", JobTitle: "SRE"})
	assert.ErrorIs(t, err, errRemote)
	require.Len(t, s.List(), 1)
	st := s.State()
	assert.False(t, st.Loading)
	assert.Contains(t, st.Err, "remote unavailable")
}

func TestUpdateRollsBackVerbatim(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	seedApps(t, s, "Acme", "Globex")
	before := s.List()

	gw.FailNext(gateway.OpUpdate, errRemote)
	name := "Initech"
	err := s.Update(userCtx(), before[0].ID, model.ApplicationPatch{
		CompanyName: &name,
		Notes:       model.Value("call back"),
	})
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, before, s.List())
	assert.NotEmpty(t, s.State().Err)

	s.ClearError()
	assert.Empty(t, s.State().Err)
}

func TestUpdateWritesOnlyPatchedColumns(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	app := seedApps(t, s, "Acme")[0]

	floor := int64(90000)
	require.NoError(t, s.Update(userCtx(), app.ID, model.ApplicationPatch{
		SalaryMin: model.Value(floor),
		Location:  model.Null[string](),
	}))

	got, ok := s.Get(app.ID)
	require.True(t, ok)
	require.NotNil(t, got.SalaryMin)
	assert.Equal(t, floor, *got.SalaryMin)
	assert.Equal(t, clock, got.UpdatedAt)
	assert.Equal(t, "Acme", got.CompanyName)

	row := gw.Rows(gateway.TableApplications)[0]
	assert.Equal(t, floor, row["salary_min"])
	assert.Nil(t, row["location"])
	assert.Equal(t, "Acme", row["company_name"])
}

func TestUpdateUnknownID(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	err := s.Update(userCtx(), "missing", model.ApplicationPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, gw.Calls())
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	app := seedApps(t, s, "Acme")[0]
	before := s.List()

	blank := "   "
	bogusStatus := model.Status("HIRED")
	bogusPriority := model.Priority("URGENT")
	bogusType := model.JobType("GIG")
	cases := []struct {
		name  string
		patch model.ApplicationPatch
	}{
		{"unknown status", model.ApplicationPatch{Status: &bogusStatus}},
		{"unknown priority", model.ApplicationPatch{Priority: &bogusPriority}},
		{"unknown job type", model.ApplicationPatch{JobType: &bogusType}},
		{"blank company", model.ApplicationPatch{CompanyName: &blank}},
		{"blank title", model.ApplicationPatch{JobTitle: &blank}},
		{"negative salary", model.ApplicationPatch{SalaryMax: model.Value(int64(-1))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Update(userCtx(), app.ID, tc.patch)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, before, s.List())
			assert.NotEmpty(t, s.State().Err)
		})
	}
	assert.Zero(t, countCalls(gw, gateway.OpUpdate))
	assert.Equal(t, "Acme", gw.Rows(gateway.TableApplications)[0]["company_name"])
}

func TestMoveStampsAppliedDate(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	app := seedApps(t, s, "Acme")[0]

	require.NoError(t, s.Move(userCtx(), app.ID, model.StatusApplied))

	got, _ := s.Get(app.ID)
	assert.Equal(t, model.StatusApplied, got.Status)
	require.NotNil(t, got.AppliedDate)
	assert.Equal(t, clock, *got.AppliedDate)

	row := gw.Rows(gateway.TableApplications)[0]
	assert.Equal(t, codec.FormatTime(clock), row["applied_date"])
	assert.Equal(t, "APPLIED", row["status"])

	// moving back and forth keeps the first stamp
	require.NoError(t, s.Move(userCtx(), app.ID, model.StatusWishlist))
	require.NoError(t, s.Move(userCtx(), app.ID, model.StatusApplied))
	got, _ = s.Get(app.ID)
	assert.Equal(t, clock, *got.AppliedDate)
}

func TestMoveToSameStatusIsNoop(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	app := seedApps(t, s, "Acme")[0]
	calls := len(gw.Calls())

	require.NoError(t, s.Move(userCtx(), app.ID, model.StatusWishlist))
	assert.Len(t, gw.Calls(), calls)
}

func TestMoveRejectsBlockedTransition(t *testing.T) {
	gw := newMemory()
	s := NewApplicationStore(gw, map[model.Status][]model.Status{
		model.StatusWishlist: {model.StatusApplied},
	}, WithClock(fixedClock))
	app := seedApps(t, s, "Acme")[0]

	err := s.Move(userCtx(), app.ID, model.StatusOffer)
	assert.ErrorIs(t, err, ErrValidation)
	got, _ := s.Get(app.ID)
	assert.Equal(t, model.StatusWishlist, got.Status)
}

func TestMoveRollsBack(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	app := seedApps(t, s, "Acme")[0]

	gw.FailNext(gateway.OpUpdate, errRemote)
	assert.Error(t, s.Move(userCtx(), app.ID, model.StatusApplied))
	got, _ := s.Get(app.ID)
	assert.Equal(t, model.StatusWishlist, got.Status)
	assert.Nil(t, got.AppliedDate)
}

func TestDeletePurgesSelectionEvenOnRollback(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	apps := seedApps(t, s, "Acme", "Globex")
	s.Selection().SelectAll([]string{apps[0].ID, apps[1].ID})

	gw.FailNext(gateway.OpDelete, errRemote)
	assert.ErrorIs(t, s.Delete(userCtx(), apps[0].ID), errRemote)
	assert.Len(t, s.List(), 2)
	assert.False(t, s.Selection().Has(apps[0].ID))
	assert.True(t, s.Selection().Has(apps[1].ID))

	require.NoError(t, s.Delete(userCtx(), apps[1].ID))
	require.Len(t, s.List(), 1)
	assert.Equal(t, 0, s.Selection().Len())
}

func TestBulkUpdateStatusIsOptimisticAndSingleCall(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	apps := seedApps(t, s, "a", "b", "c")
	ids := []string{apps[0].ID, apps[1].ID}
	s.Selection().SelectAll(ids)

	var (
		seen     map[string]model.Status
		selected int
	)
	gw.SetHook(func(_ context.Context, op gateway.Op, _ gateway.Table) {
		if op != gateway.OpUpdateMany {
			return
		}
		seen = map[string]model.Status{}
		for _, a := range s.List() {
			seen[a.ID] = a.Status
		}
		selected = s.Selection().Len()
	})

	require.NoError(t, s.BulkUpdateStatus(userCtx(), ids, model.StatusApplied))

	assert.Equal(t, model.StatusApplied, seen[apps[0].ID])
	assert.Equal(t, model.StatusApplied, seen[apps[1].ID])
	assert.Equal(t, model.StatusWishlist, seen[apps[2].ID])
	assert.Zero(t, selected)
	assert.Equal(t, 1, countCalls(gw, gateway.OpUpdateMany))
	assert.Zero(t, countCalls(gw, gateway.OpUpdate))

	got, _ := s.Get(apps[0].ID)
	assert.Nil(t, got.AppliedDate)
}

func TestBulkUpdateStatusRollsBackBatch(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	apps := seedApps(t, s, "a", "b")
	before := s.List()

	gw.FailNext(gateway.OpUpdateMany, errRemote)
	err := s.BulkUpdateStatus(userCtx(), []string{apps[0].ID, apps[1].ID}, model.StatusRejected)
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, before, s.List())
}

func TestBulkUpdateStatusRejectsUnknownStatus(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	apps := seedApps(t, s, "a")
	calls := len(gw.Calls())

	err := s.BulkUpdateStatus(userCtx(), []string{apps[0].ID}, "HIRED")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, gw.Calls(), calls)
}

func TestBulkDelete(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	apps := seedApps(t, s, "a", "b", "c")
	s.Selection().SelectAll([]string{apps[0].ID, apps[2].ID})

	gw.FailNext(gateway.OpDeleteMany, errRemote)
	assert.Error(t, s.BulkDelete(userCtx(), []string{apps[0].ID, apps[1].ID}))
	assert.Len(t, s.List(), 3)
	assert.Equal(t, []string{apps[2].ID}, s.Selection().IDs())

	require.NoError(t, s.BulkDelete(userCtx(), []string{apps[0].ID, apps[1].ID}))
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, apps[2].ID, list[0].ID)
	assert.Equal(t, 2, countCalls(gw, gateway.OpDeleteMany))
}

func TestFetchFailureKeepsList(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	seedApps(t, s, "a", "b")
	before := s.List()

	gw.FailNext(gateway.OpSelect, errRemote)
	assert.ErrorIs(t, s.Fetch(userCtx()), errRemote)

	st := s.State()
	assert.Equal(t, before, st.Items)
	assert.False(t, st.Loading)
	assert.NotEmpty(t, st.Err)
}

func TestFetchAttachesTags(t *testing.T) {
	gw := newMemory()
	s := newAppStore(gw)
	tags := NewTagStore(gw, WithLinkObserver(s))
	apps := seedApps(t, s, "a", "b")

	remote, err := tags.Add(userCtx(), model.TagDraft{Name: "remote", Color: "#3b82f6"})
	require.NoError(t, err)
	require.NoError(t, tags.AddToApplication(userCtx(), apps[1].ID, remote.ID))

	fresh := newAppStore(gw)
	require.NoError(t, fresh.Fetch(userCtx()))
	got, ok := fresh.Get(apps[1].ID)
	require.True(t, ok)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "remote", got.Tags[0].Name)

	other, _ := fresh.Get(apps[0].ID)
	assert.Empty(t, other.Tags)

	assert.Len(t, fresh.Filtered(filter.Filters{Tags: []string{remote.ID}}), 1)
}

func TestByStatus(t *testing.T) {
	s := newAppStore(newMemory())
	apps := seedApps(t, s, "a", "b")
	require.NoError(t, s.Move(userCtx(), apps[0].ID, model.StatusOffer))

	offers := s.ByStatus(model.StatusOffer)
	require.Len(t, offers, 1)
	assert.Equal(t, apps[0].ID, offers[0].ID)
}
