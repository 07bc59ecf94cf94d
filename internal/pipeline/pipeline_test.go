package pipeline

import (
	"testing"
	"time"

	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func TestWishlistToAppliedStampsAppliedDate(t *testing.T) {
	patch, err := Rules(nil).Transition(model.Application{Status: model.StatusWishlist}, model.StatusApplied, now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApplied, *patch.Status)
	stamped, ok := patch.AppliedDate.Get()
	require.True(t, ok)
	assert.Equal(t, now, stamped)
}

func TestAppliedDateLeftAloneOtherwise(t *testing.T) {
	earlier := now.AddDate(0, 0, -3)
	cases := map[string]struct {
		app model.Application
		to  model.Status
	}{
		"already stamped":    {model.Application{Status: model.StatusWishlist, AppliedDate: &earlier}, model.StatusApplied},
		"from stalled":       {model.Application{Status: model.StatusStalled}, model.StatusApplied},
		"wishlist elsewhere": {model.Application{Status: model.StatusWishlist}, model.StatusInterviewScheduled},
		"back to wishlist":   {model.Application{Status: model.StatusApplied}, model.StatusWishlist},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			patch, err := Rules(nil).Transition(tc.app, tc.to, now)
			require.NoError(t, err)
			assert.False(t, patch.AppliedDate.IsSet())
			assert.Equal(t, tc.to, *patch.Status)
		})
	}
}

func TestEveryDistinctPairAllowedByDefault(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			assert.Equal(t, from != to, Rules(nil).CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionErrors(t *testing.T) {
	_, err := Rules(nil).Transition(model.Application{Status: model.StatusApplied}, "HIRED", now)
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = Rules(nil).Transition(model.Application{Status: model.StatusApplied}, model.StatusApplied, now)
	assert.ErrorIs(t, err, ErrSameStatus)

	strict := Rules{model.StatusOffer: {model.StatusRejected}}
	_, err = strict.Transition(model.Application{Status: model.StatusOffer}, model.StatusWishlist, now)
	assert.ErrorIs(t, err, ErrTransitionBlocked)
	_, err = strict.Transition(model.Application{Status: model.StatusOffer}, model.StatusRejected, now)
	assert.NoError(t, err)
}

func TestArchiveAndStale(t *testing.T) {
	apps := []model.Application{
		{ID: "rej", Status: model.StatusRejected, UpdatedAt: now},
		{ID: "stl", Status: model.StatusStalled, UpdatedAt: now},
		{ID: "old", Status: model.StatusApplied, UpdatedAt: now.AddDate(0, 0, -20)},
		{ID: "new", Status: model.StatusApplied, UpdatedAt: now.AddDate(0, 0, -2)},
		{ID: "wish", Status: model.StatusWishlist, UpdatedAt: now.AddDate(0, 0, -60)},
	}

	var archived []string
	for _, a := range Archived(apps) {
		archived = append(archived, a.ID)
	}
	assert.Equal(t, []string{"rej", "stl"}, archived)

	stale := Stale(apps, now, 14)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].ID)
	assert.Nil(t, Stale(apps, now, 0))

	edge := []model.Application{
		{ID: "exact", Status: model.StatusApplied, UpdatedAt: now.AddDate(0, 0, -14)},
		{ID: "past", Status: model.StatusApplied, UpdatedAt: now.AddDate(0, 0, -14).Add(-time.Nanosecond)},
	}
	stale = Stale(edge, now, 14)
	require.Len(t, stale, 1)
	assert.Equal(t, "past", stale[0].ID)
}

func TestSummarize(t *testing.T) {
	apps := []model.Application{
		{Status: model.StatusWishlist},
		{Status: model.StatusApplied},
		{Status: model.StatusInterviewScheduled},
		{Status: model.StatusOffer},
		{Status: model.StatusRejected},
	}
	s := Summarize(apps)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 4, s.Applied)
	assert.Equal(t, 25, s.InterviewRate)
	assert.Equal(t, 25, s.OfferRate)
	require.Len(t, s.ByStatus, len(Statuses))
	assert.Equal(t, StatusCount{Status: model.StatusOffer, Label: "Offer", Count: 1}, s.ByStatus[4])

	assert.Zero(t, Summarize(nil).InterviewRate)
}
