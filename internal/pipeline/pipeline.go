// Package pipeline describes the statuses an application moves through and
// the one side effect tied to a transition.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhishek622/careerflow/pkg/model"
)

// Statuses in board order. WISHLIST is the initial status.
var Statuses = []model.Status{
	model.StatusWishlist,
	model.StatusApplied,
	model.StatusOAReceived,
	model.StatusInterviewScheduled,
	model.StatusOffer,
	model.StatusRejected,
	model.StatusStalled,
}

var labels = map[model.Status]string{
	model.StatusWishlist:           "Wishlist",
	model.StatusApplied:            "Applied",
	model.StatusOAReceived:         "OA Received",
	model.StatusInterviewScheduled: "Interview",
	model.StatusOffer:              "Offer",
	model.StatusRejected:           "Rejected",
	model.StatusStalled:            "Stalled",
}

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrTransitionBlocked = errors.New("transition not allowed")
	ErrSameStatus        = errors.New("application already has this status")
)

func Valid(s model.Status) bool {
	_, ok := labels[s]
	return ok
}

func Label(s model.Status) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Rules maps a status to the statuses it may move to. A nil Rules allows
// every move between two distinct statuses.
type Rules map[model.Status][]model.Status

func (r Rules) CanTransition(from, to model.Status) bool {
	if !Valid(from) || !Valid(to) || from == to {
		return false
	}
	if r == nil {
		return true
	}
	for _, s := range r[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition builds the patch that moves app to status `to`. Leaving
// WISHLIST for APPLIED stamps appliedDate with now unless one is already set.
func (r Rules) Transition(app model.Application, to model.Status, now time.Time) (model.ApplicationPatch, error) {
	if !Valid(to) {
		return model.ApplicationPatch{}, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if app.Status == to {
		return model.ApplicationPatch{}, ErrSameStatus
	}
	if !r.CanTransition(app.Status, to) {
		return model.ApplicationPatch{}, fmt.Errorf("%w: %s -> %s", ErrTransitionBlocked, app.Status, to)
	}
	patch := model.ApplicationPatch{Status: &to}
	if app.Status == model.StatusWishlist && to == model.StatusApplied && app.AppliedDate == nil {
		patch.AppliedDate = model.Value(now)
	}
	return patch, nil
}

// IsArchived reports whether s belongs to the archive bucket.
func IsArchived(s model.Status) bool {
	return s == model.StatusRejected || s == model.StatusStalled
}

func Archived(apps []model.Application) []model.Application {
	out := make([]model.Application, 0)
	for _, a := range apps {
		if IsArchived(a.Status) {
			out = append(out, a)
		}
	}
	return out
}

// IsActive reports whether s is waiting on the employer.
func IsActive(s model.Status) bool {
	switch s {
	case model.StatusApplied, model.StatusOAReceived, model.StatusInterviewScheduled:
		return true
	}
	return false
}

// Stale returns active applications last updated strictly before now minus
// days days.
func Stale(apps []model.Application, now time.Time, days int) []model.Application {
	if days <= 0 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -days)
	out := make([]model.Application, 0)
	for _, a := range apps {
		if IsActive(a.Status) && a.UpdatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}
