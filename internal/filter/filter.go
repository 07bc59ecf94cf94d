// Package filter derives the visible subset of applications from a set of
// independent filter dimensions and tracks the bulk-action selection.
package filter

import (
	"math"
	"strings"
	"time"

	"github.com/abhishek622/careerflow/pkg/model"
)

// Filters combines every dimension with AND. Inside statuses, priorities
// and job types a match on any value is enough; tags must all be present.
// Empty values mean no constraint.
type Filters struct {
	SearchQuery string           `json:"search_query" form:"q"`
	Statuses    []model.Status   `json:"statuses" form:"status"`
	Priorities  []model.Priority `json:"priorities" form:"priority"`
	JobTypes    []model.JobType  `json:"job_types" form:"job_type"`
	Tags        []string         `json:"tags" form:"tag"`
	Location    string           `json:"location" form:"location"`
	SalaryMin   *int64           `json:"salary_min" form:"salary_min"`
	SalaryMax   *int64           `json:"salary_max" form:"salary_max"`
	DateFrom    *time.Time       `json:"date_from" form:"date_from" time_format:"2006-01-02" time_utc:"1"`
	DateTo      *time.Time       `json:"date_to" form:"date_to" time_format:"2006-01-02" time_utc:"1"`
}

// ActiveCount returns how many dimensions constrain the result.
func (f Filters) ActiveCount() int {
	n := 0
	for _, active := range []bool{
		strings.TrimSpace(f.SearchQuery) != "",
		len(f.Statuses) > 0,
		len(f.Priorities) > 0,
		len(f.JobTypes) > 0,
		len(f.Tags) > 0,
		strings.TrimSpace(f.Location) != "",
		f.SalaryMin != nil || f.SalaryMax != nil,
		f.DateFrom != nil || f.DateTo != nil,
	} {
		if active {
			n++
		}
	}
	return n
}

func (f Filters) IsZero() bool {
	return f.ActiveCount() == 0
}

// Apply returns the applications matching f, keeping their order.
func Apply(apps []model.Application, f Filters) []model.Application {
	out := make([]model.Application, 0, len(apps))
	for _, a := range apps {
		if Match(a, f) {
			out = append(out, a)
		}
	}
	return out
}

func Match(a model.Application, f Filters) bool {
	if q := strings.ToLower(strings.TrimSpace(f.SearchQuery)); q != "" {
		if !containsFold(a.CompanyName, q) &&
			!containsFold(a.JobTitle, q) &&
			!containsFold(deref(a.Notes), q) &&
			!containsFold(deref(a.Location), q) {
			return false
		}
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, a.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, a.Priority) {
		return false
	}
	if len(f.JobTypes) > 0 && !contains(f.JobTypes, a.JobType) {
		return false
	}
	for _, tagID := range f.Tags {
		if !a.HasTag(tagID) {
			return false
		}
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" {
		if !containsFold(deref(a.Location), loc) {
			return false
		}
	}
	if f.SalaryMin != nil {
		var top int64
		if a.SalaryMax != nil {
			top = *a.SalaryMax
		}
		if top < *f.SalaryMin {
			return false
		}
	}
	if f.SalaryMax != nil {
		var bottom int64 = math.MaxInt64
		if a.SalaryMin != nil {
			bottom = *a.SalaryMin
		}
		if bottom > *f.SalaryMax {
			return false
		}
	}
	if a.AppliedDate != nil {
		if f.DateFrom != nil && a.AppliedDate.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && a.AppliedDate.After(*f.DateTo) {
			return false
		}
	}
	return true
}

// Toggle adds v to set when missing and removes it otherwise.
func Toggle[T comparable](set []T, v T) []T {
	out := make([]T, 0, len(set)+1)
	found := false
	for _, s := range set {
		if s == v {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// containsFold expects q already lower-cased.
func containsFold(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
