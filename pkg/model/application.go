package model

import "time"

type Status string

const (
	StatusWishlist           Status = "WISHLIST"
	StatusApplied            Status = "APPLIED"
	StatusOAReceived         Status = "OA_RECEIVED"
	StatusInterviewScheduled Status = "INTERVIEW_SCHEDULED"
	StatusOffer              Status = "OFFER"
	StatusRejected           Status = "REJECTED"
	StatusStalled            Status = "STALLED"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type JobType string

const (
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeContract   JobType = "CONTRACT"
)

const DefaultCurrency = "USD"

type Application struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	CompanyName  string     `json:"company_name" db:"company_name"`
	JobTitle     string     `json:"job_title" db:"job_title"`
	JobURL       *string    `json:"job_url,omitempty" db:"job_url"`
	Location     *string    `json:"location,omitempty" db:"location"`
	RemotePolicy *string    `json:"remote_policy,omitempty" db:"remote_policy"`
	Status       Status     `json:"status" db:"status"`
	Priority     Priority   `json:"priority" db:"priority"`
	JobType      JobType    `json:"job_type" db:"job_type"`
	SalaryMin    *int64     `json:"salary_min,omitempty" db:"salary_min"`
	SalaryMax    *int64     `json:"salary_max,omitempty" db:"salary_max"`
	Currency     string     `json:"currency" db:"currency"`
	AppliedDate  *time.Time `json:"applied_date,omitempty" db:"applied_date"`
	Notes        *string    `json:"notes,omitempty" db:"notes"`
	ResumeID     *string    `json:"resume_id,omitempty" db:"resume_id"`
	Tags         []Tag      `json:"tags,omitempty"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Clone returns a copy that shares no pointers with a.
func (a Application) Clone() Application {
	out := a
	out.JobURL = clonePtr(a.JobURL)
	out.Location = clonePtr(a.Location)
	out.RemotePolicy = clonePtr(a.RemotePolicy)
	out.SalaryMin = clonePtr(a.SalaryMin)
	out.SalaryMax = clonePtr(a.SalaryMax)
	out.AppliedDate = clonePtr(a.AppliedDate)
	out.Notes = clonePtr(a.Notes)
	out.ResumeID = clonePtr(a.ResumeID)
	if a.Tags != nil {
		out.Tags = append([]Tag(nil), a.Tags...)
	}
	return out
}

// HasTag reports whether the application carries tagID.
func (a Application) HasTag(tagID string) bool {
	for _, t := range a.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

type ApplicationDraft struct {
	CompanyName  string     `json:"company_name" validate:"required" binding:"required"`
	JobTitle     string     `json:"job_title" validate:"required" binding:"required"`
	JobURL       *string    `json:"job_url" validate:"omitempty,url"`
	Location     *string    `json:"location"`
	RemotePolicy *string    `json:"remote_policy"`
	Status       Status     `json:"status" validate:"omitempty,oneof=WISHLIST APPLIED OA_RECEIVED INTERVIEW_SCHEDULED OFFER REJECTED STALLED"`
	Priority     Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	JobType      JobType    `json:"job_type" validate:"omitempty,oneof=FULL_TIME PART_TIME INTERNSHIP CONTRACT"`
	SalaryMin    *int64     `json:"salary_min" validate:"omitempty,gt=0"`
	SalaryMax    *int64     `json:"salary_max" validate:"omitempty,gt=0"`
	Currency     string     `json:"currency"`
	AppliedDate  *time.Time `json:"applied_date"`
	Notes        *string    `json:"notes"`
	ResumeID     *string    `json:"resume_id"`
}

// ApplicationPatch carries only the fields being changed.
type ApplicationPatch struct {
	CompanyName  *string             `json:"company_name,omitempty" validate:"omitnil,min=1"`
	JobTitle     *string             `json:"job_title,omitempty" validate:"omitnil,min=1"`
	JobURL       Nullable[string]    `json:"job_url"`
	Location     Nullable[string]    `json:"location"`
	RemotePolicy Nullable[string]    `json:"remote_policy"`
	Status       *Status             `json:"status,omitempty" validate:"omitnil,oneof=WISHLIST APPLIED OA_RECEIVED INTERVIEW_SCHEDULED OFFER REJECTED STALLED"`
	Priority     *Priority           `json:"priority,omitempty" validate:"omitnil,oneof=LOW MEDIUM HIGH"`
	JobType      *JobType            `json:"job_type,omitempty" validate:"omitnil,oneof=FULL_TIME PART_TIME INTERNSHIP CONTRACT"`
	SalaryMin    Nullable[int64]     `json:"salary_min"`
	SalaryMax    Nullable[int64]     `json:"salary_max"`
	Currency     *string             `json:"currency,omitempty" validate:"omitnil,min=1"`
	AppliedDate  Nullable[time.Time] `json:"applied_date"`
	Notes        Nullable[string]    `json:"notes"`
	ResumeID     Nullable[string]    `json:"resume_id"`
}

// Apply shallow-merges p into a.
func (p ApplicationPatch) Apply(a *Application) {
	if p.CompanyName != nil {
		a.CompanyName = *p.CompanyName
	}
	if p.JobTitle != nil {
		a.JobTitle = *p.JobTitle
	}
	if p.JobURL.IsSet() {
		a.JobURL = p.JobURL.Ptr()
	}
	if p.Location.IsSet() {
		a.Location = p.Location.Ptr()
	}
	if p.RemotePolicy.IsSet() {
		a.RemotePolicy = p.RemotePolicy.Ptr()
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	if p.JobType != nil {
		a.JobType = *p.JobType
	}
	if p.SalaryMin.IsSet() {
		a.SalaryMin = p.SalaryMin.Ptr()
	}
	if p.SalaryMax.IsSet() {
		a.SalaryMax = p.SalaryMax.Ptr()
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.AppliedDate.IsSet() {
		a.AppliedDate = p.AppliedDate.Ptr()
	}
	if p.Notes.IsSet() {
		a.Notes = p.Notes.Ptr()
	}
	if p.ResumeID.IsSet() {
		a.ResumeID = p.ResumeID.Ptr()
	}
}

type MoveApplicationReq struct {
	Status Status `json:"status" binding:"required"`
}

type BulkStatusReq struct {
	IDs    []string `json:"ids" binding:"required,min=1,max=100"`
	Status Status   `json:"status" binding:"required"`
}

type BulkDeleteReq struct {
	IDs []string `json:"ids" binding:"required,min=1,max=100"`
}

type SelectionReq struct {
	IDs []string `json:"ids"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
