package model

import "time"

type EventType string

const (
	EventInterview EventType = "interview"
	EventOA        EventType = "oa"
	EventDeadline  EventType = "deadline"
	EventFollowup  EventType = "followup"
)

// CalendarEvent is kept on the device only and never synced to the gateway.
type CalendarEvent struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	ApplicationID *string   `json:"application_id,omitempty" db:"application_id"`
	CompanyName   string    `json:"company_name" db:"company_name"`
	Title         string    `json:"title" db:"title"`
	Type          EventType `json:"type" db:"type"`
	Date          time.Time `json:"date" db:"date"`
	Time          *string   `json:"time,omitempty" db:"time"`
	Notes         *string   `json:"notes,omitempty" db:"notes"`
	Completed     bool      `json:"completed" db:"completed"`
}

type EventDraft struct {
	ID            string    `json:"id"`
	ApplicationID *string   `json:"application_id"`
	CompanyName   string    `json:"company_name" validate:"required" binding:"required"`
	Title         string    `json:"title" validate:"required" binding:"required"`
	Type          EventType `json:"type" validate:"required,oneof=interview oa deadline followup" binding:"required"`
	Date          time.Time `json:"date" validate:"required" binding:"required"`
	Time          *string   `json:"time"`
	Notes         *string   `json:"notes"`
	Completed     bool      `json:"completed"`
}

type EventPatch struct {
	ApplicationID Nullable[string] `json:"application_id"`
	CompanyName   *string          `json:"company_name,omitempty" validate:"omitnil,min=1"`
	Title         *string          `json:"title,omitempty" validate:"omitnil,min=1"`
	Type          *EventType       `json:"type,omitempty" validate:"omitnil,oneof=interview oa deadline followup"`
	Date          *time.Time       `json:"date,omitempty"`
	Time          Nullable[string] `json:"time"`
	Notes         Nullable[string] `json:"notes"`
	Completed     *bool            `json:"completed,omitempty"`
}

func (p EventPatch) Apply(e *CalendarEvent) {
	if p.ApplicationID.IsSet() {
		e.ApplicationID = p.ApplicationID.Ptr()
	}
	if p.CompanyName != nil {
		e.CompanyName = *p.CompanyName
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time.IsSet() {
		e.Time = p.Time.Ptr()
	}
	if p.Notes.IsSet() {
		e.Notes = p.Notes.Ptr()
	}
	if p.Completed != nil {
		e.Completed = *p.Completed
	}
}
