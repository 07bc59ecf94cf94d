package model

import "time"

type Resume struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	FileURL   *string   `json:"file_url,omitempty" db:"file_url"`
	Version   *string   `json:"version,omitempty" db:"version"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (r Resume) Clone() Resume {
	out := r
	out.FileURL = clonePtr(r.FileURL)
	out.Version = clonePtr(r.Version)
	out.Notes = clonePtr(r.Notes)
	return out
}

type ResumeDraft struct {
	Name      string  `json:"name" validate:"required" binding:"required"`
	FileURL   *string `json:"file_url" validate:"omitempty,url"`
	Version   *string `json:"version"`
	IsDefault bool    `json:"is_default"`
	Notes     *string `json:"notes"`
}

type ResumePatch struct {
	Name      *string          `json:"name,omitempty" validate:"omitnil,min=1"`
	FileURL   Nullable[string] `json:"file_url"`
	Version   Nullable[string] `json:"version"`
	IsDefault *bool            `json:"is_default,omitempty"`
	Notes     Nullable[string] `json:"notes"`
}

func (p ResumePatch) Apply(r *Resume) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.FileURL.IsSet() {
		r.FileURL = p.FileURL.Ptr()
	}
	if p.Version.IsSet() {
		r.Version = p.Version.Ptr()
	}
	if p.IsDefault != nil {
		r.IsDefault = *p.IsDefault
	}
	if p.Notes.IsSet() {
		r.Notes = p.Notes.Ptr()
	}
}
