package model

import "time"

// TagColors is the fixed palette a tag color must come from.
var TagColors = []string{
	"#ef4444", // red
	"#f97316", // orange
	"#eab308", // yellow
	"#22c55e", // green
	"#14b8a6", // teal
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#6b7280", // gray
}

func IsTagColor(c string) bool {
	for _, p := range TagColors {
		if p == c {
			return true
		}
	}
	return false
}

type Tag struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ApplicationTag links one application to one tag. The pair is unique.
type ApplicationTag struct {
	ApplicationID string `json:"application_id" db:"application_id"`
	TagID         string `json:"tag_id" db:"tag_id"`
	Tag           Tag    `json:"tag"`
}

type TagDraft struct {
	Name  string `json:"name" validate:"required" binding:"required"`
	Color string `json:"color" validate:"required" binding:"required"`
}

type TagPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitnil,min=1"`
	Color *string `json:"color,omitempty"`
}

func (p TagPatch) Apply(t *Tag) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
}

type TagLinkReq struct {
	TagID string `json:"tag_id" binding:"required"`
}
