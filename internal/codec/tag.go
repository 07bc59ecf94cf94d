package codec

import (
	"fmt"

	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
)

func TagFromRow(row gateway.Row) (model.Tag, error) {
	r := &reader{row: row}
	t := model.Tag{
		ID:        r.requiredStr("id"),
		UserID:    r.str("user_id"),
		Name:      r.str("name"),
		Color:     r.str("color"),
		CreatedAt: r.time("created_at"),
	}
	if r.err != nil {
		return model.Tag{}, fmt.Errorf("decode tag: %w", r.err)
	}
	return t, nil
}

func TagRow(t model.Tag) gateway.Row {
	return gateway.Row{
		"id":         t.ID,
		"user_id":    t.UserID,
		"name":       t.Name,
		"color":      t.Color,
		"created_at": FormatTime(t.CreatedAt),
	}
}

func TagInsertRow(d model.TagDraft, userID string) gateway.Row {
	return gateway.Row{
		"user_id": userID,
		"name":    d.Name,
		"color":   d.Color,
	}
}

func TagPatchRow(p model.TagPatch) gateway.Row {
	row := gateway.Row{}
	if p.Name != nil {
		row["name"] = *p.Name
	}
	if p.Color != nil {
		row["color"] = *p.Color
	}
	return row
}

func LinkRow(applicationID, tagID string) gateway.Row {
	return gateway.Row{"application_id": applicationID, "tag_id": tagID}
}

func LinkFromJoin(j gateway.JoinRow) (model.ApplicationTag, error) {
	t, err := TagFromRow(j.Tag)
	if err != nil {
		return model.ApplicationTag{}, err
	}
	return model.ApplicationTag{ApplicationID: j.ApplicationID, TagID: t.ID, Tag: t}, nil
}
