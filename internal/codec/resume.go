package codec

import (
	"fmt"
	"time"

	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
)

func ResumeFromRow(row gateway.Row) (model.Resume, error) {
	r := &reader{row: row}
	res := model.Resume{
		ID:        r.requiredStr("id"),
		UserID:    r.str("user_id"),
		Name:      r.str("name"),
		FileURL:   r.optStr("file_url"),
		Version:   r.optStr("version"),
		IsDefault: r.boolean("is_default"),
		Notes:     r.optStr("notes"),
		CreatedAt: r.time("created_at"),
		UpdatedAt: r.time("updated_at"),
	}
	if r.err != nil {
		return model.Resume{}, fmt.Errorf("decode resume: %w", r.err)
	}
	return res, nil
}

func ResumeRow(res model.Resume) gateway.Row {
	return gateway.Row{
		"id":         res.ID,
		"user_id":    res.UserID,
		"name":       res.Name,
		"file_url":   optString(res.FileURL),
		"version":    optString(res.Version),
		"is_default": res.IsDefault,
		"notes":      optString(res.Notes),
		"created_at": FormatTime(res.CreatedAt),
		"updated_at": FormatTime(res.UpdatedAt),
	}
}

func ResumeInsertRow(d model.ResumeDraft, userID string) gateway.Row {
	return gateway.Row{
		"user_id":    userID,
		"name":       d.Name,
		"file_url":   optString(d.FileURL),
		"version":    optString(d.Version),
		"is_default": d.IsDefault,
		"notes":      optString(d.Notes),
	}
}

func ResumePatchRow(p model.ResumePatch, now time.Time) gateway.Row {
	row := gateway.Row{"updated_at": FormatTime(now)}
	if p.Name != nil {
		row["name"] = *p.Name
	}
	if p.FileURL.IsSet() {
		row["file_url"] = optString(p.FileURL.Ptr())
	}
	if p.Version.IsSet() {
		row["version"] = optString(p.Version.Ptr())
	}
	if p.IsDefault != nil {
		row["is_default"] = *p.IsDefault
	}
	if p.Notes.IsSet() {
		row["notes"] = optString(p.Notes.Ptr())
	}
	return row
}
