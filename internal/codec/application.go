package codec

import (
	"fmt"
	"time"

	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
)

func ApplicationFromRow(row gateway.Row) (model.Application, error) {
	r := &reader{row: row}
	a := model.Application{
		ID:           r.requiredStr("id"),
		UserID:       r.str("user_id"),
		CompanyName:  r.str("company_name"),
		JobTitle:     r.str("job_title"),
		JobURL:       r.optStr("job_url"),
		Location:     r.optStr("location"),
		RemotePolicy: r.optStr("remote_policy"),
		Status:       model.Status(r.str("status")),
		Priority:     model.Priority(r.str("priority")),
		JobType:      model.JobType(r.str("job_type")),
		SalaryMin:    r.optInt("salary_min"),
		SalaryMax:    r.optInt("salary_max"),
		Currency:     r.str("currency"),
		AppliedDate:  r.optTime("applied_date"),
		Notes:        r.optStr("notes"),
		ResumeID:     r.optStr("resume_id"),
		CreatedAt:    r.time("created_at"),
		UpdatedAt:    r.time("updated_at"),
	}
	if r.err != nil {
		return model.Application{}, fmt.Errorf("decode application: %w", r.err)
	}
	return a, nil
}

// ApplicationRow encodes every stored column of a.
func ApplicationRow(a model.Application) gateway.Row {
	return gateway.Row{
		"id":            a.ID,
		"user_id":       a.UserID,
		"company_name":  a.CompanyName,
		"job_title":     a.JobTitle,
		"job_url":       optString(a.JobURL),
		"location":      optString(a.Location),
		"remote_policy": optString(a.RemotePolicy),
		"status":        string(a.Status),
		"priority":      string(a.Priority),
		"job_type":      string(a.JobType),
		"salary_min":    optInt(a.SalaryMin),
		"salary_max":    optInt(a.SalaryMax),
		"currency":      a.Currency,
		"applied_date":  optTime(a.AppliedDate),
		"notes":         optString(a.Notes),
		"resume_id":     optString(a.ResumeID),
		"created_at":    FormatTime(a.CreatedAt),
		"updated_at":    FormatTime(a.UpdatedAt),
	}
}

// ApplicationInsertRow encodes a draft for insert. The gateway assigns id and timestamps.
func ApplicationInsertRow(d model.ApplicationDraft, userID string) gateway.Row {
	return gateway.Row{
		"user_id":       userID,
		"company_name":  d.CompanyName,
		"job_title":     d.JobTitle,
		"job_url":       optString(d.JobURL),
		"location":      optString(d.Location),
		"remote_policy": optString(d.RemotePolicy),
		"status":        string(d.Status),
		"priority":      string(d.Priority),
		"job_type":      string(d.JobType),
		"salary_min":    optInt(d.SalaryMin),
		"salary_max":    optInt(d.SalaryMax),
		"currency":      d.Currency,
		"applied_date":  optTime(d.AppliedDate),
		"notes":         optString(d.Notes),
		"resume_id":     optString(d.ResumeID),
	}
}

// ApplicationPatchRow encodes only the fields set on p, plus updated_at.
func ApplicationPatchRow(p model.ApplicationPatch, now time.Time) gateway.Row {
	row := gateway.Row{"updated_at": FormatTime(now)}
	if p.CompanyName != nil {
		row["company_name"] = *p.CompanyName
	}
	if p.JobTitle != nil {
		row["job_title"] = *p.JobTitle
	}
	if p.JobURL.IsSet() {
		row["job_url"] = optString(p.JobURL.Ptr())
	}
	if p.Location.IsSet() {
		row["location"] = optString(p.Location.Ptr())
	}
	if p.RemotePolicy.IsSet() {
		row["remote_policy"] = optString(p.RemotePolicy.Ptr())
	}
	if p.Status != nil {
		row["status"] = string(*p.Status)
	}
	if p.Priority != nil {
		row["priority"] = string(*p.Priority)
	}
	if p.JobType != nil {
		row["job_type"] = string(*p.JobType)
	}
	if p.SalaryMin.IsSet() {
		row["salary_min"] = optInt(p.SalaryMin.Ptr())
	}
	if p.SalaryMax.IsSet() {
		row["salary_max"] = optInt(p.SalaryMax.Ptr())
	}
	if p.Currency != nil {
		row["currency"] = *p.Currency
	}
	if p.AppliedDate.IsSet() {
		row["applied_date"] = optTime(p.AppliedDate.Ptr())
	}
	if p.Notes.IsSet() {
		row["notes"] = optString(p.Notes.Ptr())
	}
	if p.ResumeID.IsSet() {
		row["resume_id"] = optString(p.ResumeID.Ptr())
	}
	return row
}
