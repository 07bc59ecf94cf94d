package pipeline

import "github.com/abhishek622/careerflow/pkg/model"

type StatusCount struct {
	Status model.Status `json:"status"`
	Label  string       `json:"label"`
	Count  int          `json:"count"`
}

type Summary struct {
	Total         int           `json:"total"`
	Applied       int           `json:"applied"`
	Interviews    int           `json:"interviews"`
	Offers        int           `json:"offers"`
	Rejected      int           `json:"rejected"`
	InterviewRate int           `json:"interview_rate"` // percent of applied
	OfferRate     int           `json:"offer_rate"`     // percent of applied
	ByStatus      []StatusCount `json:"by_status"`
}

// Summarize counts apps per status. Everything past WISHLIST counts as applied.
func Summarize(apps []model.Application) Summary {
	counts := make(map[model.Status]int, len(Statuses))
	for _, a := range apps {
		counts[a.Status]++
	}

	s := Summary{
		Total:      len(apps),
		Applied:    len(apps) - counts[model.StatusWishlist],
		Interviews: counts[model.StatusInterviewScheduled],
		Offers:     counts[model.StatusOffer],
		Rejected:   counts[model.StatusRejected],
		ByStatus:   make([]StatusCount, 0, len(Statuses)),
	}
	if s.Applied > 0 {
		s.InterviewRate = percent(s.Interviews, s.Applied)
		s.OfferRate = percent(s.Offers, s.Applied)
	}
	for _, st := range Statuses {
		s.ByStatus = append(s.ByStatus, StatusCount{Status: st, Label: Label(st), Count: counts[st]})
	}
	return s
}

// percent rounds half up like the dashboard does.
func percent(part, whole int) int {
	return (part*200 + whole) / (whole * 2)
}
