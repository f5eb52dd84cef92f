package web

import (
	"domainacq/internal/models"
	"domainacq/internal/services"
)

// DashboardView is the data behind dashboard.html.
type DashboardView struct {
	Total   int
	Pending int
	Found   int
	Done    int
	Failed  int
	Run     services.BatchRun
	Active  []models.ImportedDomain
}

// NewDashboardView counts records per status and keeps the ones that still
// need attention.
func NewDashboardView(records []models.ImportedDomain, run services.BatchRun) DashboardView {
	stats := models.CountByStatus(records)
	v := DashboardView{
		Total:   stats.Total,
		Pending: stats.ByStatus[models.StatusPending],
		Found:   stats.ByStatus[models.StatusFound],
		Done:    stats.ByStatus[models.StatusDone],
		Failed:  stats.ByStatus[models.StatusError],
		Run:     run,
	}
	for _, r := range records {
		if r.Status != models.StatusDone {
			v.Active = append(v.Active, r)
		}
	}
	return v
}

type RecordsView struct {
	Records []models.ImportedDomain
}
