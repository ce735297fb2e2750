package service

import "github.com/spec-kit/incident-service/internal/domain"

// Aggregate counts incidents per status in one pass. Total is the independent
// count of every incident, so an unrecognized status makes Total exceed the sum
// of the buckets instead of disappearing.
func Aggregate(incidents []domain.Incident) domain.Stats {
	stats := domain.Stats{Total: int64(len(incidents))}
	for _, incident := range incidents {
		switch incident.Status {
		case domain.StatusOpen:
			stats.Open++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusResolved:
			stats.Resolved++
		case domain.StatusClosed:
			stats.Closed++
		default:
			stats.Unrecognized++
		}
	}
	return stats
}
