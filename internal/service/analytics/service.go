// Package analytics builds the staff dashboard snapshot from SQL
// aggregates and serves it from a short-lived cache.
package analytics

import (
	"context"
	"math"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/medjourney/portal-api/internal/model"
	"github.com/medjourney/portal-api/internal/repository"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/metrics"
)

const (
	snapshotKey = "overview"
	snapshotTTL = 60 * time.Second
)

type Service struct {
	repo    repository.AnalyticsRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
}

func NewService(repo repository.AnalyticsRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   cache.New(snapshotTTL, 5*time.Minute),
		metrics: m,
	}
}

// Overview returns the dashboard snapshot. Staff only. Snapshots are
// cached for a minute; dashboards tolerate that staleness.
func (s *Service) Overview(ctx context.Context, scope model.AccessScope) (*model.AnalyticsOverview, error) {
	if !scope.Staff() {
		return nil, apperrors.Forbidden("staff access required", nil)
	}

	if cached, ok := s.cache.Get(snapshotKey); ok {
		return cached.(*model.AnalyticsOverview), nil
	}

	overview, err := s.build(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.cache.Set(snapshotKey, overview, cache.DefaultExpiration)
	s.metrics.AnalyticsRefresh.Inc()
	return overview, nil
}

func (s *Service) build(ctx context.Context) (*model.AnalyticsOverview, error) {
	patients, err := s.repo.CountPatients(ctx)
	if err != nil {
		return nil, err
	}
	plansByStatus, err := s.repo.CountPlansByStatus(ctx)
	if err != nil {
		return nil, err
	}
	patientsByRegion, err := s.repo.CountPatientsByRegion(ctx)
	if err != nil {
		return nil, err
	}
	plansByMonth, err := s.repo.PlansByMonth(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.TaskTotals(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnreadMessages(ctx)
	if err != nil {
		return nil, err
	}

	totalPlans := 0
	for _, n := range plansByStatus {
		totalPlans += n
	}

	return &model.AnalyticsOverview{
		TotalPatients:      patients,
		TotalPlans:         totalPlans,
		PlansByStatus:      plansByStatus,
		PatientsByRegion:   patientsByRegion,
		PlansByMonth:       plansByMonth,
		TaskTotals:         totals,
		TaskCompletionPct:  CompletionPct(totals.Completed, totals.Total),
		UnreadMessageCount: unread,
	}, nil
}

// CompletionPct is the rounded task completion percentage. Zero tasks
// means zero percent, never a division by zero.
func CompletionPct(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
