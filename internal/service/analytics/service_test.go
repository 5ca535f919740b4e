package analytics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medjourney/portal-api/internal/model"
	apperrors "github.com/medjourney/portal-api/pkg/errors"
	"github.com/medjourney/portal-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate collector registration.
var testMetrics = metrics.NewMetrics("portal", "analyticstest")

type fakeAnalyticsRepo struct {
	patientCalls int
}

func (f *fakeAnalyticsRepo) CountPatients(ctx context.Context) (int, error) {
	f.patientCalls++
	return 12, nil
}

func (f *fakeAnalyticsRepo) CountPlansByStatus(ctx context.Context) (map[string]int, error) {
	return map[string]int{
		model.PlanStatusPlanning: 3,
		model.PlanStatusPostOp:   4,
	}, nil
}

func (f *fakeAnalyticsRepo) CountPatientsByRegion(ctx context.Context) (map[string]int, error) {
	return map[string]int{model.RegionAustralia: 8, model.RegionThailand: 4}, nil
}

func (f *fakeAnalyticsRepo) PlansByMonth(ctx context.Context) ([]model.MonthCount, error) {
	return []model.MonthCount{{Month: "2026-03", Count: 7}}, nil
}

func (f *fakeAnalyticsRepo) TaskTotals(ctx context.Context) (model.TaskTotals, error) {
	return model.TaskTotals{Completed: 2, Total: 3}, nil
}

func (f *fakeAnalyticsRepo) CountUnreadMessages(ctx context.Context) (int, error) {
	return 5, nil
}

func TestCompletionPct(t *testing.T) {
	tests := []struct {
		completed int
		total     int
		want      int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompletionPct(tt.completed, tt.total),
			"CompletionPct(%d, %d)", tt.completed, tt.total)
	}
}

func TestOverviewRequiresStaff(t *testing.T) {
	svc := NewService(&fakeAnalyticsRepo{}, testMetrics)

	scope := model.AccessScope{UserID: uuid.New(), Role: model.RolePatient}
	_, err := svc.Overview(context.Background(), scope)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestOverviewBuildsAndCachesSnapshot(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	svc := NewService(repo, testMetrics)
	scope := model.AccessScope{UserID: uuid.New(), Role: model.RoleCoordinator}

	overview, err := svc.Overview(context.Background(), scope)
	require.NoError(t, err)

	assert.Equal(t, 12, overview.TotalPatients)
	assert.Equal(t, 7, overview.TotalPlans, "total plans is the sum across statuses")
	assert.Equal(t, 67, overview.TaskCompletionPct)
	assert.Equal(t, 5, overview.UnreadMessageCount)

	again, err := svc.Overview(context.Background(), scope)
	require.NoError(t, err)
	assert.Same(t, overview, again)
	assert.Equal(t, 1, repo.patientCalls, "second call must come from the cache")
}
