package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
)

func TestStatusCodeForPhase(t *testing.T) {
	// Stored codes are schema, not implementation detail.
	tests := []struct {
		phase gangsheet.JobPhase
		code  int
	}{
		{gangsheet.JobPhasePending, 0},
		{gangsheet.JobPhaseFetchingDesigns, 1},
		{gangsheet.JobPhaseCalculating, 2},
		{gangsheet.JobPhaseGenerating, 3},
		{gangsheet.JobPhaseUploading, 4},
		{gangsheet.JobPhaseCompleted, 5},
		{gangsheet.JobPhaseFailed, 6},
		{gangsheet.JobPhaseCancelled, 7},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			code, err := StatusCodeForPhase(tt.phase)
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)
		})
	}

	_, err := StatusCodeForPhase(gangsheet.JobPhase("BOGUS"))
	assert.Error(t, err)
}

func TestGangsheetJobModel_RoundTrip(t *testing.T) {
	settings := gangsheet.DefaultRollSettings()
	job, err := gangsheet.NewGangsheetJob(uuid.New(), uuid.New(), uuid.New(), settings)
	require.NoError(t, err)

	require.NoError(t, job.AdvancePhase(gangsheet.JobPhaseFetchingDesigns))
	require.NoError(t, job.AdvancePhase(gangsheet.JobPhaseCalculating))

	units, err := gangsheet.ExpandUnits([]gangsheet.DesignInput{{
		SourceURL:      "https://cdn.example.com/a.png",
		OriginalWidth:  800,
		OriginalHeight: 800,
		TargetWidth:    decimal.NewFromFloat(2.5),
		Quantity:       2,
		OrderID:        job.OrderID,
		OrderProductID: uuid.New(),
	}}, settings)
	require.NoError(t, err)
	result, err := gangsheet.NewPlanner(settings).Plan(units)
	require.NoError(t, err)
	require.NoError(t, job.RecordPlan(result))
	job.RecordUnitFailures([]gangsheet.UnitFailure{{RollNumber: 1, Seq: 1, Reason: "fetch failed"}})

	model, err := GangsheetJobModelFromDomain(job)
	require.NoError(t, err)
	assert.Equal(t, 2, model.Status)
	assert.Equal(t, "gangsheet_jobs", model.TableName())

	restored, err := model.ToDomain()
	require.NoError(t, err)

	assert.Equal(t, job.ID, restored.ID)
	assert.Equal(t, job.TenantID, restored.TenantID)
	assert.Equal(t, gangsheet.JobPhaseCalculating, restored.Phase)
	assert.True(t, restored.Settings.Equals(job.Settings))
	assert.Equal(t, job.TotalUnits, restored.TotalUnits)
	require.NotNil(t, restored.Result)
	assert.Equal(t, result.TotalRolls, restored.Result.TotalRolls)
	require.Len(t, restored.UnitFailures, 1)
	assert.Equal(t, "fetch failed", restored.UnitFailures[0].Reason)
	require.NotNil(t, restored.StartedAt)
}

func TestGangsheetJobModel_UnknownStatus(t *testing.T) {
	model := &GangsheetJobModel{ID: uuid.New(), Status: 42, Settings: "{}"}
	_, err := model.ToDomain()
	assert.Error(t, err)
}

func TestRollSettingsModel_RoundTrip(t *testing.T) {
	tenantID := uuid.New()
	settings := gangsheet.DefaultRollSettings()

	model := RollSettingsModelFromDomain(tenantID, settings)
	assert.Equal(t, tenantID, model.TenantID)
	assert.Equal(t, "tenant_roll_settings", model.TableName())

	restored := model.ToDomain()
	assert.True(t, restored.Equals(settings))
}
