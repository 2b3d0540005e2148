package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// newMockJobRepository creates a GormGangsheetJobRepository with a mocked SQL connection
func newMockJobRepository(t *testing.T) (*GormGangsheetJobRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormGangsheetJobRepository(gormDB), mock, mockDB
}

func jobRowColumns() []string {
	return []string{
		"id", "tenant_id", "order_id", "status", "progress", "settings",
		"total_units", "total_rolls", "result", "artifact_keys",
		"unit_failures", "error_message", "requested_by",
		"started_at", "completed_at", "cancelled_at",
		"created_at", "updated_at", "version",
	}
}

func jobRow(jobID, tenantID, orderID uuid.UUID, status int) []driver.Value {
	now := time.Now()
	return []driver.Value{
		jobID, tenantID, orderID, status, 0,
		`{"RollWidth":"22","RollLength":"120","DPI":300,"Gap":"0.25","Border":false,"BorderSize":"0.04","BorderColor":"#000000"}`,
		0, 0, "", "[]", "[]", "", uuid.New(),
		nil, nil, nil, now, now, 1,
	}
}

func TestNewGormGangsheetJobRepository(t *testing.T) {
	repo, _, mockDB := newMockJobRepository(t)
	defer mockDB.Close()

	assert.NotNil(t, repo)
	assert.NotNil(t, repo.db)
}

func TestGormGangsheetJobRepository_FindByID(t *testing.T) {
	t.Run("finds existing job", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()
		tenantID := uuid.New()
		orderID := uuid.New()

		rows := sqlmock.NewRows(jobRowColumns()).
			AddRow(jobRow(jobID, tenantID, orderID, 2)...)

		mock.ExpectQuery(`SELECT \* FROM "gangsheet_jobs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(jobID, 1).
			WillReturnRows(rows)

		job, err := repo.FindByID(context.Background(), jobID)

		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, jobID, job.ID)
		assert.Equal(t, orderID, job.OrderID)
		assert.Equal(t, gangsheet.JobPhaseCalculating, job.Phase)
		assert.Equal(t, 300, job.Settings.DPI)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing job", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "gangsheet_jobs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(jobID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		job, err := repo.FindByID(context.Background(), jobID)

		assert.Nil(t, job)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormGangsheetJobRepository_FindByIDForTenant(t *testing.T) {
	repo, mock, mockDB := newMockJobRepository(t)
	defer mockDB.Close()

	jobID := uuid.New()
	tenantID := uuid.New()
	orderID := uuid.New()

	rows := sqlmock.NewRows(jobRowColumns()).
		AddRow(jobRow(jobID, tenantID, orderID, 0)...)

	mock.ExpectQuery(`SELECT \* FROM "gangsheet_jobs" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
		WithArgs(tenantID, jobID, 1).
		WillReturnRows(rows)

	job, err := repo.FindByIDForTenant(context.Background(), tenantID, jobID)

	require.NoError(t, err)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Equal(t, gangsheet.JobPhasePending, job.Phase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGangsheetJobRepository_FindByOrder(t *testing.T) {
	repo, mock, mockDB := newMockJobRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	orderID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	rows := sqlmock.NewRows(jobRowColumns()).
		AddRow(jobRow(first, tenantID, orderID, 5)...).
		AddRow(jobRow(second, tenantID, orderID, 6)...)

	mock.ExpectQuery(`SELECT \* FROM "gangsheet_jobs" WHERE tenant_id = \$1 AND order_id = \$2 ORDER BY created_at DESC`).
		WithArgs(tenantID, orderID).
		WillReturnRows(rows)

	jobs, err := repo.FindByOrder(context.Background(), tenantID, orderID)

	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, gangsheet.JobPhaseCompleted, jobs[0].Phase)
	assert.Equal(t, gangsheet.JobPhaseFailed, jobs[1].Phase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGangsheetJobRepository_FindByPhase(t *testing.T) {
	repo, mock, mockDB := newMockJobRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()

	rows := sqlmock.NewRows(jobRowColumns()).
		AddRow(jobRow(uuid.New(), tenantID, uuid.New(), 3)...)

	mock.ExpectQuery(`SELECT \* FROM "gangsheet_jobs" WHERE tenant_id = \$1 AND status = \$2 ORDER BY created_at DESC`).
		WithArgs(tenantID, 3).
		WillReturnRows(rows)

	jobs, err := repo.FindByPhase(context.Background(), tenantID, gangsheet.JobPhaseGenerating, shared.Filter{})

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, gangsheet.JobPhaseGenerating, jobs[0].Phase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGangsheetJobRepository_Delete(t *testing.T) {
	t.Run("deletes existing job", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()

		mock.ExpectExec(`DELETE FROM "gangsheet_jobs" WHERE id = \$1`).
			WithArgs(jobID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), jobID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when nothing deleted", func(t *testing.T) {
		repo, mock, mockDB := newMockJobRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()

		mock.ExpectExec(`DELETE FROM "gangsheet_jobs" WHERE id = \$1`).
			WithArgs(jobID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Equal(t, shared.ErrNotFound, repo.Delete(context.Background(), jobID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormGangsheetJobRepository_CountForTenant(t *testing.T) {
	repo, mock, mockDB := newMockJobRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "gangsheet_jobs" WHERE tenant_id = \$1`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountForTenant(context.Background(), tenantID, shared.Filter{})

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
