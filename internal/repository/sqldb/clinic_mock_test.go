package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-directory/internal/model"
)

var serviceColumns = []string{"id", "name", "code", "description", "average_price", "is_active", "created_at"}

func newMockRepo(t *testing.T, ids ...string) (*clinicRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	base, err := NewBaseRepository(sqlx.NewDb(mockDB, DriverPostgres), nil)
	require.NoError(t, err)

	repo := NewClinicRepository(base, &fixedIDs{ids: ids}, 3).(*clinicRepository)
	return repo, mock
}

func TestCreateClinicRollsBackOnFailedServiceInsert(t *testing.T) {
	repo, mock := newMockRepo(t, "CL202400001")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM clinics WHERE id = \$1`).
		WithArgs("CL202400001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO clinics`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM services`).
		WithArgs("SRV001").
		WillReturnRows(sqlmock.NewRows(serviceColumns).
			AddRow("SRV001", "General Consultation", "CONSULT", "", 150.0, true, time.Now()))
	mock.ExpectExec(`INSERT INTO clinic_services`).
		WithArgs("CL202400001", "SRV001", 150.0, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`FROM services`).
		WithArgs("SRV003").
		WillReturnRows(sqlmock.NewRows(serviceColumns).
			AddRow("SRV003", "Blood Test", "BLOOD", "", 100.0, true, time.Now()))
	mock.ExpectExec(`INSERT INTO clinic_services`).
		WithArgs("CL202400001", "SRV003", 90.0, true).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	price := 90.0
	clinic, err := repo.Create(context.Background(), newClinic(
		model.ServiceSelection{ServiceID: "SRV001"},
		model.ServiceSelection{ServiceID: "SRV003", Price: &price},
	))

	require.Error(t, err)
	assert.Nil(t, clinic)
	assert.ErrorContains(t, err, "failed to add clinic service SRV003")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClinicRetriesOnConcurrentIDInsert(t *testing.T) {
	repo, mock := newMockRepo(t, "CL202400001", "CL202400002")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM clinics`).
		WithArgs("CL202400001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO clinics`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint \"clinics_pkey\""})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM clinics`).
		WithArgs("CL202400002").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO clinics`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM services`).
		WithArgs("SRV002").
		WillReturnRows(sqlmock.NewRows(serviceColumns).
			AddRow("SRV002", "X-Ray Imaging", "XRAY", "", 200.0, true, time.Now()))
	mock.ExpectExec(`INSERT INTO clinic_services`).
		WithArgs("CL202400002", "SRV002", 200.0, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	clinic, err := repo.Create(context.Background(), newClinic(model.ServiceSelection{ServiceID: "SRV002"}))

	require.NoError(t, err)
	assert.Equal(t, "CL202400002", clinic.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClinicsStoreError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM "clinics" AS "c"`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background())
	assert.ErrorContains(t, err, "failed to list clinics")
	assert.NoError(t, mock.ExpectationsWereMet())
}
