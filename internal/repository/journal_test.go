package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"p2000-receiver/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockJournalDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *JournalRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewJournalRepository(db, logger)

	return db, mock, repo
}

func TestEnsureSchema(t *testing.T) {
	db, mock, repo := setupMockJournalDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS p2000_dispatch_log`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Success(t *testing.T) {
	db, mock, repo := setupMockJournalDB(t)
	defer db.Close()

	entry := models.JournalEntry{
		MessageID: uuid.New().String(),
		Sensor:    "p2000",
		Decision:  models.DecisionPosted,
		Reason:    "keyword",
		Body:      "A1 Kerkstraat 1234AB Amsterdam",
		Region:    "Amsterdam-Amstelland",
		MapURL:    "https://osm.example/1",
	}

	mock.ExpectExec(`INSERT INTO p2000_dispatch_log`).
		WithArgs(entry.MessageID, entry.Sensor, entry.Decision, entry.Reason, entry.Body, entry.Region, entry.MapURL).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Record(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DatabaseError(t *testing.T) {
	db, mock, repo := setupMockJournalDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO p2000_dispatch_log`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Record(context.Background(), models.JournalEntry{MessageID: uuid.New().String(), Sensor: "p2000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record dispatch decision")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Validation(t *testing.T) {
	db, mock, repo := setupMockJournalDB(t)
	defer db.Close()

	assert.Error(t, repo.Record(context.Background(), models.JournalEntry{Sensor: "p2000"}))
	assert.Error(t, repo.Record(context.Background(), models.JournalEntry{MessageID: uuid.New().String()}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountBySensor(t *testing.T) {
	db, mock, repo := setupMockJournalDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM p2000_dispatch_log`).
		WithArgs("p2000", models.DecisionSkipped).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountBySensor(context.Background(), "p2000", models.DecisionSkipped)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
