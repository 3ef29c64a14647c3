package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cadence-health/carebrief/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more
// robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func testRecord() schemas.SummaryRecord {
	return schemas.SummaryRecord{
		ID:         uuid.NewString(),
		Persona:    schemas.PersonaPatient,
		TemplateID: "patient-summary-v2",
		Summary:    "Jane is doing well overall.",
		Sections: []schemas.Section{
			{
				ID: "conditions", Title: "Conditions", Content: "Hypertension.",
				Confidence: 0.9, Sources: []string{"Condition/1"}, Claims: []string{},
			},
		},
		ProcessingTime: 1432 * time.Millisecond,
		CreatedAt:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestSaveSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist a record with serialized sections", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		rec := testRecord()
		sections, err := json.Marshal(rec.Sections)
		require.NoError(t, err)

		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertSummary)).
			WithArgs(rec.ID, "patient", rec.TemplateID, rec.Summary, sections,
				int64(1432), rec.CreatedAt.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.SaveSummary(ctx, rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should propagate insert failures", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		insertErr := errors.New("constraint violation")
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertSummary)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(insertErr)

		err = store.SaveSummary(ctx, testRecord())
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetRecent(t *testing.T) {
	ctx := context.Background()

	t.Run("should rehydrate records including sections", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		want := testRecord()
		sections, err := json.Marshal(want.Sections)
		require.NoError(t, err)

		rows := pgxmock.NewRows([]string{
			"id", "persona", "template_id", "summary", "sections", "processing_time_ms", "created_at",
		}).AddRow(want.ID, "patient", want.TemplateID, want.Summary, sections,
			int64(1432), want.CreatedAt)

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectRecent)).
			WithArgs(5).
			WillReturnRows(rows)

		got, err := store.GetRecent(ctx, 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, want.ID, got[0].ID)
		assert.Equal(t, schemas.PersonaPatient, got[0].Persona)
		assert.Equal(t, want.Sections, got[0].Sections)
		assert.Equal(t, 1432*time.Millisecond, got[0].ProcessingTime)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should fail on corrupt sections payload", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		store, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		rows := pgxmock.NewRows([]string{
			"id", "persona", "template_id", "summary", "sections", "processing_time_ms", "created_at",
		}).AddRow("id-1", "patient", "t", "s", []byte("not json"), int64(1), time.Now())

		mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectRecent)).
			WithArgs(1).
			WillReturnRows(rows)

		_, err = store.GetRecent(ctx, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})
}
