package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deal-engine/internal/model"
)

func TestPostgresStore_CreateRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)

	mock.ExpectExec(`INSERT INTO analysis_runs`).
		WithArgs(pgxmock.AnyArg(), "123 Palmetto Ave", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.CreateRun(context.Background(), "123 Palmetto Ave")

	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "123 Palmetto Ave", run.Label)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)
	result := json.RawMessage(`{"outputs":{}}`)

	mock.ExpectExec(`UPDATE analysis_runs SET status`).
		WithArgs("complete", "pursue", "ReadyForOffer", "B", []byte(result), pgxmock.AnyArg(), "run-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = st.CompleteRun(context.Background(), "run-123", RunSummary{
		Recommendation:  "pursue",
		WorkflowState:   "ReadyForOffer",
		ConfidenceGrade: "B",
	}, result)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)

	mock.ExpectExec(`UPDATE analysis_runs SET status`).
		WithArgs("complete", "", "", "", []byte(nil), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = st.CompleteRun(context.Background(), "missing", RunSummary{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)

	mock.ExpectExec(`UPDATE analysis_runs SET status`).
		WithArgs("failed", "gate input failed structural validation", pgxmock.AnyArg(), "run-456").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = st.FailRun(context.Background(), "run-456", "gate input failed structural validation")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)
	now := time.Now().UTC()
	rec := "pursue"
	wf := "ReadyForOffer"
	grade := "A"

	mock.ExpectQuery(`SELECT id, label, status`).
		WithArgs("run-789").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "label", "status", "recommendation", "workflow_state",
			"confidence_grade", "result", "error", "created_at", "updated_at",
		}).AddRow("run-789", "lot 42", model.RunStatusComplete, &rec, &wf, &grade,
			[]byte(`{"outputs":{}}`), (*string)(nil), now, now))

	run, err := st.GetRun(context.Background(), "run-789")

	require.NoError(t, err)
	assert.Equal(t, "run-789", run.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "pursue", run.Recommendation)
	assert.Equal(t, "A", run.ConfidenceGrade)
	assert.JSONEq(t, `{"outputs":{}}`, string(run.Result))
	assert.Empty(t, run.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, label, status`).
		WithArgs("complete", 25).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "label", "status", "recommendation", "workflow_state",
			"confidence_grade", "result", "error", "created_at", "updated_at",
		}).
			AddRow("a", "", model.RunStatusComplete, (*string)(nil), (*string)(nil), (*string)(nil), []byte(nil), (*string)(nil), now, now).
			AddRow("b", "", model.RunStatusComplete, (*string)(nil), (*string)(nil), (*string)(nil), []byte(nil), (*string)(nil), now, now))

	runs, err := st.ListRuns(context.Background(), RunFilter{Status: model.RunStatusComplete, Limit: 25})

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_DefaultLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := NewPostgresWithPool(mock)

	mock.ExpectQuery(`SELECT id, label, status`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "label", "status", "recommendation", "workflow_state",
			"confidence_grade", "result", "error", "created_at", "updated_at",
		}))

	runs, err := st.ListRuns(context.Background(), RunFilter{})

	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
