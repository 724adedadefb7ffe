package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScoreEvents(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, s := range []float64{610, 600, 587} {
		e := &ScoreEvent{
			RequestID:    "req-" + string(rune('a'+i)),
			ModelVersion: "v1.0",
			Score:        s,
			Probability:  0.377541,
			LogOdds:      -0.5,
			Inputs:       json.RawMessage(`{"Make":"Toyota"}`),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, SaveScoreEvent(ctx, db, e))
		assert.NotEmpty(t, e.ID)
	}

	count, err := CountScoreEvents(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := GetScoreEvents(ctx, db, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 587.0, list[0].Score)
	assert.Equal(t, "req-c", list[0].RequestID)
	assert.Equal(t, 600.0, list[1].Score)
	assert.True(t, list[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	assert.JSONEq(t, `{"Make":"Toyota"}`, string(list[0].Inputs))
	assert.Equal(t, 0.377541, list[0].Probability)
	assert.Equal(t, -0.5, list[0].LogOdds)

	all, err := GetScoreEvents(ctx, db, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestScoreEvents_SQLite(t *testing.T) {
	testScoreEvents(t, setupTestDB(t))
}

func TestSaveScoreEvent_Defaults(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	e := &ScoreEvent{RequestID: "r", ModelVersion: "v1.0"}
	require.NoError(t, SaveScoreEvent(ctx, db, e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, e.CreatedAt.Location())

	list, err := GetScoreEvents(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
	assert.JSONEq(t, `{}`, string(list[0].Inputs))
}

func TestSaveScoreEvent_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	e := &ScoreEvent{ID: "fixed", RequestID: "r", ModelVersion: "v1.0"}
	require.NoError(t, SaveScoreEvent(ctx, db, e))
	assert.Error(t, SaveScoreEvent(ctx, db, &ScoreEvent{ID: "fixed", RequestID: "r2", ModelVersion: "v1.0"}))
}

func TestScoreEvents_NilDB(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, SaveScoreEvent(ctx, nil, &ScoreEvent{}), ErrDBNotInitialized)

	_, err := GetScoreEvents(ctx, nil, 1)
	assert.ErrorIs(t, err, ErrDBNotInitialized)

	_, err = CountScoreEvents(ctx, nil)
	assert.ErrorIs(t, err, ErrDBNotInitialized)
}

func TestSaveScoreEvent_NilEvent(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SaveScoreEvent(context.Background(), db, nil))
}
