package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ScoreEventLimitDefault = 50
	ScoreEventLimitMax     = 1000

	// fixed width keeps lexical order equal to time order
	timeLayout = "2006-01-02T15:04:05.000000000Z"

	insertScoreEventSQL = `INSERT INTO score_event (
			id, request_id, model_version, score, probability, log_odds, inputs, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectScoreEventsSQL = `SELECT
			id, request_id, model_version, score, probability, log_odds, inputs, created_at
		FROM score_event
		ORDER BY created_at DESC, id
		LIMIT ?`

	countScoreEventsSQL = `SELECT COUNT(*) FROM score_event`
)

// ScoreEvent is one recorded scoring call.
type ScoreEvent struct {
	ID           string          `json:"id" yaml:"id"`
	RequestID    string          `json:"request_id" yaml:"request_id"`
	ModelVersion string          `json:"model_version" yaml:"model_version"`
	Score        float64         `json:"score" yaml:"score"`
	Probability  float64         `json:"probability_fraud" yaml:"probability_fraud"`
	LogOdds      float64         `json:"log_odds" yaml:"log_odds"`
	Inputs       json.RawMessage `json:"inputs_used" yaml:"-"`
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
}

// SaveScoreEvent inserts e, assigning ID and CreatedAt when empty.
func SaveScoreEvent(ctx context.Context, db *sql.DB, e *ScoreEvent) error {
	if db == nil {
		return ErrDBNotInitialized
	}
	if e == nil {
		return errors.New("score event required")
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	inputs := e.Inputs
	if len(inputs) == 0 {
		inputs = json.RawMessage("{}")
	}

	stmt, err := db.PrepareContext(ctx, rebind(db, insertScoreEventSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare score event insert statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.ExecContext(ctx,
		e.ID,
		e.RequestID,
		e.ModelVersion,
		e.Score,
		e.Probability,
		e.LogOdds,
		string(inputs),
		e.CreatedAt.Format(timeLayout),
	); err != nil {
		return fmt.Errorf("failed to insert score event: %w", err)
	}

	return nil
}

// GetScoreEvents returns up to limit most recent events, newest first.
func GetScoreEvents(ctx context.Context, db *sql.DB, limit int) ([]*ScoreEvent, error) {
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	if limit <= 0 {
		limit = ScoreEventLimitDefault
	}
	if limit > ScoreEventLimitMax {
		limit = ScoreEventLimitMax
	}

	stmt, err := db.PrepareContext(ctx, rebind(db, selectScoreEventsSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare score event select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute score event select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*ScoreEvent, 0)
	for rows.Next() {
		e := &ScoreEvent{}
		var inputs, created string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.ModelVersion, &e.Score,
			&e.Probability, &e.LogOdds, &inputs, &created); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		e.Inputs = json.RawMessage(inputs)
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", created, err)
		}
		list = append(list, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate score events: %w", err)
	}

	return list, nil
}

// CountScoreEvents returns the number of recorded events.
func CountScoreEvents(ctx context.Context, db *sql.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNotInitialized
	}

	var count int64
	if err := db.QueryRowContext(ctx, countScoreEventsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count score events: %w", err)
	}
	return count, nil
}
