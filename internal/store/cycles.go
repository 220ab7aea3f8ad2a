package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/presenter/internal/ir"
)

// Outcome is how a synchronization cycle ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeError        Outcome = "error"
	OutcomeUnauthorized Outcome = "unauthorized"
)

// Cycle is one journaled synchronization round trip. Request and Response
// hold canonical JSON; Response is empty for failed cycles.
type Cycle struct {
	Token       string
	Seq         int64
	RequestHash string
	Request     string
	Response    string
	Outcome     Outcome
	Error       string
	ViewCount   int
	ActionCount int
}

// NewCycle builds a journal row from the request sent and what came back.
func NewCycle(token string, seq int64, req *ir.StateRequest, resp *ir.StateResponse, outcome Outcome, cycleErr error) (Cycle, error) {
	if req == nil {
		req = &ir.StateRequest{}
	}
	hash, err := ir.RequestHash(req)
	if err != nil {
		return Cycle{}, fmt.Errorf("new cycle: %w", err)
	}
	reqJSON, err := marshalRequest(req)
	if err != nil {
		return Cycle{}, fmt.Errorf("new cycle: %w", err)
	}
	respJSON, err := marshalResponse(resp)
	if err != nil {
		return Cycle{}, fmt.Errorf("new cycle: %w", err)
	}

	c := Cycle{
		Token:       token,
		Seq:         seq,
		RequestHash: hash,
		Request:     reqJSON,
		Outcome:     outcome,
		ViewCount:   len(req.Views),
		ActionCount: len(req.Actions),
	}
	if respJSON != nil {
		c.Response = *respJSON
	}
	if cycleErr != nil {
		c.Error = cycleErr.Error()
	}
	return c, nil
}

// WriteCycle appends a cycle to the journal.
// Uses ON CONFLICT(token) DO NOTHING, so rewriting a token is a no-op.
func (s *Store) WriteCycle(ctx context.Context, c Cycle) error {
	var response, errText sql.NullString
	if c.Response != "" {
		response = sql.NullString{String: c.Response, Valid: true}
	}
	if c.Error != "" {
		errText = sql.NullString{String: c.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
		(token, seq, request_hash, request, response, outcome, error, view_count, action_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		c.Token,
		c.Seq,
		c.RequestHash,
		c.Request,
		response,
		string(c.Outcome),
		errText,
		c.ViewCount,
		c.ActionCount,
	)
	if err != nil {
		return fmt.Errorf("write cycle %s: %w", c.Token, err)
	}
	return nil
}

// ReadCycle returns the cycle with the given token, or ErrNotFound.
func (s *Store) ReadCycle(ctx context.Context, token string) (Cycle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, seq, request_hash, request, response, outcome, error, view_count, action_count
		FROM cycles
		WHERE token = ?
	`, token)
	c, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Cycle{}, fmt.Errorf("cycle %s: %w", token, ErrNotFound)
	}
	if err != nil {
		return Cycle{}, fmt.Errorf("read cycle %s: %w", token, err)
	}
	return c, nil
}

// ReadCycles returns the most recent cycles in ascending seq order.
// limit <= 0 returns every cycle.
//
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ReadCycles(ctx context.Context, limit int) ([]Cycle, error) {
	query := `
		SELECT token, seq, request_hash, request, response, outcome, error, view_count, action_count
		FROM (
			SELECT * FROM cycles ORDER BY seq DESC, token COLLATE BINARY DESC LIMIT ?
		)
		ORDER BY seq ASC, token COLLATE BINARY ASC
	`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return cycles, nil
}

// CountCycles returns the number of journaled cycles with the given outcome,
// or every cycle when outcome is empty.
func (s *Store) CountCycles(ctx context.Context, outcome Outcome) (int, error) {
	var n int
	var err error
	if outcome == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles WHERE outcome = ?`, string(outcome)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count cycles: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (Cycle, error) {
	var c Cycle
	var outcome string
	var response, errText sql.NullString
	if err := row.Scan(
		&c.Token,
		&c.Seq,
		&c.RequestHash,
		&c.Request,
		&response,
		&outcome,
		&errText,
		&c.ViewCount,
		&c.ActionCount,
	); err != nil {
		return Cycle{}, err
	}
	c.Outcome = Outcome(outcome)
	c.Response = response.String
	c.Error = errText.String
	return c, nil
}
