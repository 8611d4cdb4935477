package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// ErrNotFound is returned when a tick or signal does not exist
var ErrNotFound = errors.New("not found")

// 조회 limit 범위
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// DBTX is the subset of pgxpool.Pool the repository needs
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SignalRepository persists ticks and their emitted signals
// ⭐ SSOT: 시그널/틱 데이터 저장/조회는 여기서만
type SignalRepository struct {
	db DBTX
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db DBTX) *SignalRepository {
	return &SignalRepository{db: db}
}

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS scan;

CREATE TABLE IF NOT EXISTS scan.ticks (
	tick_id         UUID PRIMARY KEY,
	ts              TIMESTAMPTZ NOT NULL,
	session         TEXT NOT NULL,
	universe_size   INTEGER NOT NULL,
	signal_count    INTEGER NOT NULL,
	error_count     INTEGER NOT NULL,
	latency_seconds DOUBLE PRECISION NOT NULL,
	errors          JSONB NOT NULL DEFAULT '[]',
	rejections      JSONB NOT NULL DEFAULT '{}',
	stages          JSONB NOT NULL DEFAULT '[]',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS scan.signals (
	id                  UUID PRIMARY KEY,
	tick_id             UUID NOT NULL REFERENCES scan.ticks(tick_id) ON DELETE CASCADE,
	symbol              TEXT NOT NULL,
	tier                TEXT NOT NULL,
	initial_tier        TEXT NOT NULL,
	status              TEXT NOT NULL,
	session             TEXT NOT NULL,
	aggregate_score     DOUBLE PRECISION NOT NULL,
	confidence_raw      DOUBLE PRECISION NOT NULL,
	confidence_adjusted DOUBLE PRECISION NOT NULL,
	confidence          DOUBLE PRECISION NOT NULL,
	module_order        JSONB NOT NULL DEFAULT '[]',
	modules             JSONB NOT NULL DEFAULT '{}',
	breakdown           JSONB,
	gate                JSONB,
	risk                JSONB,
	created_at          TIMESTAMPTZ NOT NULL,
	expires_at          TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_signals_created ON scan.signals (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_signals_symbol ON scan.signals (symbol, created_at DESC);
`

// EnsureSchema creates the scan schema if missing
func (r *SignalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveTick stores the tick row and all its signals in one transaction
func (r *SignalRepository) SaveTick(ctx context.Context, result *contracts.TickResult) error {
	tickArgs, err := tickArgs(result)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO scan.ticks (
			tick_id, ts, session, universe_size,
			signal_count, error_count, latency_seconds,
			errors, rejections, stages
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tick_id) DO NOTHING
	`, tickArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert tick: %w", err)
	}

	if len(result.Signals) > 0 {
		batch := &pgx.Batch{}
		for _, s := range result.Signals {
			args, err := signalArgs(result.TickID, s)
			if err != nil {
				return err
			}
			batch.Queue(insertSignalSQL, args...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert signals: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const insertSignalSQL = `
	INSERT INTO scan.signals (
		id, tick_id, symbol, tier, initial_tier, status, session,
		aggregate_score, confidence_raw, confidence_adjusted, confidence,
		module_order, modules, breakdown, gate, risk,
		created_at, expires_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (id) DO NOTHING
`

const selectSignalSQL = `
	SELECT
		id, symbol, tier, initial_tier, status, session,
		aggregate_score, confidence_raw, confidence_adjusted, confidence,
		module_order, modules, breakdown, gate, risk,
		created_at, expires_at
	FROM scan.signals
`

// Recent returns the newest signals across ticks
func (r *SignalRepository) Recent(ctx context.Context, limit int) ([]*contracts.CandidateSignal, error) {
	rows, err := r.db.Query(ctx, selectSignalSQL+`
		ORDER BY created_at DESC, confidence DESC
		LIMIT $1
	`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	return collectSignals(rows)
}

// BySymbol returns the newest signals for one symbol
func (r *SignalRepository) BySymbol(ctx context.Context, symbol string, limit int) ([]*contracts.CandidateSignal, error) {
	rows, err := r.db.Query(ctx, selectSignalSQL+`
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, symbol, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for %s: %w", symbol, err)
	}
	return collectSignals(rows)
}

// TickSummary is the stored tick row plus per-tier counts
type TickSummary struct {
	TickID         string                  `json:"tick_id"`
	Timestamp      time.Time               `json:"timestamp"`
	Session        contracts.Session       `json:"session"`
	UniverseSize   int                     `json:"universe_size"`
	SignalCount    int                     `json:"signal_count"`
	ErrorCount     int                     `json:"error_count"`
	LatencySeconds float64                 `json:"latency_seconds"`
	Errors         []contracts.ModuleError `json:"errors"`
	Rejections     map[string]int          `json:"rejections"`
	Tiers          map[contracts.Tier]int  `json:"tiers"`
}

// TickSummary loads one tick by id
func (r *SignalRepository) TickSummary(ctx context.Context, tickID string) (*TickSummary, error) {
	var (
		s                  TickSummary
		session            string
		errsRaw, rejectRaw []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT tick_id::text, ts, session, universe_size, signal_count, error_count,
			latency_seconds, errors, rejections
		FROM scan.ticks
		WHERE tick_id = $1
	`, tickID).Scan(
		&s.TickID, &s.Timestamp, &session, &s.UniverseSize, &s.SignalCount, &s.ErrorCount,
		&s.LatencySeconds, &errsRaw, &rejectRaw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tick %s: %w", tickID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tick: %w", err)
	}
	s.Session = contracts.Session(session)

	if err := unmarshalJSON(errsRaw, &s.Errors); err != nil {
		return nil, fmt.Errorf("decode tick errors: %w", err)
	}
	if err := unmarshalJSON(rejectRaw, &s.Rejections); err != nil {
		return nil, fmt.Errorf("decode tick rejections: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT tier, COUNT(*) FROM scan.signals WHERE tick_id = $1 GROUP BY tier
	`, tickID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiers: %w", err)
	}
	defer rows.Close()

	s.Tiers = make(map[contracts.Tier]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.Tiers[contracts.Tier(tier)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return &s, nil
}

// =============================================================================
// TickSink
// =============================================================================

// Name implements contracts.TickSink
func (r *SignalRepository) Name() string { return "postgres" }

// HandleTick implements contracts.TickSink
func (r *SignalRepository) HandleTick(ctx context.Context, result *contracts.TickResult) error {
	return r.SaveTick(ctx, result)
}

// =============================================================================
// Row encoding
// =============================================================================

// ClampLimit maps 0 to the default and caps at MaxLimit
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func tickArgs(r *contracts.TickResult) ([]any, error) {
	errs, err := json.Marshal(nonNilErrors(r.Errors))
	if err != nil {
		return nil, fmt.Errorf("encode tick errors: %w", err)
	}
	rejections, err := json.Marshal(nonNilMap(r.Rejections))
	if err != nil {
		return nil, fmt.Errorf("encode tick rejections: %w", err)
	}
	stages, err := json.Marshal(r.Stages)
	if err != nil {
		return nil, fmt.Errorf("encode tick stages: %w", err)
	}
	return []any{
		r.TickID, r.Timestamp, string(r.Session), r.UniverseSize,
		len(r.Signals), len(r.Errors), r.LatencySeconds,
		errs, rejections, stages,
	}, nil
}

func signalArgs(tickID string, s *contracts.CandidateSignal) ([]any, error) {
	order, err := json.Marshal(s.ModuleOrder)
	if err != nil {
		return nil, fmt.Errorf("encode %s module order: %w", s.Symbol, err)
	}
	mods, err := json.Marshal(s.Modules)
	if err != nil {
		return nil, fmt.Errorf("encode %s modules: %w", s.Symbol, err)
	}
	breakdown, err := nullableJSON(s.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("encode %s breakdown: %w", s.Symbol, err)
	}
	gate, err := nullableJSON(s.Gate)
	if err != nil {
		return nil, fmt.Errorf("encode %s gate: %w", s.Symbol, err)
	}
	risk, err := nullableJSON(s.Risk)
	if err != nil {
		return nil, fmt.Errorf("encode %s risk: %w", s.Symbol, err)
	}

	return []any{
		s.ID, tickID, s.Symbol, string(s.Tier), string(s.InitialTier), string(s.Status), string(s.Session),
		s.AggregateScore, s.RawConfidence, s.AdjustedConfidence, s.CalibratedConfidence,
		order, mods, breakdown, gate, risk,
		s.CreatedAt, s.ExpiresAt,
	}, nil
}

// scanSignal reads one row in selectSignalSQL column order
func scanSignal(row pgx.Row) (*contracts.CandidateSignal, error) {
	var (
		s                                     contracts.CandidateSignal
		tier, initial, status, session        string
		order, mods, breakdown, gate, riskRaw []byte
	)
	err := row.Scan(
		&s.ID, &s.Symbol, &tier, &initial, &status, &session,
		&s.AggregateScore, &s.RawConfidence, &s.AdjustedConfidence, &s.CalibratedConfidence,
		&order, &mods, &breakdown, &gate, &riskRaw,
		&s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	s.Tier = contracts.Tier(tier)
	s.InitialTier = contracts.Tier(initial)
	s.Status = contracts.SignalStatus(status)
	s.Session = contracts.Session(session)

	if err := unmarshalJSON(order, &s.ModuleOrder); err != nil {
		return nil, fmt.Errorf("decode %s module order: %w", s.Symbol, err)
	}
	if err := unmarshalJSON(mods, &s.Modules); err != nil {
		return nil, fmt.Errorf("decode %s modules: %w", s.Symbol, err)
	}
	if len(breakdown) > 0 {
		s.Breakdown = &contracts.ScoreBreakdown{}
		if err := json.Unmarshal(breakdown, s.Breakdown); err != nil {
			return nil, fmt.Errorf("decode %s breakdown: %w", s.Symbol, err)
		}
	}
	if len(gate) > 0 {
		s.Gate = &contracts.GatekeeperReport{}
		if err := json.Unmarshal(gate, s.Gate); err != nil {
			return nil, fmt.Errorf("decode %s gate: %w", s.Symbol, err)
		}
	}
	if len(riskRaw) > 0 {
		s.Risk = &contracts.RiskAssessment{}
		if err := json.Unmarshal(riskRaw, s.Risk); err != nil {
			return nil, fmt.Errorf("decode %s risk: %w", s.Symbol, err)
		}
	}
	return &s, nil
}

func collectSignals(rows pgx.Rows) ([]*contracts.CandidateSignal, error) {
	defer rows.Close()

	out := make([]*contracts.CandidateSignal, 0)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// nullableJSON encodes v, or returns nil for a nil pointer so the column stays NULL
func nullableJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func nonNilErrors(errs []contracts.ModuleError) []contracts.ModuleError {
	if errs == nil {
		return []contracts.ModuleError{}
	}
	return errs
}

func nonNilMap(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
