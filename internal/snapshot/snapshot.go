// Package snapshot records completed salary searches in PostgreSQL so the
// service keeps a history of what visitors looked at and what the market
// reported at the time.
package snapshot

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/salary-service/internal/view"
)

// Migrations holds the goose migrations for the snapshot schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations goose reads from.
const MigrationsDir = "migrations"

// Snapshot is one completed search.
type Snapshot struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"-"`
	Country       string    `json:"country"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"categoryLabel"`
	MeanSalary    float64   `json:"meanSalary"`
	MaxSalary     float64   `json:"maxSalary"`
	ResultCount   int       `json:"resultCount"`
	HistoryMonths int       `json:"historyMonths"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FromState builds a Snapshot from a view state whose search finished with
// at least one listing. ok is false otherwise.
func FromState(sessionID string, st view.State) (s Snapshot, ok bool) {
	if st.SearchStatus != view.StatusReady || st.Search == nil || len(st.Search.Results) == 0 {
		return Snapshot{}, false
	}
	s = Snapshot{
		SessionID:     sessionID,
		Country:       st.Country,
		Category:      st.SearchCategory,
		CategoryLabel: st.LabelFor(st.SearchCategory),
		MeanSalary:    st.Search.Mean,
		MaxSalary:     st.Search.Results[0].SalaryMax,
		ResultCount:   st.Search.Count,
	}
	if st.HistoryStatus == view.StatusReady && st.SalaryHistory != nil && st.HistoryCategory == st.SearchCategory {
		s.HistoryMonths = len(st.SalaryHistory.Month)
	}
	return s, true
}

// Recorder stores and queries snapshots.
type Recorder interface {
	Record(ctx context.Context, s Snapshot) error
	Recent(ctx context.Context, limit int) ([]Snapshot, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Nop records nothing. Used when no DATABASE_URL is configured.
type Nop struct{}

func (Nop) Record(context.Context, Snapshot) error { return nil }
func (Nop) Recent(context.Context, int) ([]Snapshot, error) { return []Snapshot{}, nil }
func (Nop) PruneOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

// MaxRecent caps Recent's limit.
const MaxRecent = 100

// Store is the PostgreSQL Recorder.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Record inserts s. ID and CreatedAt are assigned by the database.
func (s *Store) Record(ctx context.Context, snap Snapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO salary_snapshots
		   (session_id, country, category, category_label, mean_salary, max_salary,
		    result_count, history_months)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.SessionID, snap.Country, snap.Category, snap.CategoryLabel,
		snap.MeanSalary, snap.MaxSalary, snap.ResultCount, snap.HistoryMonths,
	)
	if err != nil {
		return fmt.Errorf("insert salary_snapshot: %w", err)
	}
	return nil
}

// Recent returns the newest snapshots first. limit is clamped to
// [1, MaxRecent].
func (s *Store) Recent(ctx context.Context, limit int) ([]Snapshot, error) {
	limit = ClampLimit(limit)
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, country, category, category_label,
		        mean_salary::float8, max_salary::float8, result_count, history_months, created_at
		 FROM salary_snapshots
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query salary_snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(
			&snap.ID, &snap.SessionID, &snap.Country, &snap.Category, &snap.CategoryLabel,
			&snap.MeanSalary, &snap.MaxSalary, &snap.ResultCount, &snap.HistoryMonths,
			&snap.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneOlderThan deletes snapshots created before cutoff and reports how
// many went.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM salary_snapshots WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune salary_snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClampLimit bounds a requested page size to [1, MaxRecent]; zero or
// negative means the default of 20.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > MaxRecent:
		return MaxRecent
	}
	return limit
}
