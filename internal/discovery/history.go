package discovery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/niccommander/internal/store"
	"github.com/HerbHall/niccommander/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a scan record does not exist.
var ErrNotFound = errors.New("not found")

// migrations creates the sweep history table.
func migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create discovery_scans",
			Up: func(tx *sql.Tx) error {
				if _, err := tx.Exec(`
					CREATE TABLE discovery_scans (
						id         TEXT PRIMARY KEY,
						prefix     TEXT NOT NULL,
						started_at TEXT NOT NULL,
						ended_at   TEXT,
						status     TEXT NOT NULL,
						probed     INTEGER NOT NULL DEFAULT 0,
						found      INTEGER NOT NULL DEFAULT 0
					)`); err != nil {
					return err
				}
				_, err := tx.Exec(`CREATE INDEX idx_discovery_scans_started ON discovery_scans(started_at)`)
				return err
			},
		},
	}
}

// History records sweeps in the discovery_scans table, keeping at most
// limit rows when limit is positive.
type History struct {
	db    *sql.DB
	now   func() time.Time
	limit int
}

// NewHistory migrates s and returns a History backed by it.
func NewHistory(ctx context.Context, s *store.SQLiteStore, limit int) (*History, error) {
	if err := s.Migrate(ctx, "discovery", migrations()); err != nil {
		return nil, fmt.Errorf("migrate discovery: %w", err)
	}
	return &History{db: s.DB(), now: time.Now, limit: limit}, nil
}

// Start inserts a running record for prefix.
func (h *History) Start(ctx context.Context, prefix string) (*models.ScanRecord, error) {
	rec := &models.ScanRecord{
		ID:        uuid.New().String(),
		Prefix:    prefix,
		StartedAt: h.now().UTC().Format(time.RFC3339),
		Status:    models.ScanStatusRunning,
		Probed:    HostsPerPrefix,
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO discovery_scans (id, prefix, started_at, status, probed)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Prefix, rec.StartedAt, rec.Status, rec.Probed,
	)
	if err != nil {
		return nil, fmt.Errorf("create scan: %w", err)
	}
	if err := h.prune(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// prune drops the oldest scans beyond the retention limit.
func (h *History) prune(ctx context.Context) error {
	if h.limit <= 0 {
		return nil
	}
	_, err := h.db.ExecContext(ctx, `
		DELETE FROM discovery_scans WHERE id NOT IN (
			SELECT id FROM discovery_scans ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, h.limit)
	if err != nil {
		return fmt.Errorf("prune scans: %w", err)
	}
	return nil
}

// Complete marks the scan finished with the number of hosts found.
func (h *History) Complete(ctx context.Context, id string, found int) error {
	return h.Finish(ctx, id, models.ScanStatusCompleted, found)
}

// Finish closes a running scan with status and the number of hosts found.
func (h *History) Finish(ctx context.Context, id string, status models.ScanStatus, found int) error {
	endedAt := h.now().UTC().Format(time.RFC3339)
	res, err := h.db.ExecContext(ctx,
		`UPDATE discovery_scans SET status = ?, ended_at = ?, found = ? WHERE id = ? AND status = ?`,
		status, endedAt, found, id, models.ScanStatusRunning)
	if err != nil {
		return fmt.Errorf("finish scan %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish scan %q: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns one scan by ID.
func (h *History) Get(ctx context.Context, id string) (*models.ScanRecord, error) {
	var rec models.ScanRecord
	var endedAt sql.NullString
	err := h.db.QueryRowContext(ctx, `
		SELECT id, prefix, started_at, ended_at, status, probed, found
		FROM discovery_scans WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Prefix, &rec.StartedAt, &endedAt, &rec.Status, &rec.Probed, &rec.Found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scan %q: %w", id, err)
	}
	if endedAt.Valid {
		rec.EndedAt = endedAt.String
	}
	return &rec, nil
}

// List returns up to limit scans, newest first.
func (h *History) List(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, prefix, started_at, ended_at, status, probed, found
		FROM discovery_scans ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	scans := []models.ScanRecord{}
	for rows.Next() {
		var rec models.ScanRecord
		var endedAt sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Prefix, &rec.StartedAt, &endedAt,
			&rec.Status, &rec.Probed, &rec.Found); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if endedAt.Valid {
			rec.EndedAt = endedAt.String
		}
		scans = append(scans, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return scans, nil
}
