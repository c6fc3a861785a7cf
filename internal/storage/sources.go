package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"techread/internal/model"
	"techread/internal/timeutil"
)

const sourceCols = `id, name, url, type, weight, tags, enabled, created_at`

func scanSource(row interface{ Scan(...any) error }) (model.Source, error) {
	var src model.Source
	var enabled int
	err := row.Scan(&src.ID, &src.Name, &src.URL, &src.Type, &src.Weight, &src.Tags, &enabled, &src.CreatedAt)
	src.Enabled = enabled == 1
	return src, err
}

// AddSource inserts a feed and returns its id. Empty Type and CreatedAt are
// filled in; a zero Weight becomes 1.
func (s *Store) AddSource(ctx context.Context, src model.Source) (int64, error) {
	if src.Type == "" {
		src.Type = "rss"
	}
	if src.Weight == 0 {
		src.Weight = 1.0
	}
	if src.CreatedAt == "" {
		src.CreatedAt = timeutil.FormatISO(timeutil.NowUTC())
	}
	if src.Name == "" {
		src.Name = src.URL
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sources(name, url, type, weight, tags, enabled, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)`,
		src.Name, src.URL, src.Type, src.Weight, src.Tags, src.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("storage: add source: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) querySources(ctx context.Context, where string, args ...any) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sourceCols+` FROM sources `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list sources: %w", err)
	}
	defer rows.Close()
	var out []model.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// ListSources returns every source ordered by id.
func (s *Store) ListSources(ctx context.Context) ([]model.Source, error) {
	return s.querySources(ctx, "")
}

// EnabledSources returns the sources that fetch should visit.
func (s *Store) EnabledSources(ctx context.Context) ([]model.Source, error) {
	return s.querySources(ctx, "WHERE enabled=1")
}

// GetSource loads one source.
func (s *Store) GetSource(ctx context.Context, id int64) (model.Source, error) {
	src, err := scanSource(s.db.QueryRowContext(ctx, `SELECT `+sourceCols+` FROM sources WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Source{}, ErrNotFound
	}
	if err != nil {
		return model.Source{}, fmt.Errorf("storage: get source %d: %w", id, err)
	}
	return src, nil
}

// RemoveSource deletes a source. Posts already fetched from it are kept.
func (s *Store) RemoveSource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("storage: remove source: %w", err)
	}
	return affected(res, "remove source")
}

// SetSourceEnabled toggles whether fetch visits the source.
func (s *Store) SetSourceEnabled(ctx context.Context, id int64, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sources SET enabled=? WHERE id=?`, v, id)
	if err != nil {
		return fmt.Errorf("storage: set enabled: %w", err)
	}
	return affected(res, "set enabled")
}

// UpdateSourceMeta overwrites name and/or tags; nil leaves a field unchanged.
func (s *Store) UpdateSourceMeta(ctx context.Context, id int64, name, tags *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET name=COALESCE(?, name), tags=COALESCE(?, tags) WHERE id=?`,
		nullable(name), nullable(tags), id)
	if err != nil {
		return fmt.Errorf("storage: update source meta: %w", err)
	}
	return affected(res, "update source meta")
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
