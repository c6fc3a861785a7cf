package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"techread/internal/model"
	"techread/internal/timeutil"
)

// HasScore reports whether the post has been scored before.
func (s *Store) HasScore(ctx context.Context, postID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM scores WHERE post_id=?`, postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: has score: %w", err)
	}
	return true, nil
}

// UpsertScore records the latest score of a post.
func (s *Store) UpsertScore(ctx context.Context, postID int64, scoredAt string, score float64, breakdownJSON string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores(post_id, scored_at, score, breakdown_json) VALUES (?, ?, ?, ?)
		 ON CONFLICT(post_id) DO UPDATE SET scored_at=excluded.scored_at, score=excluded.score, breakdown_json=excluded.breakdown_json`,
		postID, scoredAt, score, breakdownJSON)
	if err != nil {
		return fmt.Errorf("storage: upsert score: %w", err)
	}
	return nil
}

// TopScored returns up to limit scored posts matching f, highest score first.
func (s *Store) TopScored(ctx context.Context, f Filter, limit int) ([]model.RankedPost, error) {
	where, args := f.where()
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postCols+`, sc.score, sc.breakdown_json
		 FROM posts p JOIN scores sc ON p.id=sc.post_id JOIN sources s ON p.source_id=s.id `+where+`
		 ORDER BY sc.score DESC, p.id ASC LIMIT ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("storage: top scored: %w", err)
	}
	defer rows.Close()
	var out []model.RankedPost
	for rows.Next() {
		var r model.RankedPost
		if err := rows.Scan(append(postDest(&r.Post), &r.Score, &r.BreakdownJSON)...); err != nil {
			return nil, fmt.Errorf("storage: scan ranked: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSummary returns the cached summary text for the key, or ErrNotFound.
func (s *Store) GetSummary(ctx context.Context, postID int64, mode, llmModel, contentHash string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary_text FROM summaries WHERE post_id=? AND mode=? AND model=? AND content_hash=?`,
		postID, mode, llmModel, contentHash).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: get summary: %w", err)
	}
	return text, nil
}

// UpsertSummary caches a summary, replacing any existing one for the same key.
func (s *Store) UpsertSummary(ctx context.Context, sum model.Summary) error {
	if sum.CreatedAt == "" {
		sum.CreatedAt = timeutil.FormatISO(timeutil.NowUTC())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO summaries(post_id, mode, model, content_hash, summary_text, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sum.PostID, sum.Mode, sum.Model, sum.ContentHash, sum.Text, sum.CreatedAt)
	if err != nil {
		return fmt.Errorf("storage: upsert summary: %w", err)
	}
	return nil
}
