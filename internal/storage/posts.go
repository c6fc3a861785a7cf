package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"techread/internal/model"
	"techread/internal/timeutil"
)

// Filter narrows the set of posts considered for ranking and digests.
type Filter struct {
	// Since is an ISO timestamp; posts published before it are excluded. Empty disables the window.
	Since       string
	IncludeRead bool
	SourceIDs   []int64
	// Tags match case-insensitively against the source name or its tags; any tag may match.
	Tags []string
}

// where renders the filter as a WHERE clause over posts p joined with sources s.
func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Since != "" {
		clauses = append(clauses, "p.published_at >= ?")
		args = append(args, f.Since)
	}
	if !f.IncludeRead {
		clauses = append(clauses, "p.read_state != 'read'")
	}
	if len(f.SourceIDs) > 0 {
		clauses = append(clauses, "s.id IN ("+placeholders(len(f.SourceIDs))+")")
		args = append(args, int64Args(f.SourceIDs)...)
	}
	var tagClauses []string
	for _, t := range f.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		like := "%" + t + "%"
		tagClauses = append(tagClauses, "(lower(s.name) LIKE ? OR lower(s.tags) LIKE ?)")
		args = append(args, like, like)
	}
	if len(tagClauses) > 0 {
		clauses = append(clauses, "("+strings.Join(tagClauses, " OR ")+")")
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

const postCols = `p.id, p.source_id, p.title, p.url, p.author, p.published_at, p.fetched_at,
	p.content_text, p.content_hash, p.word_count, p.read_state`

func postDest(p *model.Post) []any {
	return []any{&p.ID, &p.SourceID, &p.Title, &p.URL, &p.Author, &p.PublishedAt, &p.FetchedAt,
		&p.ContentText, &p.ContentHash, &p.WordCount, &p.ReadState}
}

// PostURLExists reports whether a post with this URL is already stored.
func (s *Store) PostURLExists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE url=?`, url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: post exists: %w", err)
	}
	return true, nil
}

// InsertPost stores a new post and returns its id.
func (s *Store) InsertPost(ctx context.Context, p model.Post) (int64, error) {
	if p.ReadState == "" {
		p.ReadState = model.StateUnread
	}
	if p.FetchedAt == "" {
		p.FetchedAt = timeutil.FormatISO(timeutil.NowUTC())
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts(source_id, title, url, author, published_at, fetched_at, content_text, content_hash, word_count, read_state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SourceID, p.Title, p.URL, p.Author, p.PublishedAt, p.FetchedAt, p.ContentText, p.ContentHash, p.WordCount, p.ReadState)
	if err != nil {
		return 0, fmt.Errorf("storage: insert post: %w", err)
	}
	return res.LastInsertId()
}

// GetPost loads one post.
func (s *Store) GetPost(ctx context.Context, id int64) (model.Post, error) {
	var p model.Post
	err := s.db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts p WHERE p.id=?`, id).Scan(postDest(&p)...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("storage: get post %d: %w", id, err)
	}
	return p, nil
}

// SetReadState updates the read state of a post.
func (s *Store) SetReadState(ctx context.Context, id int64, state string) error {
	if !model.ValidState(state) {
		return fmt.Errorf("storage: invalid read state %q", state)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET read_state=? WHERE id=?`, state, id)
	if err != nil {
		return fmt.Errorf("storage: set read state: %w", err)
	}
	return affected(res, "set read state")
}

// CandidatePosts returns posts matching f along with their source weight,
// newest first.
func (s *Store) CandidatePosts(ctx context.Context, f Filter) ([]model.Candidate, error) {
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postCols+`, s.weight FROM posts p JOIN sources s ON p.source_id=s.id `+where+` ORDER BY p.published_at DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("storage: candidate posts: %w", err)
	}
	defer rows.Close()
	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(append(postDest(&c.Post), &c.SourceWeight)...); err != nil {
			return nil, fmt.Errorf("storage: scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountBelowWordCount counts posts shorter than min words, optionally limited to sources.
func (s *Store) CountBelowWordCount(ctx context.Context, min int, sourceIDs []int64) (int, error) {
	where, args := belowWhere(min, sourceIDs)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count short posts: %w", err)
	}
	return n, nil
}

// PurgeBelowWordCount deletes posts shorter than min words together with their
// scores and summaries. It returns the number of posts removed.
func (s *Store) PurgeBelowWordCount(ctx context.Context, min int, sourceIDs []int64) (int64, error) {
	where, args := belowWhere(min, sourceIDs)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: purge: %w", err)
	}
	defer tx.Rollback()
	sub := `SELECT id FROM posts WHERE ` + where
	for _, table := range []string{"scores", "summaries"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE post_id IN (`+sub+`)`, args...); err != nil {
			return 0, fmt.Errorf("storage: purge %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("storage: purge posts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: purge posts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: purge commit: %w", err)
	}
	return n, nil
}

func belowWhere(min int, sourceIDs []int64) (string, []any) {
	where := "word_count < ?"
	args := []any{min}
	if len(sourceIDs) > 0 {
		where += " AND source_id IN (" + placeholders(len(sourceIDs)) + ")"
		args = append(args, int64Args(sourceIDs)...)
	}
	return where, args
}

// RecentContent returns the non-empty text of the n most recently published
// posts of a source.
func (s *Store) RecentContent(ctx context.Context, sourceID int64, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT content_text FROM posts WHERE source_id=? AND content_text != '' ORDER BY published_at DESC LIMIT ?`,
		sourceID, n)
	if err != nil {
		return nil, fmt.Errorf("storage: recent content: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("storage: scan content: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}
