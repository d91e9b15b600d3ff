package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabot-ai/discuss/internal/model"
	"github.com/alphabot-ai/discuss/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author TEXT NOT NULL,
	text TEXT NOT NULL,
	image TEXT,
	created_at INTEGER NOT NULL,
	likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0)
);
CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments(created_at DESC);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) (int64, error) {
	var res sql.Result
	var err error
	if comment.ID != 0 {
		res, err = s.db.ExecContext(ctx, `
INSERT INTO comments (id, author, text, image, created_at, likes)
VALUES (?, ?, ?, ?, ?, ?)
`, comment.ID, comment.Author, comment.Text, nullableString(comment.Image), comment.Date.Unix(), comment.Likes)
	} else {
		res, err = s.db.ExecContext(ctx, `
INSERT INTO comments (author, text, image, created_at, likes)
VALUES (?, ?, ?, ?, ?)
`, comment.Author, comment.Text, nullableString(comment.Image), comment.Date.Unix(), comment.Likes)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetComment(ctx context.Context, id int64) (model.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, author, text, image, created_at, likes
FROM comments
WHERE id = ?
`, id)
	return scanComment(row)
}

func (s *Store) ListComments(ctx context.Context) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, author, text, image, created_at, likes
FROM comments
ORDER BY created_at DESC, id DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) PatchComment(ctx context.Context, id int64, patch model.CommentPatch) (model.Comment, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if patch.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *patch.Text)
	}
	if patch.Likes != nil {
		sets = append(sets, "likes = ?")
		args = append(args, *patch.Likes)
	}
	if len(sets) == 0 {
		return s.GetComment(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE comments SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return model.Comment{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Comment{}, store.ErrNotFound
	}
	return s.GetComment(ctx, id)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CommentExists(ctx context.Context, id int64) (bool, error) {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE id = ?`, id)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetSiteStats(ctx context.Context) (model.SiteStats, error) {
	var stats model.SiteStats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(likes), 0) FROM comments`)
	if err := row.Scan(&stats.Comments, &stats.Likes); err != nil {
		return stats, err
	}
	return stats, nil
}

func scanComment(scanner interface{ Scan(dest ...any) error }) (model.Comment, error) {
	var c model.Comment
	var image sql.NullString
	var created int64
	if err := scanner.Scan(&c.ID, &c.Author, &c.Text, &image, &created, &c.Likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, store.ErrNotFound
		}
		return model.Comment{}, err
	}
	if image.Valid && image.String != "" {
		img := image.String
		c.Image = &img
	}
	c.Date = time.Unix(created, 0).UTC()
	return c, nil
}

func nullableString(v *string) any {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return *v
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
