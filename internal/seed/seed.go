// Package seed imports a comments.json fixture into the comment store.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alphabot-ai/discuss/internal/model"
	"github.com/alphabot-ai/discuss/internal/pkg/log"
	"github.com/alphabot-ai/discuss/internal/store"
)

// Fixture is the on-disk shape: {"comments": [...]}.
type Fixture struct {
	Comments []Item `json:"comments"`
}

type Item struct {
	ID     int64   `json:"id"`
	Author string  `json:"author"`
	Text   string  `json:"text"`
	Date   string  `json:"date"`
	Likes  int     `json:"likes"`
	Image  *string `json:"image"`
}

type Result struct {
	Created int
	Skipped int
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Load inserts every fixture comment whose ID is not already stored. Existing
// IDs are left untouched.
func Load(ctx context.Context, r io.Reader, st store.CommentStore) (Result, error) {
	const op = "seed.Load"
	lg := log.From(ctx).With("op", op)

	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return Result{}, fmt.Errorf("decode fixture: %w", err)
	}

	var res Result
	for _, item := range fx.Comments {
		if item.ID <= 0 {
			return res, fmt.Errorf("comment with invalid id %d", item.ID)
		}
		exists, err := st.CommentExists(ctx, item.ID)
		if err != nil {
			return res, fmt.Errorf("check comment %d: %w", item.ID, err)
		}
		if exists {
			res.Skipped++
			lg.Debug("comment exists, skipped", "comment_id", item.ID)
			continue
		}

		date, err := parseDate(item.Date)
		if err != nil {
			return res, fmt.Errorf("comment %d: %w", item.ID, err)
		}
		image := item.Image
		if image != nil && strings.TrimSpace(*image) == "" {
			image = nil
		}
		c := model.Comment{
			ID:     item.ID,
			Author: item.Author,
			Text:   item.Text,
			Image:  image,
			Date:   date,
		}.WithLikes(item.Likes)

		if _, err := st.CreateComment(ctx, &c); err != nil {
			return res, fmt.Errorf("create comment %d: %w", item.ID, err)
		}
		res.Created++
	}
	lg.Info("fixture loaded", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}
