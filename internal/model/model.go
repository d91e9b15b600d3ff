package model

import "time"

type Comment struct {
	ID     int64     `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Image  *string   `json:"image"`
	Date   time.Time `json:"date"`
	Likes  int       `json:"likes"`
}

// WithLikes returns a copy of c carrying n likes. Negative counts floor at zero.
func (c Comment) WithLikes(n int) Comment {
	if n < 0 {
		n = 0
	}
	c.Likes = n
	return c
}

// HasImage reports whether the comment carries a non-empty image reference.
func (c Comment) HasImage() bool {
	return c.Image != nil && *c.Image != ""
}

type CommentPatch struct {
	Text  *string
	Likes *int
}

type SiteStats struct {
	Comments int64
	Likes    int64
}
