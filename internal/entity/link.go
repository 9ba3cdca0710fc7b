package entity

import "time"

// Link is the canonical slug -> original URL record. All fields are assigned
// once, on creation; the store never mutates a persisted link.
type Link struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// LinkResult is the per-request view of a link handed to the transport layer.
// SlugRespected is only set on the creation path: nil means no slug decision
// was made for this request (the link already existed).
type LinkResult struct {
	ShortURL      string
	OriginalURL   string
	SlugRespected *bool
	Existing      bool
}
