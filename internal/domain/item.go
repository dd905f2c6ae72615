// Package domain holds the core types shared by the store, services and API.
package domain

import "time"

// CachedItem is a local copy of catalog metadata for one external movie.
// It is written once, on first favoriting, and never updated or deleted.
type CachedItem struct {
	ID         string    `json:"id"`
	ExternalID int64     `json:"externalId"`
	Title      string    `json:"title"`
	PosterRef  string    `json:"posterRef"`
	Synopsis   string    `json:"overview"`
	CreatedAt  time.Time `json:"createdAt"`
}
