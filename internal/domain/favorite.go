package domain

import "time"

// Favorite links a user to a cached item. At most one exists per (user, item).
type Favorite struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	Item      CachedItem `json:"item"`
	Note      *string    `json:"note"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ExternalID is shorthand for the linked item's catalog id.
func (f *Favorite) ExternalID() int64 {
	return f.Item.ExternalID
}

