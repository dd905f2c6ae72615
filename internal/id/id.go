// Package id generates prefixed identifiers for persisted records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the record kinds the store persists.
const (
	PrefixCachedItem = "item"
	PrefixFavorite   = "fav"
)

// Generate creates a prefixed NanoID, e.g. "fav-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// NewCachedItemID returns an id for a new cached catalog item.
func NewCachedItemID() (string, error) {
	return Generate(PrefixCachedItem)
}

// NewFavoriteID returns an id for a new favorite.
func NewFavoriteID() (string, error) {
	return Generate(PrefixFavorite)
}
