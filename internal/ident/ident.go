package ident

import (
	"fmt"
	"regexp"
	"strings"

	"dihi/internal/services"
)

// Item IDs are exactly 11 characters; collection IDs are at least 13. The gap
// keeps the two token shapes disjoint so a trigger can never be routed to the
// wrong pool.
var (
	itemIDPattern       = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	collectionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{13,128}$`)
)

// NormalizeItemID trims and validates a single-item identifier.
func NormalizeItemID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || !itemIDPattern.MatchString(id) {
		return "", services.Wrap(services.ErrValidation, "ident", "item", fmt.Sprintf("invalid item id %q", raw), nil)
	}
	return id, nil
}

// NormalizeCollectionID trims and validates a collection identifier.
func NormalizeCollectionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || !collectionIDPattern.MatchString(id) {
		return "", services.Wrap(services.ErrValidation, "ident", "collection", fmt.Sprintf("invalid collection id %q", raw), nil)
	}
	return id, nil
}

// IsItemID reports whether the token has the single-item shape. Used when
// filtering enumeration output, where malformed lines are skipped rather than
// rejected.
func IsItemID(token string) bool {
	return itemIDPattern.MatchString(token)
}
