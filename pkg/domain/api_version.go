package domain

import (
	"fmt"
	"strings"
)

// APIVersion names a mounted API surface. v1 carries the CRUD routes for both
// collections; v2 adds the paginated securities search.
type APIVersion string

const (
	APIVersionV1 APIVersion = "v1"
	APIVersionV2 APIVersion = "v2"
)

// ParseAPIVersion accepts a mounted version, ignoring case and surrounding space.
func ParseAPIVersion(s string) (APIVersion, error) {
	switch v := APIVersion(strings.ToLower(strings.TrimSpace(s))); v {
	case APIVersionV1, APIVersionV2:
		return v, nil
	default:
		return "", fmt.Errorf("unknown API version: %q", s)
	}
}

func (v APIVersion) String() string {
	return string(v)
}

// Prefix is the URL path the version is mounted under.
func (v APIVersion) Prefix() string {
	return "/api/" + string(v)
}
