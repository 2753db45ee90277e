package store

import "github.com/google/uuid"

// validID reports whether id can be compared against a uuid column. Postgres answers a
// malformed value with a syntax error rather than an empty result.
func validID(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
