// internal/app/system/paging/paging.go
package paging

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows returned by list endpoints when the
// caller does not pass a limit.
const PageSize = 50

// MaxPageSize caps caller-supplied limits.
const MaxPageSize = 500

// Window is an offset/limit page request.
type Window struct {
	Limit int64
	Skip  int64
}

// ParseLimit parses a "limit" query value. Missing, invalid or non-positive
// values yield PageSize; values above MaxPageSize are clamped.
func ParseLimit(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ParseSkip parses a "skip" query value. Missing, invalid or negative values
// yield 0.
func ParseSkip(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseWindow combines ParseLimit and ParseSkip.
func ParseWindow(limit, skip string) Window {
	return Window{Limit: ParseLimit(limit), Skip: ParseSkip(skip)}
}

// ApplyToFind sets limit and skip on find.
func (w Window) ApplyToFind(find *options.FindOptions) *options.FindOptions {
	return find.SetLimit(w.Limit).SetSkip(w.Skip)
}
