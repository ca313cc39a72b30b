// Package listfilter turns list query parameters into a MongoDB filter,
// sort and page window.
//
// Each list endpoint declares which query keys it recognizes and how their
// values are typed (a Spec); Build then does the parsing. Unrecognized
// query keys are ignored so callers can share a query string with other
// parameters.
//
// Matching rules:
//   - String fields match exactly, or partially when the value contains '*'
//     (e.g. name=*ana* or email=*@campus.edu). Partial matches are
//     case-insensitive.
//   - Email fields are String fields whose exact value is lower-cased first,
//     matching how addresses are stored.
//   - Number fields match exactly; a non-numeric value is an error.
//   - "search" is a case-insensitive substring match across Spec.Search.
//   - "sort" is a comma list of field keys; a leading '-' sorts descending.
//     Unknown sort keys are ignored and _id is always the final tie-breaker.
//   - "limit" and "skip" follow the paging package defaults.
package listfilter

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dalemusser/votehub/internal/app/system/normalize"
	"github.com/dalemusser/votehub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Kind is the expected value type of a filter field.
type Kind int

const (
	String Kind = iota
	Email
	Number
)

// Field declares one recognized filter key.
type Field struct {
	Key  string // query-string key, e.g. "yearClass"
	Path string // document path, e.g. "year_class"
	Kind Kind
}

// Spec enumerates the recognized filter keys of a list endpoint.
type Spec struct {
	Fields []Field
	Search []string // document paths searched by the "search" key
}

// Params is the result of Build.
type Params struct {
	Filter bson.M
	Sort   bson.D
	Window paging.Window
}

// ErrBadValue is returned (wrapped) when a query value cannot be parsed as
// its declared Kind.
var ErrBadValue = errors.New("invalid filter value")

// Build parses q against spec.
func Build(q url.Values, spec Spec) (Params, error) {
	filter := bson.M{}

	for _, f := range spec.Fields {
		raw := normalize.QueryParam(q.Get(f.Key))
		if raw == "" {
			continue
		}
		switch f.Kind {
		case Number:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return Params{}, fmt.Errorf("%w: %s=%q is not a number", ErrBadValue, f.Key, raw)
			}
			filter[f.Path] = n
		default:
			if strings.Contains(raw, "*") {
				filter[f.Path] = wildcardRegex(raw)
			} else if f.Kind == Email {
				filter[f.Path] = normalize.Email(raw)
			} else {
				filter[f.Path] = raw
			}
		}
	}

	if s := normalize.QueryParam(q.Get("search")); s != "" && len(spec.Search) > 0 {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		or := make(bson.A, 0, len(spec.Search))
		for _, path := range spec.Search {
			or = append(or, bson.M{path: rx})
		}
		filter["$or"] = or
	}

	return Params{
		Filter: filter,
		Sort:   buildSort(q.Get("sort"), spec),
		Window: paging.ParseWindow(q.Get("limit"), q.Get("skip")),
	}, nil
}

// FindOptions returns find options carrying the sort and page window.
func (p Params) FindOptions() *options.FindOptions {
	return p.Window.ApplyToFind(options.Find().SetSort(p.Sort))
}

// wildcardRegex converts a '*' pattern into an anchored, case-insensitive
// regex with every other character quoted.
func wildcardRegex(pattern string) primitive.Regex {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return primitive.Regex{Pattern: "^" + strings.Join(parts, ".*") + "$", Options: "i"}
}

func buildSort(raw string, spec Spec) bson.D {
	paths := make(map[string]string, len(spec.Fields))
	for _, f := range spec.Fields {
		paths[f.Key] = f.Path
	}

	sort := bson.D{}
	seen := map[string]bool{}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(tok, "-") {
			dir = -1
			tok = tok[1:]
		}
		path, ok := paths[tok]
		if !ok || seen[path] {
			continue
		}
		seen[path] = true
		sort = append(sort, bson.E{Key: path, Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}
