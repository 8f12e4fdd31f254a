package collection

import (
	"net/url"
	"slices"
	"strings"

	"github.com/stevemurr/cafe-server/store"
)

// allCategories is the catalog's "no category filter" value.
const allCategories = "todos"

// textFields are the fields searched by a free-text query.
var textFields = []string{"name", "description"}

// FilterFields are the query parameters FilterFromQuery turns into field
// matches. Any other parameter, such as a cache-busting "_", is ignored.
var FilterFields = []string{"category", "available", "role", "email", "status"}

// Filter narrows a List call. Query matches case-insensitively against the
// name and description fields; Fields keeps records whose field string-equals
// the given value.
type Filter struct {
	Query  string
	Fields map[string]string
}

// FilterFromQuery builds a Filter from URL query parameters. The "q"
// parameter is the free-text query; parameters named in FilterFields are
// field matches, except category=todos which means any category.
func FilterFromQuery(v url.Values) Filter {
	var f Filter
	for key, values := range v {
		if len(values) == 0 {
			continue
		}
		value := strings.TrimSpace(values[0])
		switch {
		case value == "":
		case key == "q":
			f.Query = value
		case key == "category" && strings.EqualFold(value, allCategories):
		case !slices.Contains(FilterFields, key):
		default:
			if f.Fields == nil {
				f.Fields = make(map[string]string)
			}
			f.Fields[key] = value
		}
	}
	return f
}

// IsZero reports whether f matches everything.
func (f Filter) IsZero() bool {
	return f.Query == "" && len(f.Fields) == 0
}

// Match reports whether r satisfies f.
func (f Filter) Match(r store.Record) bool {
	for key, want := range f.Fields {
		if idString(r[key]) != want {
			return false
		}
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	for _, field := range textFields {
		if s, ok := r[field].(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// String renders f as a query string with sorted keys.
func (f Filter) String() string {
	if f.IsZero() {
		return ""
	}
	v := url.Values{}
	for k, value := range f.Fields {
		v.Set(k, value)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v.Encode()
}
