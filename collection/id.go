package collection

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/stevemurr/cafe-server/store"
)

// maxSafeID is the largest integer a JSON client can round-trip exactly.
const maxSafeID = 1 << 53

// NextID returns one more than the largest numeric id in records, or 1 when
// there is none. Ids that do not coerce to a finite number in (0, 2^53] count
// as 0; fractional ids are floored first. The result exceeds maxSafeID when
// the collection already holds 2^53; Create refuses to allocate it.
func NextID(records []store.Record) int64 {
	var highest float64
	for _, r := range records {
		if n := numericID(r["id"]); n > highest {
			highest = n
		}
	}
	return int64(math.Floor(highest)) + 1
}

// numericID coerces an id value the way a loosely typed JSON client would:
// numbers as-is, numeric strings parsed, booleans as 1 or 0.
func numericID(v any) float64 {
	var n float64
	switch id := v.(type) {
	case float64:
		n = id
	case int:
		n = float64(id)
	case int64:
		n = float64(id)
	case json.Number:
		f, err := id.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		n = f
	case bool:
		if id {
			n = 1
		}
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 || n > maxSafeID {
		return 0
	}
	return n
}

// idString renders an id for comparison against a path parameter.
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// indexOf returns the position of the record whose id matches, or -1.
func indexOf(records []store.Record, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range records {
		if idString(r["id"]) == id {
			return i
		}
	}
	return -1
}

// DuplicateIDs returns, sorted, every id that appears on more than one
// record. An empty result means the collection satisfies id uniqueness.
func DuplicateIDs(records []store.Record) []string {
	seen := make(map[string]int, len(records))
	for _, r := range records {
		if id := idString(r["id"]); id != "" {
			seen[id]++
		}
	}
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}
