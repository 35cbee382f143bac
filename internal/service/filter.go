package service

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/var1ableX/langconnect-client/internal/model"
)

// MatchFilter reports whether metadata carries every filter key with an
// equal value. Numbers compare by value whatever their Go type; a number
// never equals its string form.
func MatchFilter(metadata, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || !valueEqual(got, want) {
			return false
		}
	}
	return true
}

func applyFilter(items []model.SearchResult, filter map[string]interface{}) []model.SearchResult {
	if len(filter) == 0 {
		return items
	}
	out := make([]model.SearchResult, 0, len(items))
	for _, item := range items {
		if MatchFilter(item.Metadata, filter) {
			out = append(out, item)
		}
	}
	return out
}

func valueEqual(a, b interface{}) bool {
	if fa, ok := toNumber(a); ok {
		fb, ok := toNumber(b)
		return ok && fa == fb
	}
	if _, ok := toNumber(b); ok {
		return false
	}
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !valueEqual(v, w) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
