package evidence

import (
	"fmt"
	"math"
	"strconv"
)

// Item is one retrieved text record with metadata, the unit the system
// reasons and builds graphs over. Immutable once produced by the
// retrieval layer.
type Item struct {
	ID   string         `json:"id"`
	Text string         `json:"text"`
	Meta map[string]any `json:"meta"`
}

// Decision is the structured output of the reasoning step.
type Decision struct {
	Decision     string           `json:"decision"`
	Confidence   float64          `json:"confidence"`
	Rationale    string           `json:"rationale"`
	EvidenceIDs  []string         `json:"evidence_ids"`
	OverlayEdges []map[string]any `json:"overlay_edges"`
}

// Parsed returns the nested "parsed" sub-record of an item's metadata,
// or nil when absent or not a mapping.
func (i Item) Parsed() map[string]any {
	if i.Meta == nil {
		return nil
	}
	parsed, _ := i.Meta["parsed"].(map[string]any)
	return parsed
}

// HasFinanceSignal reports whether the item's parsed record carries any
// of the key finance fields.
func (i Item) HasFinanceSignal() bool {
	parsed := i.Parsed()
	if parsed == nil {
		return false
	}
	for _, key := range []string{"vendor_id", "invoice_number", "transaction_id"} {
		if v, ok := parsed[key]; ok && v != nil && Stringify(v) != "" {
			return true
		}
	}
	return false
}

// Stringify converts a metadata value into its anchor string form.
// Numeric and string encodings of the same identity must collide, so
// whole-number floats render without a decimal part (JSON decodes all
// numbers as float64).
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
