package evidence

import (
	"encoding/json"
	"sort"
)

// Anchor kinds. Every AnchorSet carries all four keys, populated or not.
const (
	KindVendor      = "vendor_id"
	KindTransaction = "transaction_id"
	KindSKU         = "sku"
	KindChunk       = "chunk_id"
)

// Kinds lists the anchor kinds in stable order.
var Kinds = []string{KindVendor, KindTransaction, KindSKU, KindChunk}

// Synonym keys recognized per anchor kind. Upstream sources are
// heterogeneous, so each kind tolerates several spellings.
// invoice_number is a first-class alias for transaction_id everywhere
// anchors are extracted or matched.
var (
	vendorKeys      = []string{"vendor_id", "vendorId", "vendor"}
	transactionKeys = []string{"transaction_id", "transactionId", "txn_id", "txn", "invoice_number", "invoiceNumber"}
	skuKeys         = []string{"sku", "product_sku"}
)

// AnchorSet maps an anchor kind to the set of string values extracted
// for it. Derived deterministically from evidence; never persisted.
type AnchorSet map[string]map[string]struct{}

// NewAnchorSet returns an AnchorSet with every kind present and empty.
func NewAnchorSet() AnchorSet {
	set := make(AnchorSet, len(Kinds))
	for _, kind := range Kinds {
		set[kind] = make(map[string]struct{})
	}
	return set
}

// Add inserts a stringified value under kind. Empty values are ignored.
func (a AnchorSet) Add(kind string, value any) {
	s := Stringify(value)
	if s == "" {
		return
	}
	if a[kind] == nil {
		a[kind] = make(map[string]struct{})
	}
	a[kind][s] = struct{}{}
}

// Has reports whether the value is an anchor of the given kind.
func (a AnchorSet) Has(kind, value string) bool {
	_, ok := a[kind][value]
	return ok
}

// Values returns the sorted values for a kind.
func (a AnchorSet) Values(kind string) []string {
	values := make([]string, 0, len(a[kind]))
	for v := range a[kind] {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// ExtractAnchors scans evidence metadata for domain identifiers and
// returns the per-kind value sets. Both the top-level meta and a nested
// parsed record are examined; parsed fields take priority for domain
// fields but both contribute. Pure and deterministic.
func ExtractAnchors(items []Item) AnchorSet {
	anchors := NewAnchorSet()
	for _, item := range items {
		for _, record := range []map[string]any{item.Parsed(), item.Meta} {
			if record == nil {
				continue
			}
			collectRecord(anchors, record)
		}
	}
	return anchors
}

func collectRecord(anchors AnchorSet, record map[string]any) {
	for _, key := range vendorKeys {
		if v, ok := record[key]; ok {
			anchors.Add(KindVendor, v)
		}
	}
	for _, key := range transactionKeys {
		if v, ok := record[key]; ok {
			anchors.Add(KindTransaction, v)
		}
	}
	for _, key := range skuKeys {
		if v, ok := record[key]; ok {
			anchors.Add(KindSKU, v)
		}
	}
	// chunk_id comes from the generic id field of the metadata record,
	// not from the evidence item's own id.
	if v, ok := record["id"]; ok {
		anchors.Add(KindChunk, v)
	}
	for _, sku := range itemSKUs(record["items"]) {
		anchors.Add(KindSKU, sku)
	}
}

// itemSKUs pulls SKU values out of a parsed items field, which may be a
// decoded list of {sku, product} records or a string-encoded list.
// Malformed shapes yield nothing rather than an error.
func itemSKUs(raw any) []string {
	if raw == nil {
		return nil
	}
	if s, ok := raw.(string); ok {
		var decoded []map[string]any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		generic := make([]any, len(decoded))
		for i, m := range decoded {
			generic[i] = m
		}
		raw = generic
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var skus []string
	for _, entry := range list {
		record, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if sku := Stringify(record["sku"]); sku != "" {
			skus = append(skus, sku)
		}
	}
	return skus
}

// MatchesAnchor reports whether an evidence item's metadata carries the
// given anchor value, checking the top-level meta and the nested parsed
// record with the same synonym tolerance used during extraction.
func MatchesAnchor(item Item, kind, value string) bool {
	for _, record := range []map[string]any{item.Meta, item.Parsed()} {
		if record == nil {
			continue
		}
		if recordHasAnchor(record, kind, value) {
			return true
		}
	}
	return false
}

func recordHasAnchor(record map[string]any, kind, value string) bool {
	var keys []string
	switch kind {
	case KindVendor:
		keys = vendorKeys
	case KindTransaction:
		keys = transactionKeys
	case KindSKU:
		keys = skuKeys
	case KindChunk:
		keys = []string{"id"}
	default:
		keys = []string{kind}
	}
	for _, key := range keys {
		if v, ok := record[key]; ok && Stringify(v) == value {
			return true
		}
	}
	if kind == KindSKU {
		for _, sku := range itemSKUs(record["items"]) {
			if sku == value {
				return true
			}
		}
	}
	return false
}
