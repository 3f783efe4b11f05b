package helpers

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NotSetValue stands in for a missing or empty side of a change so the
// audit trail always shows both old and new.
const NotSetValue = "(not set)"

// diffIgnoredKeys are derived fields recomputed on every save. Recording
// them would bury the meaningful edits under arithmetic noise.
var diffIgnoredKeys = map[string]struct{}{
	"grossTotal":    {},
	"totalDiscount": {},
	"taxableTotal":  {},
	"totalGst":      {},
	"total":         {},
	"igst":          {},
	"cgst":          {},
	"sgst":          {},
	"createdAt":     {},
	"updatedAt":     {},
}

// FieldChange is one recorded field transition.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// ObjectChanges compares two domain objects field by field and returns a map
// of changed field names to their old/new values. Both arguments are passed
// through JSON so structs, maps and pointer fields all compare uniformly.
// Derived monetary totals and timestamps are skipped. Nested maps flatten
// into dotted paths; slices compare element-wise with added and removed
// entries tagged explicitly. An empty result means nothing audit-worthy
// changed.
func ObjectChanges(oldObj, newObj interface{}) (map[string]FieldChange, error) {
	oldMap, err := toMap(oldObj)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize old object: %w", err)
	}
	newMap, err := toMap(newObj)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize new object: %w", err)
	}

	changes := make(map[string]FieldChange)
	diffMaps("", oldMap, newMap, changes)
	return changes, nil
}

func toMap(obj interface{}) (map[string]interface{}, error) {
	if obj == nil {
		return map[string]interface{}{}, nil
	}
	if m, ok := obj.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func diffMaps(prefix string, oldMap, newMap map[string]interface{}, changes map[string]FieldChange) {
	keys := make(map[string]struct{}, len(oldMap)+len(newMap))
	for k := range oldMap {
		keys[k] = struct{}{}
	}
	for k := range newMap {
		keys[k] = struct{}{}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	for _, key := range ordered {
		if _, skip := diffIgnoredKeys[key]; skip {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		diffValues(path, oldMap[key], newMap[key], changes)
	}
}

func diffValues(path string, oldVal, newVal interface{}, changes map[string]FieldChange) {
	if equalValues(oldVal, newVal) {
		return
	}

	oldNested, oldIsMap := oldVal.(map[string]interface{})
	newNested, newIsMap := newVal.(map[string]interface{})
	if oldIsMap && newIsMap {
		diffMaps(path, oldNested, newNested, changes)
		return
	}

	oldSlice, oldIsSlice := oldVal.([]interface{})
	newSlice, newIsSlice := newVal.([]interface{})
	if oldIsSlice || newIsSlice {
		diffSlices(path, oldSlice, newSlice, changes)
		return
	}

	changes[path] = FieldChange{Old: displayValue(oldVal), New: displayValue(newVal)}
}

// diffSlices compares element-wise by position. Elements past the shorter
// slice's length are reported as added or removed with a positional tag,
// identified by their description rather than a full JSON dump.
func diffSlices(path string, oldSlice, newSlice []interface{}, changes map[string]FieldChange) {
	maxLen := len(oldSlice)
	if len(newSlice) > maxLen {
		maxLen = len(newSlice)
	}
	for i := 0; i < maxLen; i++ {
		itemPath := fmt.Sprintf("%s.item_%d", path, i+1)
		switch {
		case i >= len(oldSlice):
			changes[itemPath+" (ADDED)"] = FieldChange{Old: NotSetValue, New: itemLabel(newSlice[i])}
		case i >= len(newSlice):
			changes[itemPath+" (REMOVED)"] = FieldChange{Old: itemLabel(oldSlice[i]), New: NotSetValue}
		default:
			diffValues(itemPath, oldSlice[i], newSlice[i], changes)
		}
	}
}

// itemLabel names an added or removed slice element for the history view.
func itemLabel(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		if desc, ok := m["description"].(string); ok && desc != "" {
			return desc
		}
		return "N/A"
	}
	return displayValue(v)
}

func equalValues(a, b interface{}) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}
	// Scalars compare by their string form so a number and its string
	// representation never register as an edit.
	if isScalar(a) && isScalar(b) {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	ra, err := json.Marshal(a)
	if err != nil {
		return false
	}
	rb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ra) == string(rb)
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil, map[string]interface{}, []interface{}:
		return false
	}
	return true
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}

// displayValue renders a change side for storage. Empty values collapse to
// the not-set sentinel; composite values render as compact JSON so the
// history view stays one line per change.
func displayValue(v interface{}) interface{} {
	if isEmpty(v) {
		return NotSetValue
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
	return v
}
