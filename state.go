package storex

import "sort"

// State is the store's flat field map.
// Values handed out by a Store are snapshots; the store never writes to a map
// after it has left the commit path.
type State map[string]any

// Patch is a partial state merged shallowly into the current State.
type Patch map[string]any

// Get retrieves a value by key. Returns nil if the key does not exist.
func (s State) Get(key string) any {
	return s[key]
}

// Has reports whether key is present.
func (s State) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Int returns an int value. Returns 0 if missing or not numeric.
func (s State) Int(key string) int {
	switch n := s[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case int32:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	}
	return 0
}

// Float returns a float64 value. Returns 0 if missing or not numeric.
func (s State) Float(key string) float64 {
	switch n := s[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return 0
}

// String returns a string value. Returns "" if missing or of another type.
func (s State) String(key string) string {
	if str, ok := s[key].(string); ok {
		return str
	}
	return ""
}

// Bool returns a bool value. Returns false if missing or of another type.
func (s State) Bool(key string) bool {
	if b, ok := s[key].(bool); ok {
		return b
	}
	return false
}

// Keys returns the field names in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. A nil State clones to an empty one.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a new State holding every field of s overridden by the fields
// of p. Neither s nor p is modified.
func (s State) Merge(p Patch) State {
	out := make(State, len(s)+len(p))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range p {
		out[k] = v
	}
	return out
}
