package ranking

import "strconv"

// AthleteKey identifies an athlete within one ranking computation.
//
// The upstream club endpoints do not always carry a numeric athlete id, so a
// key is either the platform-issued id or a fallback derived from the display
// name. Keys are comparable and usable as map keys; two derived keys collide
// when two club members share the exact same name, which is a visible
// limitation of the upstream data rather than something this layer can fix.
type AthleteKey struct {
	id    int64
	first string
	last  string
}

// NumericKey returns a key for a platform-issued athlete id.
func NumericKey(id int64) AthleteKey {
	return AthleteKey{id: id}
}

// DerivedKey returns a name-derived key for athletes without a numeric id.
func DerivedKey(first, last string) AthleteKey {
	return AthleteKey{first: first, last: last}
}

// KeyFor prefers the numeric id and falls back to the derived name key.
func KeyFor(id int64, first, last string) AthleteKey {
	if id != 0 {
		return NumericKey(id)
	}
	return DerivedKey(first, last)
}

// IsNumeric reports whether the key carries a platform-issued id.
func (k AthleteKey) IsNumeric() bool { return k.id != 0 }

// IsZero reports whether the key carries no identity at all. Records with a
// zero key cannot be attributed to anyone and are skipped.
func (k AthleteKey) IsZero() bool {
	return k.id == 0 && k.first == "" && k.last == ""
}

// String renders the key for logs and debugging.
func (k AthleteKey) String() string {
	if k.IsNumeric() {
		return strconv.FormatInt(k.id, 10)
	}
	return k.first + "|" + k.last
}
