package source

import (
	"slices"
)

type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates identifier and path strings into dense IDs.
// ID 0 is reserved for the empty string so NoStringID round-trips.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern returns the ID for s, allocating one if the string is new.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	// Copy so the interner never aliases a caller-owned buffer.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string for id, or ("", false) for an unknown ID.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics on unknown IDs. Use only for IDs produced by this interner.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len counts interned strings including the reserved empty string.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot returns a copy of all interned strings in ID order.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}

// InternerFromSnapshot rebuilds an interner from a Snapshot slice, keeping
// every ID stable. An empty snapshot yields a fresh interner.
func InternerFromSnapshot(strs []string) *Interner {
	if len(strs) == 0 {
		return NewInterner()
	}
	in := &Interner{
		byID:  slices.Clone(strs),
		index: make(map[string]StringID, len(strs)),
	}
	for id, s := range in.byID {
		in.index[s] = StringID(id)
	}
	return in
}
