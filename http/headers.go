package http

import "strings"

// HeaderEntry is a single name/value pair. Names are kept lowercased, the
// form they are serialized in.
type HeaderEntry struct {
	Name  string
	Value string
}

// Headers is an ordered header multimap. Insertion order is preserved and
// duplicate names are kept; lookups are case-insensitive.
type Headers struct {
	entries []HeaderEntry
}

func (h *Headers) Add(name, value string) {
	h.entries = append(h.entries, HeaderEntry{Name: strings.ToLower(name), Value: value})
}

// Set drops every entry named name and appends a single new one.
func (h *Headers) Set(name, value string) {
	name = strings.ToLower(name)
	kept := h.entries[:0]
	for _, entry := range h.entries {
		if entry.Name != name {
			kept = append(kept, entry)
		}
	}
	h.entries = append(kept, HeaderEntry{Name: name, Value: value})
}

// Get returns the first value recorded for name.
func (h *Headers) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, entry := range h.entries {
		if entry.Name == name {
			return entry.Value, true
		}
	}
	return "", false
}

func (h *Headers) Has(name string) bool {
	_, found := h.Get(name)
	return found
}

func (h *Headers) Len() int {
	return len(h.entries)
}

// Entries exposes the entries in insertion order.
func (h *Headers) Entries() []HeaderEntry {
	return h.entries
}
