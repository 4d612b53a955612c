package urlstream

import (
	"sort"
	"strings"
)

// QueryPair is one (name, value) entry in a QueryList.
type QueryPair struct {
	Name, Value string
}

// QueryList is the ordered, duplicate-preserving query-string
// representation of §3 "Query list".
type QueryList struct {
	Pairs []QueryPair
}

// ParseQueryList parses an x-www-form-urlencoded query string (without
// its leading '?') into an ordered QueryList.
func ParseQueryList(s string) QueryList {
	var q QueryList
	if s == "" {
		return q
	}
	for _, part := range strings.Split(s, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		q.Pairs = append(q.Pairs, QueryPair{
			Name:  formDecode(name),
			Value: formDecode(value),
		})
	}
	return q
}

func formDecode(s string) string {
	return PercentDecode(strings.ReplaceAll(s, "+", " "))
}

func formEncode(s string) string {
	encoded := PercentEncodeAfterEncoding(nil, s, FormURLEncodedEncodeSet)
	return strings.ReplaceAll(encoded, "%20", "+")
}

// String renders the list back to x-www-form-urlencoded form.
func (q QueryList) String() string {
	parts := make([]string, len(q.Pairs))
	for i, p := range q.Pairs {
		parts[i] = formEncode(p.Name) + "=" + formEncode(p.Value)
	}
	return strings.Join(parts, "&")
}

// Append adds a new (name, value) pair, preserving any existing entries
// with the same name.
func (q *QueryList) Append(name, value string) {
	q.Pairs = append(q.Pairs, QueryPair{Name: name, Value: value})
}

// Set replaces the value of the first pair named name, or appends one if
// absent, and removes any further duplicates of name (matching
// URLSearchParams.set semantics).
func (q *QueryList) Set(name, value string) {
	found := false
	out := q.Pairs[:0]
	for _, p := range q.Pairs {
		if p.Name != name {
			out = append(out, p)
			continue
		}
		if !found {
			out = append(out, QueryPair{Name: name, Value: value})
			found = true
		}
	}
	q.Pairs = out
	if !found {
		q.Append(name, value)
	}
}

// Delete removes every pair named name.
func (q *QueryList) Delete(name string) {
	out := q.Pairs[:0]
	for _, p := range q.Pairs {
		if p.Name != name {
			out = append(out, p)
		}
	}
	q.Pairs = out
}

// Sort stably reorders pairs by the UTF-16 code unit sequence of their
// name, per §3's query-list mutation operations.
func (q *QueryList) Sort() {
	sort.SliceStable(q.Pairs, func(i, j int) bool {
		return utf16Less(q.Pairs[i].Name, q.Pairs[j].Name)
	})
}

func utf16Less(a, b string) bool {
	ua := utf16Units(a)
	ub := utf16Units(b)
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

func utf16Units(s string) []uint16 {
	var out []uint16
	for _, r := range s {
		if r <= 0xffff {
			out = append(out, uint16(r))
			continue
		}
		r -= 0x10000
		out = append(out, uint16(0xd800+(r>>10)), uint16(0xdc00+(r&0x3ff)))
	}
	return out
}
