package markup

import (
	"sort"

	wxrcore "github.com/wxrmigrate/wxrcore"
)

// Edit is one staged byte-range replacement against the original document.
type Edit struct {
	Start, End  int
	Replacement string
}

// EditSet accumulates staged edits and applies them in ascending offset
// order, per §4.5's "Writes are staged as byte-range replacements and
// applied in increasing-offset order on get_updated_html()."
type EditSet struct {
	edits []Edit
}

// Stage records a new edit. Overlap detection happens at apply/Conflicts
// time, not here, so a caller can stage edits in any order.
func (s *EditSet) Stage(start, end int, replacement string) {
	s.edits = append(s.edits, Edit{Start: start, End: end, Replacement: replacement})
}

func (s *EditSet) sorted() []Edit {
	out := make([]Edit, len(s.edits))
	copy(out, s.edits)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Apply rewrites doc with all staged edits, in ascending offset order, and
// fails fast on the first overlap.
func (s *EditSet) Apply(doc string) (string, error) {
	edits := s.sorted()
	var buf []byte
	pos := 0
	for i, e := range edits {
		if e.Start < pos {
			prev := edits[i-1]
			return "", &wxrcore.ConflictingEdit{
				FirstStart: prev.Start, FirstEnd: prev.End,
				SecondStart: e.Start, SecondEnd: e.End,
			}
		}
		buf = append(buf, doc[pos:e.Start]...)
		buf = append(buf, e.Replacement...)
		pos = e.End
	}
	buf = append(buf, doc[pos:]...)
	return string(buf), nil
}

// Conflicts reports every overlapping pair of staged edits without
// stopping at the first, so a caller can surface all collisions in one
// pass (mirroring ErrManifestVerification's collect-everything style).
func (s *EditSet) Conflicts() []*wxrcore.ConflictingEdit {
	edits := s.sorted()
	var out []*wxrcore.ConflictingEdit
	for i := 1; i < len(edits); i++ {
		cur := edits[i]
		for _, prev := range edits[:i] {
			if cur.Start < prev.End {
				out = append(out, &wxrcore.ConflictingEdit{
					FirstStart: prev.Start, FirstEnd: prev.End,
					SecondStart: cur.Start, SecondEnd: cur.End,
				})
			}
		}
	}
	return out
}
