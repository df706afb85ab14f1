package lint

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/fraglint/pkg/models"
)

const (
	directiveLine     = "fraglint-disable-line"
	directiveNextLine = "fraglint-disable-next-line"
)

// Suppressions records the lines on which inline comments silence
// findings. Lines are relative to the fragment text.
type Suppressions struct {
	all    *roaring.Bitmap
	byRule map[models.RuleID]*roaring.Bitmap
}

// ParseSuppressions scans text for disable comments. A directive with no
// rule list silences every rule; otherwise only the comma or space
// separated rules named after it.
//
//	x = a.b.c; // fraglint-disable-line unsafe-property-access
//	// fraglint-disable-next-line
func ParseSuppressions(text string) *Suppressions {
	s := &Suppressions{all: roaring.New(), byRule: make(map[models.RuleID]*roaring.Bitmap)}
	for i, line := range strings.Split(text, "\n") {
		lineNo := uint32(i + 1)
		if idx := strings.Index(line, directiveNextLine); idx >= 0 {
			s.add(lineNo+1, line[idx+len(directiveNextLine):])
			continue
		}
		if idx := strings.Index(line, directiveLine); idx >= 0 {
			s.add(lineNo, line[idx+len(directiveLine):])
		}
	}
	return s
}

func (s *Suppressions) add(line uint32, rest string) {
	rules := directiveRules(rest)
	if len(rules) == 0 {
		s.all.Add(line)
		return
	}
	for _, r := range rules {
		bm, ok := s.byRule[r]
		if !ok {
			bm = roaring.New()
			s.byRule[r] = bm
		}
		bm.Add(line)
	}
}

// directiveRules reads rule names up to the end of the comment.
func directiveRules(rest string) []models.RuleID {
	for _, end := range []string{"*/", "%>"} {
		if i := strings.Index(rest, end); i >= 0 {
			rest = rest[:i]
		}
	}
	var out []models.RuleID
	for _, f := range strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		out = append(out, models.RuleID(f))
	}
	return out
}

// Suppressed reports whether f, with a fragment-relative line, is
// silenced.
func (s *Suppressions) Suppressed(f models.Finding) bool {
	if s == nil || f.Line <= 0 {
		return false
	}
	line := uint32(f.Line)
	if s.all.Contains(line) {
		return true
	}
	bm, ok := s.byRule[f.Rule]
	return ok && bm.Contains(line)
}

// Empty reports whether no directive was found.
func (s *Suppressions) Empty() bool {
	return s == nil || (s.all.IsEmpty() && len(s.byRule) == 0)
}
