// Package assessment classifies assessment templates and models the assessment
// records listed on the dashboard.
package assessment

import (
	"strings"
	"unicode"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/apsas/core/academic"
)

type Type int

const (
	Assignment Type = iota
	Lab
	PracticalExam
)

var Types = []Type{Assignment, Lab, PracticalExam}

func (t Type) String() string {
	switch t {
	case Lab:
		return "Lab"
	case PracticalExam:
		return "PracticalExam"
	default:
		return "Assignment"
	}
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseType accepts a type name (case-insensitive) or its numeric value.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "assignment":
		return Assignment, true
	case "1", "lab":
		return Lab, true
	case "2", "practicalexam", "practical_exam", "pe":
		return PracticalExam, true
	}
	return Assignment, false
}

var (
	labKeywords  = []string{"lab", "laboratory", "thực hành"}
	examKeywords = []string{"exam", "pe", "practical exam", "test"}
)

// Classify returns the element type when known, otherwise guesses it from names (first name matching wins).
func Classify(elementType null.Int, names ...string) Type {
	if elementType.Valid {
		switch elementType.Int {
		case 0:
			return Assignment
		case 1:
			return Lab
		case 2:
			return PracticalExam
		}
	}
	for _, name := range names {
		words := " " + strings.Join(tokenize(name), " ") + " "
		if containsAny(words, labKeywords) {
			return Lab
		}
		if containsAny(words, examKeywords) {
			return PracticalExam
		}
	}
	return Assignment
}

// Classifier classifies templates through their linked course elements.
type Classifier struct {
	elements map[int]academic.CourseElement
}

func NewClassifier(elements []academic.CourseElement) *Classifier {
	m := make(map[int]academic.CourseElement, len(elements))
	for _, e := range elements {
		m[e.ID] = e
	}
	return &Classifier{elements: m}
}

func (c *Classifier) Template(tmpl academic.AssessmentTemplate) Type {
	elem, ok := c.elements[tmpl.CourseElementID]
	if !ok {
		return Classify(null.Int{}, tmpl.Name, tmpl.CourseElementName)
	}
	elemName := elem.Name
	if elemName == "" {
		elemName = tmpl.CourseElementName
	}
	return Classify(elem.ElementType, tmpl.Name, elemName)
}

// keywords match whole words, plurals included: "pe" must not match "paper", "lab" matches "labs".
func containsAny(words string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(words, " "+kw+" ") || strings.Contains(words, " "+kw+"s ") {
			return true
		}
	}
	return false
}

// tokenize lowers s and splits it on non alphanumerics, on letter/digit transitions
// and on camelCase humps ("FinalExam01" -> "final", "exam", "01").
func tokenize(s string) []string {
	var (
		tokens []string
		curr   []rune
		digits bool
		lower  bool // last rune was a lower case letter
	)
	flush := func() {
		if len(curr) > 0 {
			tokens = append(tokens, string(curr))
			curr = curr[:0]
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r):
			if digits || (lower && unicode.IsUpper(r)) {
				flush()
			}
			digits = false
			lower = unicode.IsLower(r)
			curr = append(curr, unicode.ToLower(r))
		case unicode.IsDigit(r):
			if !digits {
				flush()
			}
			digits, lower = true, false
			curr = append(curr, r)
		default:
			flush()
			digits, lower = false, false
		}
	}
	flush()
	return tokens
}
