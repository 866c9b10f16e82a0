package bundle

import (
	"io"
	"sort"

	"github.com/trezcool/apsas/core/academic"
)

// Document is the requirement document of an assessment template.
type Document struct {
	Title  string
	Papers []PaperSection
}

type PaperSection struct {
	Paper     academic.Paper
	Questions []QuestionSection
}

type QuestionSection struct {
	Question academic.Question
	Rubric   []academic.RubricItem
}

// DocumentRenderer writes a Document in a word processor format.
type DocumentRenderer interface {
	Render(w io.Writer, doc *Document) error
	Extension() string
}

// SortQuestions orders questions by ascending question number, unnumbered ones last.
// Questions sharing a number keep their order.
func SortQuestions(questions []academic.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		a, b := questions[i].QuestionNumber, questions[j].QuestionNumber
		switch {
		case !a.Valid:
			return false
		case !b.Valid:
			return true
		default:
			return a.Int < b.Int
		}
	})
}
