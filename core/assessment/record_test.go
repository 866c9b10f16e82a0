package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/apsas/core/academic"
)

func recordIDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RecordID())
	}
	return ids
}

func TestRecords(t *testing.T) {
	submitted := null.TimeFrom(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	classifier := NewClassifier([]academic.CourseElement{
		{ID: 1, ElementType: null.IntFrom(0)},
		{ID: 2, ElementType: null.IntFrom(2)},
	})
	templates := []academic.AssessmentTemplate{
		{ID: 10, Name: "Assignment 1", CourseElementID: 1},
		{ID: 20, Name: "Final", CourseElementID: 2},
		{ID: 30, Name: "Other final", CourseElementID: 2},
	}
	assessments := []academic.ClassAssessment{
		{ID: 1, AssessmentTemplateID: 10},
		{ID: 2, AssessmentTemplateID: 20},
	}
	groups := []academic.GradingGroup{
		{ID: 7, AssessmentTemplateID: 20, GradeSheetSubmittedAt: submitted},
		{ID: 8, AssessmentTemplateID: 30, SubmittedGradeSheetURL: null.StringFrom("https://files/8.xlsx")},
		{ID: 9, AssessmentTemplateID: 30, GradeSheetSubmittedAt: submitted},
		{ID: 10, AssessmentTemplateID: 30},                                               // not completed
		{ID: 11, AssessmentTemplateID: 10, GradeSheetSubmittedAt: submitted},             // not a practical exam
		{ID: 12, AssessmentTemplateName: "Unknown PE", GradeSheetSubmittedAt: submitted}, // classified by name
	}

	records := Records(assessments, groups, templates, classifier)
	assert.Equal(t, []string{"1", "2", "grading-group-7", "grading-group-8", "grading-group-9", "grading-group-12"}, recordIDs(records))
	assert.Equal(t, Assignment, records[0].Kind())
	assert.Equal(t, PracticalExam, records[1].Kind())
	assert.Equal(t, SourceGradingGroup, records[2].Source())

	at, ok := records[2].(FromGradingGroup).CompletedAt()
	assert.True(t, ok)
	assert.Equal(t, submitted.Time, at)

	t.Run("countable", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2", "grading-group-8", "grading-group-12"}, recordIDs(Countable(records)))
	})
	t.Run("input untouched", func(t *testing.T) {
		assert.Len(t, records, 6)
	})
}
