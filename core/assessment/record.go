package assessment

import (
	"strconv"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/apsas/core/academic"
)

const gradingGroupIDPrefix = "grading-group-"

type Source string

const (
	SourceAssessment   Source = "assessment"
	SourceGradingGroup Source = "grading_group"
)

// Record is an assessment listed on the dashboard. It is either a FromAssessment
// or a FromGradingGroup.
type Record interface {
	RecordID() string
	TemplateID() int
	Kind() Type
	Source() Source
	isRecord()
}

// FromAssessment is a regular class assessment.
type FromAssessment struct {
	Assessment academic.ClassAssessment
	Type       Type
}

func (r FromAssessment) RecordID() string { return strconv.Itoa(r.Assessment.ID) }
func (r FromAssessment) TemplateID() int  { return r.Assessment.AssessmentTemplateID }
func (r FromAssessment) Kind() Type       { return r.Type }
func (r FromAssessment) Source() Source   { return SourceAssessment }
func (FromAssessment) isRecord()          {}

// FromGradingGroup surfaces a practical exam whose grade sheet was submitted.
type FromGradingGroup struct {
	Group academic.GradingGroup
}

func (r FromGradingGroup) RecordID() string { return gradingGroupIDPrefix + strconv.Itoa(r.Group.ID) }
func (r FromGradingGroup) TemplateID() int  { return r.Group.AssessmentTemplateID }
func (r FromGradingGroup) Kind() Type       { return PracticalExam }
func (r FromGradingGroup) Source() Source   { return SourceGradingGroup }
func (FromGradingGroup) isRecord()          {}

// CompletedAt is when the grade sheet was submitted, when known.
func (r FromGradingGroup) CompletedAt() (time.Time, bool) {
	return r.Group.GradeSheetSubmittedAt.Time, r.Group.GradeSheetSubmittedAt.Valid
}

// Records lists the class assessments, then one record per completed practical exam grading group.
func Records(
	assessments []academic.ClassAssessment,
	groups []academic.GradingGroup,
	templates []academic.AssessmentTemplate,
	classifier *Classifier,
) []Record {
	tmpls := make(map[int]academic.AssessmentTemplate, len(templates))
	for _, t := range templates {
		tmpls[t.ID] = t
	}
	typeOf := func(templateID int, fallbackName string) Type {
		if t, ok := tmpls[templateID]; ok {
			return classifier.Template(t)
		}
		return Classify(null.Int{}, fallbackName)
	}

	records := make([]Record, 0, len(assessments)+len(groups))
	for _, a := range assessments {
		records = append(records, FromAssessment{
			Assessment: a,
			Type:       typeOf(a.AssessmentTemplateID, a.AssessmentTemplateName),
		})
	}
	for _, g := range groups {
		if !g.Completed() {
			continue
		}
		if typeOf(g.AssessmentTemplateID, g.AssessmentTemplateName) != PracticalExam {
			continue
		}
		records = append(records, FromGradingGroup{Group: g})
	}
	return records
}

// Countable drops the records that must not be counted twice in aggregates:
// a grading group record whose template already has a class assessment record,
// or another grading group record for the same template.
func Countable(records []Record) []Record {
	assessed := make(map[int]bool)
	for _, r := range records {
		if _, ok := r.(FromAssessment); ok {
			assessed[r.TemplateID()] = true
		}
	}

	seen := make(map[int]bool)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := r.(FromGradingGroup); ok {
			if assessed[r.TemplateID()] || seen[r.TemplateID()] {
				continue
			}
			seen[r.TemplateID()] = true
		}
		out = append(out, r)
	}
	return out
}
