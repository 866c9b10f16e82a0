package dashboard

import (
	"strconv"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/assessment"
)

type (
	SemesterFilter struct {
		core.DateRange
		Search string `json:"search" query:"search"`
		Active string `json:"active" query:"active" validate:"omitempty,oneof=true false"`
	}

	ClassFilter struct {
		core.DateRange
		Search   string `json:"search" query:"search"`
		Semester string `json:"semester" query:"semester"` // semester code
	}

	TemplateFilter struct {
		Search string `json:"search" query:"search"`
		Type   string `json:"type" query:"type"`
	}

	AccountFilter struct {
		Search string `json:"search" query:"search"`
		Role   string `json:"role" query:"role" validate:"omitempty,oneof=0 1 2 3 4"`
	}

	AssignRequestFilter struct {
		Search string `json:"search" query:"search"`
		Status string `json:"status" query:"status" validate:"omitempty,oneof=Pending Approved Rejected"`
	}

	SubmissionFilter struct {
		GradingGroupID int    `json:"gradingGroupId" query:"gradingGroupId" param:"id" validate:"min=0"`
		Search         string `json:"search" query:"search"`
		Status         string `json:"status" query:"status" validate:"omitempty,oneof=NotSubmitted Pending Graded"`
	}

	AssessmentFilter struct {
		core.DateRange
		Type string `json:"type" query:"type"`
	}

	OverviewFilter struct {
		core.DateRange
	}

	GradingGroupFilter struct {
		Search    string `json:"search" query:"search"`
		Completed string `json:"completed" query:"completed" validate:"omitempty,oneof=true false"`
	}
)

// ReportFilter narrows the data of an exported report.
type ReportFilter struct {
	core.DateRange
	Semester string `json:"semester" query:"semester"`
}

func boolPtr(s string) *bool {
	if s == "" {
		return nil
	}
	b := s == "true"
	return &b
}

func rolePtr(s string) *academic.Role {
	if s == "" {
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	r := academic.Role(i)
	return &r
}

func requestStatusPtr(s string) *academic.RequestStatus {
	if s == "" {
		return nil
	}
	st := academic.RequestStatus(s)
	return &st
}

func submissionStatusPtr(s string) *academic.SubmissionStatus {
	if s == "" {
		return nil
	}
	st := academic.SubmissionStatus(s)
	return &st
}

// typePtr parses an optional assessment type filter.
func typePtr(s string) (*assessment.Type, error) {
	if core.CleanString(s) == "" {
		return nil, nil
	}
	t, ok := assessment.ParseType(s)
	if !ok {
		return nil, core.NewValidationError(nil, core.FieldError{
			Field: "type",
			Error: "must be one of Assignment, Lab, PracticalExam",
		})
	}
	return &t, nil
}
