// Package dashboard builds the derived views of the admin dashboard:
// filtered lists, overview aggregates and exportable reports.
package dashboard

import (
	"context"

	"github.com/trezcool/apsas/core/academic"
)

// Source fetches the upstream collections the views are derived from.
type Source interface {
	ListSemesters(ctx context.Context) ([]academic.Semester, error)
	ListClasses(ctx context.Context) ([]academic.Class, error)
	ListCourseElements(ctx context.Context) ([]academic.CourseElement, error)
	ListTemplates(ctx context.Context) ([]academic.AssessmentTemplate, error)
	ListClassAssessments(ctx context.Context) ([]academic.ClassAssessment, error)
	ListGradingGroups(ctx context.Context) ([]academic.GradingGroup, error)
	ListSubmissions(ctx context.Context, q SubmissionQuery) ([]academic.Submission, error)
	ListAccounts(ctx context.Context) ([]academic.Account, error)
	ListAssignRequests(ctx context.Context) ([]academic.AssignRequest, error)
}

// SubmissionQuery narrows the submissions fetched upstream. A zero GradingGroupID fetches them all.
type SubmissionQuery struct {
	GradingGroupID int
}
