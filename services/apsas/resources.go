package apsas

import (
	"context"
	"net/url"
	"strconv"

	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/dashboard"
)

// endpoints of the upstream API, relative to the base URL
const (
	semestersPath        = "semesters"
	classesPath          = "classes"
	courseElementsPath   = "course-elements"
	templatesPath        = "assessment-templates"
	classAssessmentsPath = "class-assessments"
	gradingGroupsPath    = "grading-groups"
	submissionsPath      = "submissions"
	accountsPath         = "accounts"
	assignRequestsPath   = "assign-requests"
	papersPath           = "assessment-papers"
	questionsPath        = "assessment-questions"
	rubricItemsPath      = "rubric-items"
	templateFilesPath    = "assessment-files"
)

func byID(key string, id int) url.Values {
	return url.Values{key: {strconv.Itoa(id)}}
}

func (c *Client) ListSemesters(ctx context.Context) ([]academic.Semester, error) {
	return list[academic.Semester](ctx, c, semestersPath, nil)
}

func (c *Client) ListClasses(ctx context.Context) ([]academic.Class, error) {
	return list[academic.Class](ctx, c, classesPath, nil)
}

func (c *Client) ListCourseElements(ctx context.Context) ([]academic.CourseElement, error) {
	return list[academic.CourseElement](ctx, c, courseElementsPath, nil)
}

func (c *Client) ListTemplates(ctx context.Context) ([]academic.AssessmentTemplate, error) {
	return list[academic.AssessmentTemplate](ctx, c, templatesPath, nil)
}

func (c *Client) ListClassAssessments(ctx context.Context) ([]academic.ClassAssessment, error) {
	return list[academic.ClassAssessment](ctx, c, classAssessmentsPath, nil)
}

func (c *Client) ListGradingGroups(ctx context.Context) ([]academic.GradingGroup, error) {
	return list[academic.GradingGroup](ctx, c, gradingGroupsPath, nil)
}

func (c *Client) ListSubmissions(ctx context.Context, q dashboard.SubmissionQuery) ([]academic.Submission, error) {
	var params url.Values
	if q.GradingGroupID > 0 {
		params = byID("gradingGroupId", q.GradingGroupID)
	}
	return list[academic.Submission](ctx, c, submissionsPath, params)
}

func (c *Client) ListAccounts(ctx context.Context) ([]academic.Account, error) {
	return list[academic.Account](ctx, c, accountsPath, nil)
}

func (c *Client) ListAssignRequests(ctx context.Context) ([]academic.AssignRequest, error) {
	return list[academic.AssignRequest](ctx, c, assignRequestsPath, nil)
}

func (c *Client) ListPapers(ctx context.Context, templateID int) ([]academic.Paper, error) {
	return list[academic.Paper](ctx, c, papersPath, byID("assessmentTemplateId", templateID))
}

func (c *Client) ListQuestions(ctx context.Context, paperID int) ([]academic.Question, error) {
	return list[academic.Question](ctx, c, questionsPath, byID("assessmentPaperId", paperID))
}

func (c *Client) ListRubricItems(ctx context.Context, questionID int) ([]academic.RubricItem, error) {
	return list[academic.RubricItem](ctx, c, rubricItemsPath, byID("assessmentQuestionId", questionID))
}

func (c *Client) ListTemplateFiles(ctx context.Context, templateID int) ([]academic.TemplateFile, error) {
	return list[academic.TemplateFile](ctx, c, templateFilesPath, byID("assessmentTemplateId", templateID))
}
