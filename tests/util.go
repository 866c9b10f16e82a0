package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/dashboard"
)

// Now is the reference clock of the fixtures: the SP24 semester is active.
var Now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// Day is noon UTC on the given date, which stays on that date for most time zones.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// Dataset is an in-memory copy of the upstream collections.
type Dataset struct {
	Semesters      []academic.Semester
	Classes        []academic.Class
	CourseElements []academic.CourseElement
	Templates      []academic.AssessmentTemplate
	Assessments    []academic.ClassAssessment
	GradingGroups  []academic.GradingGroup
	Submissions    []academic.Submission
	Accounts       []academic.Account
	AssignRequests []academic.AssignRequest
	Papers         []academic.Paper
	Questions      []academic.Question
	RubricItems    []academic.RubricItem
	TemplateFiles  map[int][]academic.TemplateFile
	Files          map[string][]byte
}

func submitted(at time.Time) null.Time { return null.TimeFrom(at) }

// Fixtures returns a small, consistent dataset.
func Fixtures() *Dataset {
	return &Dataset{
		Semesters: []academic.Semester{
			{ID: 1, SemesterCode: "FA23", AcademicYear: 2023, StartDate: Day(2023, 9, 1), EndDate: Day(2023, 12, 31)},
			{ID: 2, SemesterCode: "SP24", AcademicYear: 2024, StartDate: Day(2024, 1, 1), EndDate: Day(2024, 4, 30)},
			{ID: 3, SemesterCode: "SU24", AcademicYear: 2024, StartDate: Day(2024, 5, 1), EndDate: Day(2024, 8, 31)},
		},
		Classes: []academic.Class{
			{ID: 1, ClassCode: "SE1801", CourseName: "Programming Fundamentals", SemesterName: "Spring 2024 SP24", LecturerName: "Tran Van A", StudentCount: 30, CreatedAt: Day(2024, 1, 5)},
			{ID: 2, ClassCode: "SE1802", CourseName: "Object Oriented Programming", SemesterName: "sp24", LecturerName: "Le Thi B", StudentCount: 25, CreatedAt: Day(2024, 1, 6)},
			{ID: 3, ClassCode: "AI1701", CourseName: "Data Structures", SemesterName: "FA23", LecturerName: "Tran Van A", StudentCount: 20, CreatedAt: Day(2023, 8, 20)},
			{ID: 4, ClassCode: "GD1601", CourseName: "Design", SemesterName: "Winter", LecturerName: "Pham C", StudentCount: 15, CreatedAt: Day(2023, 8, 25)},
		},
		CourseElements: []academic.CourseElement{
			{ID: 1, Name: "Assignment", ElementType: null.IntFrom(0), SemesterCourseID: 1},
			{ID: 2, Name: "Lab", ElementType: null.IntFrom(1), SemesterCourseID: 1},
			{ID: 3, Name: "Lab exam", ElementType: null.IntFrom(2), SemesterCourseID: 1},
			{ID: 4, Name: "Quiz", SemesterCourseID: 2},
		},
		Templates: []academic.AssessmentTemplate{
			{ID: 10, Name: "Assignment 1", CourseElementID: 1, CourseElementName: "Assignment", LecturerName: "Tran Van A"},
			{ID: 20, Name: "Lab 1", CourseElementID: 2, CourseElementName: "Lab", LecturerName: "Le Thi B"},
			{ID: 30, Name: "PE PRF192", CourseElementID: 3, CourseElementName: "Lab exam", LecturerName: "Tran Van A", AssignRequestID: null.IntFrom(1)},
			{ID: 40, Name: "Final test", CourseElementID: 4, CourseElementName: "Quiz", LecturerName: "Pham C"},
		},
		Assessments: []academic.ClassAssessment{
			{ID: 100, ClassID: 1, ClassCode: "SE1801", CourseName: "Programming Fundamentals", AssessmentTemplateID: 10, AssessmentTemplateName: "Assignment 1", StartAt: submitted(Day(2024, 2, 1)), EndAt: submitted(Day(2024, 2, 15)), SubmissionCount: 28},
			{ID: 101, ClassID: 1, ClassCode: "SE1801", CourseName: "Programming Fundamentals", AssessmentTemplateID: 30, AssessmentTemplateName: "PE PRF192", StartAt: submitted(Day(2024, 3, 1)), EndAt: submitted(Day(2024, 3, 1)), SubmissionCount: 30},
			{ID: 102, ClassID: 2, ClassCode: "SE1802", CourseName: "Object Oriented Programming", AssessmentTemplateID: 20, AssessmentTemplateName: "Lab 1", StartAt: submitted(Day(2024, 1, 20)), EndAt: submitted(Day(2024, 1, 27)), SubmissionCount: 24},
		},
		GradingGroups: []academic.GradingGroup{
			{ID: 1, LecturerID: 2, LecturerName: "Tran Van A", AssessmentTemplateID: 30, AssessmentTemplateName: "PE PRF192", SubmissionCount: 3, GradeSheetSubmittedAt: submitted(Day(2024, 3, 5)), CreatedAt: Day(2024, 3, 1)},
			{ID: 2, LecturerID: 3, LecturerName: "Le Thi B", AssessmentTemplateID: 40, AssessmentTemplateName: "Final test", SubmissionCount: 2, SubmittedGradeSheetURL: null.StringFrom("https://files/grades-2.xlsx"), CreatedAt: Day(2024, 3, 2)},
			{ID: 3, LecturerID: 3, LecturerName: "Le Thi B", AssessmentTemplateID: 40, AssessmentTemplateName: "Final test", SubmissionCount: 1, CreatedAt: Day(2024, 3, 3)},
		},
		Submissions: []academic.Submission{
			{ID: 1, StudentID: 10, StudentCode: "SE100", StudentName: "Nguyen An", GradingGroupID: null.IntFrom(1), SubmittedAt: submitted(Day(2024, 3, 1)), LastGrade: 9, SubmissionFile: &academic.SubmissionFile{ID: 1, Name: "SE100.zip", SubmissionURL: "https://files/sub-1.zip"}},
			{ID: 2, StudentID: 11, StudentCode: "SE101", StudentName: "Tran Binh", GradingGroupID: null.IntFrom(1), SubmittedAt: submitted(Day(2024, 3, 1)), LastGrade: 7.5, SubmissionFile: &academic.SubmissionFile{ID: 2, Name: "SE101.zip", SubmissionURL: "https://files/sub-2.zip"}},
			{ID: 3, StudentID: 12, StudentCode: "SE102", StudentName: "Le Chi", GradingGroupID: null.IntFrom(1), SubmittedAt: submitted(Day(2024, 3, 1))},
			{ID: 4, StudentID: 10, StudentCode: "SE100", StudentName: "Nguyen An", GradingGroupID: null.IntFrom(2), SubmittedAt: submitted(Day(2024, 3, 2)), LastGrade: 6},
			{ID: 5, StudentID: 13, StudentCode: "SE103", StudentName: "Pham Dung", GradingGroupID: null.IntFrom(2), LastGrade: 0},
			{ID: 6, StudentID: 14, StudentCode: "SE104", StudentName: "Vo Em", GradingGroupID: null.IntFrom(3), SubmittedAt: submitted(Day(2024, 3, 3)), LastGrade: 4},
		},
		Accounts: []academic.Account{
			{ID: 1, AccountCode: "AD01", FullName: "Admin", Email: "admin@apsas.edu", Role: academic.RoleAdmin},
			{ID: 2, AccountCode: "LE01", FullName: "Tran Van A", Email: "a@apsas.edu", Role: academic.RoleLecturer},
			{ID: 3, AccountCode: "LE02", FullName: "Le Thi B", Email: "b@apsas.edu", Role: academic.RoleLecturer},
			{ID: 4, AccountCode: "SE100", FullName: "Nguyen An", Email: "an@apsas.edu", Role: academic.RoleStudent},
			{ID: 5, AccountCode: "HD01", FullName: "Head Of Dept", Email: "hod@apsas.edu", Role: academic.RoleHOD},
		},
		AssignRequests: []academic.AssignRequest{
			{ID: 1, Status: 1, CourseElementID: 1, CourseElementName: "Assignment", AssignedLecturerID: 2, AssignedByHODID: 5, SemesterCode: "SU24", CreatedAt: Day(2024, 3, 1)},
			{ID: 2, Status: 2, CourseElementID: 2, CourseElementName: "Lab", AssignedLecturerID: 3, AssignedByHODID: 5, SemesterCode: "SU24", CreatedAt: Day(2024, 3, 2)},
			{ID: 3, Status: 3, CourseElementID: 3, CourseElementName: "Lab exam", AssignedLecturerID: 2, AssignedByHODID: 5, SemesterCode: "SU24", CreatedAt: Day(2024, 3, 3)},
			{ID: 4, Status: 4, CourseElementID: 4, CourseElementName: "Quiz", AssignedLecturerID: 3, AssignedByHODID: 5, SemesterCode: "SP24", CreatedAt: Day(2024, 3, 4)},
			{ID: 5, Status: 5, CourseElementID: 1, CourseElementName: "Assignment", AssignedLecturerID: 2, AssignedByHODID: 5, SemesterCode: "FA23", CreatedAt: Day(2023, 9, 4)},
		},
		Papers: []academic.Paper{
			{ID: 1, Name: "Paper 1", Description: "Console applications", AssessmentTemplateID: 30},
		},
		Questions: []academic.Question{
			{ID: 1, QuestionNumber: null.IntFrom(2), QuestionText: "Sort an array", Score: 4, AssessmentPaperID: 1},
			{ID: 2, QuestionNumber: null.IntFrom(1), QuestionText: "Print a triangle", QuestionSampleInput: "3", QuestionSampleOutput: "*\n**\n***", Score: 6, AssessmentPaperID: 1},
		},
		RubricItems: []academic.RubricItem{
			{ID: 1, Description: "Reads n", Input: "3", Score: 1, AssessmentQuestionID: 2},
			{ID: 2, Description: "Prints rows", Output: "*\n**\n***", Score: 5, AssessmentQuestionID: 2},
		},
		TemplateFiles: map[int][]academic.TemplateFile{
			30: {{ID: 1, Name: "input.txt", FileURL: "https://files/input.txt"}},
		},
		Files: map[string][]byte{
			"https://files/input.txt": []byte("3\n"),
			"https://files/sub-1.zip": []byte("PK-sub-1"),
			"https://files/sub-2.zip": []byte("PK-sub-2"),
		},
	}
}

// Source serves a Dataset. Failing resources return an error, every call is counted.
type Source struct {
	Data *Dataset

	mu      sync.Mutex
	failing map[string]error
	calls   map[string]int
}

var _ dashboard.Source = (*Source)(nil)

func NewSource(data *Dataset) *Source {
	return &Source{Data: data, failing: make(map[string]error), calls: make(map[string]int)}
}

// Fail makes every call to resource return err (or a generic error when err is nil).
func (s *Source) Fail(resource string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = errors.New(resource + " unavailable")
	}
	s.failing[resource] = err
}

func (s *Source) Calls(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[resource]
}

func (s *Source) call(ctx context.Context, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[resource]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.failing[resource]
}

func (s *Source) ListSemesters(ctx context.Context) ([]academic.Semester, error) {
	if err := s.call(ctx, "semesters"); err != nil {
		return nil, err
	}
	return s.Data.Semesters, nil
}

func (s *Source) ListClasses(ctx context.Context) ([]academic.Class, error) {
	if err := s.call(ctx, "classes"); err != nil {
		return nil, err
	}
	return s.Data.Classes, nil
}

func (s *Source) ListCourseElements(ctx context.Context) ([]academic.CourseElement, error) {
	if err := s.call(ctx, "course-elements"); err != nil {
		return nil, err
	}
	return s.Data.CourseElements, nil
}

func (s *Source) ListTemplates(ctx context.Context) ([]academic.AssessmentTemplate, error) {
	if err := s.call(ctx, "templates"); err != nil {
		return nil, err
	}
	return s.Data.Templates, nil
}

func (s *Source) ListClassAssessments(ctx context.Context) ([]academic.ClassAssessment, error) {
	if err := s.call(ctx, "class-assessments"); err != nil {
		return nil, err
	}
	return s.Data.Assessments, nil
}

func (s *Source) ListGradingGroups(ctx context.Context) ([]academic.GradingGroup, error) {
	if err := s.call(ctx, "grading-groups"); err != nil {
		return nil, err
	}
	return s.Data.GradingGroups, nil
}

func (s *Source) ListSubmissions(ctx context.Context, q dashboard.SubmissionQuery) ([]academic.Submission, error) {
	if err := s.call(ctx, "submissions"); err != nil {
		return nil, err
	}
	if q.GradingGroupID == 0 {
		return s.Data.Submissions, nil
	}
	var subs []academic.Submission
	for _, sub := range s.Data.Submissions {
		if sub.GradingGroupID.Valid && sub.GradingGroupID.Int == q.GradingGroupID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *Source) ListAccounts(ctx context.Context) ([]academic.Account, error) {
	if err := s.call(ctx, "accounts"); err != nil {
		return nil, err
	}
	return s.Data.Accounts, nil
}

func (s *Source) ListAssignRequests(ctx context.Context) ([]academic.AssignRequest, error) {
	if err := s.call(ctx, "assign-requests"); err != nil {
		return nil, err
	}
	return s.Data.AssignRequests, nil
}

func (s *Source) ListPapers(ctx context.Context, templateID int) ([]academic.Paper, error) {
	if err := s.call(ctx, "papers"); err != nil {
		return nil, err
	}
	var papers []academic.Paper
	for _, p := range s.Data.Papers {
		if p.AssessmentTemplateID == templateID {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func (s *Source) ListQuestions(ctx context.Context, paperID int) ([]academic.Question, error) {
	if err := s.call(ctx, "questions"); err != nil {
		return nil, err
	}
	var qs []academic.Question
	for _, q := range s.Data.Questions {
		if q.AssessmentPaperID == paperID {
			qs = append(qs, q)
		}
	}
	return qs, nil
}

func (s *Source) ListRubricItems(ctx context.Context, questionID int) ([]academic.RubricItem, error) {
	if err := s.call(ctx, "rubric-items"); err != nil {
		return nil, err
	}
	var items []academic.RubricItem
	for _, r := range s.Data.RubricItems {
		if r.AssessmentQuestionID == questionID {
			items = append(items, r)
		}
	}
	return items, nil
}

func (s *Source) ListTemplateFiles(ctx context.Context, templateID int) ([]academic.TemplateFile, error) {
	if err := s.call(ctx, "template-files"); err != nil {
		return nil, err
	}
	return s.Data.TemplateFiles[templateID], nil
}

func (s *Source) Download(ctx context.Context, url string) ([]byte, error) {
	if err := s.call(ctx, "download"); err != nil {
		return nil, err
	}
	data, ok := s.Data.Files[url]
	if !ok {
		return nil, fmt.Errorf("%s: 404 not found", url)
	}
	return data, nil
}
