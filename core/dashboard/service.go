package dashboard

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/assessment"
	"github.com/trezcool/apsas/core/filter"
)

type (
	SemesterRow struct {
		academic.Semester
		Active bool `json:"active"`
		Locked bool `json:"locked"`
	}

	ClassRow struct {
		academic.Class
		// SemesterCode is the semester resolved from the free text SemesterName, if any.
		SemesterCode string `json:"semesterCode"`
	}

	TemplateRow struct {
		academic.AssessmentTemplate
		Type assessment.Type `json:"type"`
	}

	AccountRow struct {
		academic.Account
		RoleName string `json:"roleName"`
	}

	AssignRequestRow struct {
		academic.AssignRequest
		State  academic.RequestStatus `json:"state"`
		Locked bool                   `json:"locked"`
	}

	SubmissionRow struct {
		academic.Submission
		Status academic.SubmissionStatus `json:"status"`
	}

	GradingGroupRow struct {
		academic.GradingGroup
		Completed bool `json:"completed"`
	}

	AssessmentRow struct {
		ID              string            `json:"id"`
		Source          assessment.Source `json:"source"`
		Type            assessment.Type   `json:"type"`
		TemplateID      int               `json:"templateId"`
		TemplateName    string            `json:"templateName"`
		ClassID         int               `json:"classId,omitempty"`
		ClassCode       string            `json:"classCode,omitempty"`
		CourseName      string            `json:"courseName,omitempty"`
		LecturerName    string            `json:"lecturerName,omitempty"`
		StartAt         *time.Time        `json:"startAt"`
		EndAt           *time.Time        `json:"endAt"`
		SubmissionCount int               `json:"submissionCount"`
	}
)

type Service struct {
	src      Source
	validate *validator.Validate
	now      func() time.Time
}

func NewService(src Source, validate *validator.Validate) *Service {
	return &Service{src: src, validate: validate, now: time.Now}
}

// SetClock replaces the clock used for time-relative flags (active, locked).
func (svc *Service) SetClock(now func() time.Time) {
	svc.now = now
}

func (svc *Service) check(f interface{}) error {
	if err := svc.validate.Struct(f); err != nil {
		return err
	}
	return nil
}

func semesterSpan(s academic.Semester) (time.Time, time.Time, bool) {
	return s.StartDate, s.EndDate, true
}

func (svc *Service) Semesters(ctx context.Context, f SemesterFilter) ([]SemesterRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	sems, err := svc.src.ListSemesters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing semesters")
	}

	now := svc.now()
	var set filter.Set[academic.Semester]
	set.Add(filter.TextSearch(f.Search, func(s academic.Semester) string { return s.SemesterCode },
		func(s academic.Semester) string { return strconv.Itoa(s.AcademicYear) })).
		Add(filter.Overlap(filter.NewRange(f.Dates()), semesterSpan)).
		Add(filter.Equal(boolPtr(f.Active), func(s academic.Semester) bool { return s.IsActive(now) }))

	rows := make([]SemesterRow, 0, len(sems))
	for _, s := range set.Apply(sems) {
		rows = append(rows, SemesterRow{Semester: s, Active: s.IsActive(now), Locked: academic.SemesterLocked(s, now)})
	}
	return rows, nil
}

func (svc *Service) Classes(ctx context.Context, f ClassFilter) ([]ClassRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	classes, err := svc.src.ListClasses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	sems, err := svc.src.ListSemesters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing semesters")
	}
	return classRows(classes, sems, f), nil
}

func classRows(classes []academic.Class, sems []academic.Semester, f ClassFilter) []ClassRow {
	var set filter.Set[academic.Class]
	set.Add(filter.TextSearch(f.Search,
		func(c academic.Class) string { return c.ClassCode },
		func(c academic.Class) string { return c.CourseName },
		func(c academic.Class) string { return c.LecturerName },
	)).
		Add(filter.Within(filter.NewRange(f.Dates()), func(c academic.Class) (time.Time, bool) {
			return c.CreatedAt, !c.CreatedAt.IsZero()
		})).
		Add(filter.Fuzzy(f.Semester, func(c academic.Class) string { return c.SemesterName }))

	matched := set.Apply(classes)
	rows := make([]ClassRow, 0, len(matched))
	for _, c := range matched {
		row := ClassRow{Class: c}
		if sem, ok := semesterOf(c, sems); ok {
			row.SemesterCode = sem.SemesterCode
		}
		rows = append(rows, row)
	}
	return rows
}

// semesterOf reconciles the free text semester name of a class with a known semester.
func semesterOf(c academic.Class, sems []academic.Semester) (academic.Semester, bool) {
	return filter.BestMatch(c.SemesterName, sems, func(s academic.Semester) string { return s.SemesterCode })
}

func (svc *Service) Templates(ctx context.Context, f TemplateFilter) ([]TemplateRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	typ, err := typePtr(f.Type)
	if err != nil {
		return nil, err
	}
	tmpls, err := svc.src.ListTemplates(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	elems, err := svc.src.ListCourseElements(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing course elements")
	}
	classifier := assessment.NewClassifier(elems)

	rows := make([]TemplateRow, 0, len(tmpls))
	for _, t := range tmpls {
		rows = append(rows, TemplateRow{AssessmentTemplate: t, Type: classifier.Template(t)})
	}

	var set filter.Set[TemplateRow]
	set.Add(filter.TextSearch(f.Search,
		func(r TemplateRow) string { return r.Name },
		func(r TemplateRow) string { return r.Description },
		func(r TemplateRow) string { return r.CourseElementName },
		func(r TemplateRow) string { return r.LecturerName },
	)).
		Add(filter.Equal(typ, func(r TemplateRow) assessment.Type { return r.Type }))
	return set.Apply(rows), nil
}

func (svc *Service) Accounts(ctx context.Context, f AccountFilter) ([]AccountRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	accounts, err := svc.src.ListAccounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing accounts")
	}

	var set filter.Set[academic.Account]
	set.Add(filter.TextSearch(f.Search,
		func(a academic.Account) string { return a.FullName },
		func(a academic.Account) string { return a.Email },
		func(a academic.Account) string { return a.AccountCode },
	)).
		Add(filter.Equal(rolePtr(f.Role), func(a academic.Account) academic.Role { return a.Role }))

	matched := set.Apply(accounts)
	rows := make([]AccountRow, 0, len(matched))
	for _, a := range matched {
		rows = append(rows, AccountRow{Account: a, RoleName: a.Role.String()})
	}
	return rows, nil
}

func (svc *Service) AssignRequests(ctx context.Context, f AssignRequestFilter) ([]AssignRequestRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	reqs, err := svc.src.ListAssignRequests(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing assign requests")
	}
	sems, err := svc.src.ListSemesters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing semesters")
	}
	byCode := make(map[string]academic.Semester, len(sems))
	for _, s := range sems {
		byCode[s.SemesterCode] = s
	}

	var set filter.Set[academic.AssignRequest]
	set.Add(filter.TextSearch(f.Search,
		func(r academic.AssignRequest) string { return r.CourseElementName },
		func(r academic.AssignRequest) string { return r.Message },
		func(r academic.AssignRequest) string { return r.SemesterCode },
	)).
		Add(filter.Equal(requestStatusPtr(f.Status), academic.AssignRequest.State))

	now := svc.now()
	matched := set.Apply(reqs)
	rows := make([]AssignRequestRow, 0, len(matched))
	for _, r := range matched {
		var sem *academic.Semester
		if s, ok := byCode[r.SemesterCode]; ok {
			sem = &s
		}
		rows = append(rows, AssignRequestRow{
			AssignRequest: r,
			State:         r.State(),
			Locked:        academic.AssignRequestLocked(r, sem, now),
		})
	}
	return rows, nil
}

func (svc *Service) Submissions(ctx context.Context, f SubmissionFilter) ([]SubmissionRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	subs, err := svc.src.ListSubmissions(ctx, SubmissionQuery{GradingGroupID: f.GradingGroupID})
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}

	var set filter.Set[academic.Submission]
	set.Add(filter.TextSearch(f.Search,
		func(s academic.Submission) string { return s.StudentCode },
		func(s academic.Submission) string { return s.StudentName },
	)).
		Add(filter.Equal(submissionStatusPtr(f.Status), academic.Submission.Status))

	matched := set.Apply(subs)
	rows := make([]SubmissionRow, 0, len(matched))
	for _, s := range matched {
		rows = append(rows, SubmissionRow{Submission: s, Status: s.Status()})
	}
	return rows, nil
}

func (svc *Service) GradingGroups(ctx context.Context, f GradingGroupFilter) ([]GradingGroupRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	groups, err := svc.src.ListGradingGroups(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing grading groups")
	}

	var set filter.Set[academic.GradingGroup]
	set.Add(filter.TextSearch(f.Search,
		func(g academic.GradingGroup) string { return g.AssessmentTemplateName },
		func(g academic.GradingGroup) string { return g.LecturerName },
	)).
		Add(filter.Equal(boolPtr(f.Completed), academic.GradingGroup.Completed))

	matched := set.Apply(groups)
	rows := make([]GradingGroupRow, 0, len(matched))
	for _, g := range matched {
		rows = append(rows, GradingGroupRow{GradingGroup: g, Completed: g.Completed()})
	}
	return rows, nil
}

// Assessments lists the class assessments and the completed practical exam grading groups.
func (svc *Service) Assessments(ctx context.Context, f AssessmentFilter) ([]AssessmentRow, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	typ, err := typePtr(f.Type)
	if err != nil {
		return nil, err
	}
	records, err := svc.records(ctx)
	if err != nil {
		return nil, err
	}

	var set filter.Set[assessment.Record]
	set.Add(filter.Equal(typ, assessment.Record.Kind)).
		Add(recordDates(filter.NewRange(f.Dates())))

	matched := set.Apply(records)
	rows := make([]AssessmentRow, 0, len(matched))
	for _, r := range matched {
		rows = append(rows, assessmentRow(r))
	}
	return rows, nil
}

func (svc *Service) records(ctx context.Context) ([]assessment.Record, error) {
	assessments, err := svc.src.ListClassAssessments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing class assessments")
	}
	groups, err := svc.src.ListGradingGroups(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing grading groups")
	}
	tmpls, err := svc.src.ListTemplates(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	elems, err := svc.src.ListCourseElements(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing course elements")
	}
	return assessment.Records(assessments, groups, tmpls, assessment.NewClassifier(elems)), nil
}

// recordDates matches class assessments overlapping r and grading groups completed within r.
func recordDates(r *filter.Range) filter.Predicate[assessment.Record] {
	if r == nil {
		return nil
	}
	overlaps := filter.Overlap(r, func(a academic.ClassAssessment) (time.Time, time.Time, bool) {
		return a.StartAt.Time, a.EndAt.Time, a.StartAt.Valid && a.EndAt.Valid
	})
	within := filter.Within(r, func(g assessment.FromGradingGroup) (time.Time, bool) { return g.CompletedAt() })
	return func(rec assessment.Record) bool {
		switch rec := rec.(type) {
		case assessment.FromAssessment:
			return overlaps(rec.Assessment)
		case assessment.FromGradingGroup:
			return within(rec)
		}
		return false
	}
}

func assessmentRow(r assessment.Record) AssessmentRow {
	row := AssessmentRow{ID: r.RecordID(), Source: r.Source(), Type: r.Kind(), TemplateID: r.TemplateID()}
	switch rec := r.(type) {
	case assessment.FromAssessment:
		a := rec.Assessment
		row.TemplateName = a.AssessmentTemplateName
		row.ClassID = a.ClassID
		row.ClassCode = a.ClassCode
		row.CourseName = a.CourseName
		row.StartAt = a.StartAt.Ptr()
		row.EndAt = a.EndAt.Ptr()
		row.SubmissionCount = a.SubmissionCount
	case assessment.FromGradingGroup:
		g := rec.Group
		row.TemplateName = g.AssessmentTemplateName
		row.LecturerName = g.LecturerName
		row.EndAt = g.GradeSheetSubmittedAt.Ptr()
		row.SubmissionCount = g.SubmissionCount
	}
	return row
}
