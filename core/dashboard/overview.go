package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/assessment"
	"github.com/trezcool/apsas/core/filter"
	"github.com/trezcool/apsas/core/stats"
)

const topStudents = 10

type (
	Overview struct {
		Users         UserStats         `json:"users"`
		Semesters     SemesterStats     `json:"semesters"`
		Classes       ClassStats        `json:"classes"`
		Templates     TemplateStats     `json:"templates"`
		GradingGroups GradingGroupStats `json:"gradingGroups"`
		Submissions   SubmissionStats   `json:"submissions"`
		Assessments   AssessmentStats   `json:"assessments"`
	}

	UserStats struct {
		Total  int                      `json:"total"`
		ByRole []stats.KeyCount[string] `json:"byRole"`
	}

	SemesterStats struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	}

	ClassStats struct {
		Total      int                      `json:"total"`
		Students   int                      `json:"students"`
		BySemester []stats.KeyCount[string] `json:"bySemester"`
	}

	TemplateStats struct {
		Total  int                      `json:"total"`
		ByType []stats.KeyCount[string] `json:"byType"`
	}

	GradingGroupStats struct {
		Total          int     `json:"total"`
		Completed      int     `json:"completed"`
		CompletionRate float64 `json:"completionRate"`
	}

	SubmissionStats struct {
		Total             int                      `json:"total"`
		ByStatus          []stats.KeyCount[string] `json:"byStatus"`
		GradeDistribution []stats.BucketCount      `json:"gradeDistribution"`
		AverageGrade      float64                  `json:"averageGrade"`
		TopStudents       []StudentGrade           `json:"topStudents"`
	}

	AssessmentStats struct {
		Total  int                      `json:"total"`
		ByType []stats.KeyCount[string] `json:"byType"`
	}

	StudentGrade struct {
		StudentID    int     `json:"studentId"`
		StudentCode  string  `json:"studentCode"`
		StudentName  string  `json:"studentName"`
		AverageGrade float64 `json:"averageGrade"`
		Graded       int     `json:"graded"`
	}
)

// unassigned groups the classes whose semester could not be resolved.
const unassigned = "Unassigned"

// snapshot holds every collection the overview is computed from.
type snapshot struct {
	accounts    []academic.Account
	semesters   []academic.Semester
	classes     []academic.Class
	elements    []academic.CourseElement
	templates   []academic.AssessmentTemplate
	assessments []academic.ClassAssessment
	groups      []academic.GradingGroup
	submissions []academic.Submission
}

// snapshot fetches all collections concurrently, failing on the first error.
func (svc *Service) snapshot(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	fetch := func(what string, fn func() error) {
		g.Go(func() error { return errors.Wrap(fn(), "listing "+what) })
	}
	fetch("accounts", func() (err error) { snap.accounts, err = svc.src.ListAccounts(ctx); return })
	fetch("semesters", func() (err error) { snap.semesters, err = svc.src.ListSemesters(ctx); return })
	fetch("classes", func() (err error) { snap.classes, err = svc.src.ListClasses(ctx); return })
	fetch("course elements", func() (err error) { snap.elements, err = svc.src.ListCourseElements(ctx); return })
	fetch("templates", func() (err error) { snap.templates, err = svc.src.ListTemplates(ctx); return })
	fetch("class assessments", func() (err error) { snap.assessments, err = svc.src.ListClassAssessments(ctx); return })
	fetch("grading groups", func() (err error) { snap.groups, err = svc.src.ListGradingGroups(ctx); return })
	fetch("submissions", func() (err error) {
		snap.submissions, err = svc.src.ListSubmissions(ctx, SubmissionQuery{})
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (svc *Service) Overview(ctx context.Context, f OverviewFilter) (*Overview, error) {
	if err := svc.check(f); err != nil {
		return nil, err
	}
	snap, err := svc.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ov := computeOverview(snap, filter.NewRange(f.Dates()), svc.now())
	return &ov, nil
}

func computeOverview(snap *snapshot, rng *filter.Range, now time.Time) Overview {
	var ov Overview

	ov.Users.Total = len(snap.accounts)
	ov.Users.ByRole = stats.SortedCounts(stats.CountBy(snap.accounts, func(a academic.Account) string { return a.Role.String() }))

	sems := filter.Apply(snap.semesters, filter.Overlap(rng, semesterSpan))
	ov.Semesters.Total = len(sems)
	ov.Semesters.Active = stats.Count(sems, func(s academic.Semester) bool { return s.IsActive(now) })

	classes := filter.Apply(snap.classes, filter.Within(rng, func(c academic.Class) (time.Time, bool) {
		return c.CreatedAt, !c.CreatedAt.IsZero()
	}))
	ov.Classes.Total = len(classes)
	for _, c := range classes {
		ov.Classes.Students += c.StudentCount
	}
	ov.Classes.BySemester = stats.SortedCounts(stats.CountBy(classes, func(c academic.Class) string {
		if sem, ok := semesterOf(c, snap.semesters); ok {
			return sem.SemesterCode
		}
		return unassigned
	}))

	classifier := assessment.NewClassifier(snap.elements)
	ov.Templates.Total = len(snap.templates)
	ov.Templates.ByType = typeCounts(snap.templates, classifier.Template)

	groups := filter.Apply(snap.groups, filter.Within(rng, func(g academic.GradingGroup) (time.Time, bool) {
		return g.CreatedAt, !g.CreatedAt.IsZero()
	}))
	ov.GradingGroups.Total = len(groups)
	ov.GradingGroups.Completed = stats.Count(groups, academic.GradingGroup.Completed)
	ov.GradingGroups.CompletionRate = stats.Round2(stats.Rate(ov.GradingGroups.Completed, len(groups)))

	subs := filter.Apply(snap.submissions, filter.Within(rng, func(s academic.Submission) (time.Time, bool) {
		return s.SubmittedAt.Time, s.SubmittedAt.Valid
	}))
	ov.Submissions = submissionStats(subs)

	records := filter.Apply(
		assessment.Countable(assessment.Records(snap.assessments, snap.groups, snap.templates, classifier)),
		recordDates(rng),
	)
	ov.Assessments.Total = len(records)
	ov.Assessments.ByType = typeCounts(records, assessment.Record.Kind)
	return ov
}

func (ov Overview) empty() bool {
	return ov.Users.Total+ov.Semesters.Total+ov.Classes.Total+ov.Templates.Total+
		ov.GradingGroups.Total+ov.Submissions.Total+ov.Assessments.Total == 0
}

// typeCounts counts items per assessment type. Every type is present, in declaration order.
func typeCounts[T any](items []T, typeOf func(T) assessment.Type) []stats.KeyCount[string] {
	counts := stats.CountBy(items, typeOf)
	out := make([]stats.KeyCount[string], 0, len(assessment.Types))
	for _, t := range assessment.Types {
		out = append(out, stats.KeyCount[string]{Key: t.String(), Count: counts[t]})
	}
	return out
}

func submissionStats(subs []academic.Submission) SubmissionStats {
	st := SubmissionStats{Total: len(subs)}

	counts := stats.CountBy(subs, academic.Submission.Status)
	st.ByStatus = make([]stats.KeyCount[string], 0, len(academic.SubmissionStatuses))
	for _, s := range academic.SubmissionStatuses {
		st.ByStatus = append(st.ByStatus, stats.KeyCount[string]{Key: string(s), Count: counts[s]})
	}

	var (
		graded []academic.Submission
		grades []float64
	)
	for _, s := range subs {
		if s.Status() == academic.StatusGraded {
			graded = append(graded, s)
			grades = append(grades, s.LastGrade)
		}
	}
	st.GradeDistribution = stats.Distribution(grades)
	st.AverageGrade = stats.Round2(stats.Mean(grades))
	st.TopStudents = stats.TopN(studentGrades(graded), topStudents, func(s StudentGrade) float64 { return s.AverageGrade })
	return st
}

// studentGrades averages graded submissions per student, in order of first appearance.
func studentGrades(graded []academic.Submission) []StudentGrade {
	byStudent := stats.GroupBy(graded, func(s academic.Submission) int { return s.StudentID })
	out := make([]StudentGrade, 0, len(byStudent))
	seen := make(map[int]bool, len(byStudent))
	for _, s := range graded {
		if seen[s.StudentID] {
			continue
		}
		seen[s.StudentID] = true

		subs := byStudent[s.StudentID]
		grades := make([]float64, 0, len(subs))
		for _, sub := range subs {
			grades = append(grades, sub.LastGrade)
		}
		out = append(out, StudentGrade{
			StudentID:    s.StudentID,
			StudentCode:  s.StudentCode,
			StudentName:  s.StudentName,
			AverageGrade: stats.Round2(stats.Mean(grades)),
			Graded:       len(subs),
		})
	}
	return out
}
