package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/filter"
	"github.com/trezcool/apsas/core/report"
	"github.com/trezcool/apsas/core/stats"
)

var ErrUnknownReport = errors.New("unknown report")

const (
	ReportOverview  = "overview"
	ReportClasses   = "classes"
	ReportSemesters = "semesters"
	ReportTemplates = "templates"
	ReportGrading   = "grading"
)

var ReportNames = []string{ReportOverview, ReportClasses, ReportSemesters, ReportTemplates, ReportGrading}

var reportTitles = map[string]string{
	ReportOverview:  "Overview",
	ReportClasses:   "Classes",
	ReportSemesters: "Semesters",
	ReportTemplates: "Templates",
	ReportGrading:   "Grading",
}

// Report builds the named workbook. Sections are built independently: see report.Build.
func (svc *Service) Report(ctx context.Context, name string, f ReportFilter) (*report.Workbook, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	title, ok := reportTitles[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownReport, name)
	}
	if err := svc.check(f); err != nil {
		return nil, err
	}
	rng := filter.NewRange(f.Dates())

	var sections []report.Section
	switch name {
	case ReportOverview:
		sections = []report.Section{
			{Name: "Overview", Build: svc.overviewSection(rng)},
			{Name: "Grade Distribution", Build: svc.gradeDistributionSection(rng)},
			{Name: "By Class", Build: svc.byClassSection(rng, f.Semester)},
			{Name: "Top Students", Build: svc.topStudentsSection(rng)},
		}
	case ReportClasses:
		sections = []report.Section{{Name: "Classes", Build: svc.byClassSection(rng, f.Semester)}}
	case ReportSemesters:
		sections = []report.Section{{Name: "Semesters", Build: svc.semestersSection(rng)}}
	case ReportTemplates:
		sections = []report.Section{{Name: "Templates", Build: svc.templatesSection()}}
	case ReportGrading:
		sections = []report.Section{
			{Name: "Grading Groups", Build: svc.gradingGroupsSection(rng)},
			{Name: "Grade Distribution", Build: svc.gradeDistributionSection(rng)},
		}
	}
	return report.Build(ctx, title, sections...)
}

type sectionFunc = func(ctx context.Context) (*report.Table, error)

func (svc *Service) overviewSection(rng *filter.Range) sectionFunc {
	return func(ctx context.Context) (*report.Table, error) {
		snap, err := svc.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		ov := computeOverview(snap, rng, svc.now())

		tbl := report.NewTable("Overview", report.TextCol("Metric"), report.NumberCol("Value"))
		if ov.empty() {
			return tbl, nil
		}
		tbl.AddRow("Users", ov.Users.Total)
		for _, kc := range ov.Users.ByRole {
			tbl.AddRow("Users: "+kc.Key, kc.Count)
		}
		tbl.AddRow("Semesters", ov.Semesters.Total)
		tbl.AddRow("Active semesters", ov.Semesters.Active)
		tbl.AddRow("Classes", ov.Classes.Total)
		tbl.AddRow("Students enrolled", ov.Classes.Students)
		tbl.AddRow("Templates", ov.Templates.Total)
		for _, kc := range ov.Templates.ByType {
			tbl.AddRow("Templates: "+kc.Key, kc.Count)
		}
		tbl.AddRow("Grading groups", ov.GradingGroups.Total)
		tbl.AddRow("Completed grading groups", ov.GradingGroups.Completed)
		tbl.AddRow("Grading completion rate (%)", ov.GradingGroups.CompletionRate)
		tbl.AddRow("Submissions", ov.Submissions.Total)
		for _, kc := range ov.Submissions.ByStatus {
			tbl.AddRow("Submissions: "+kc.Key, kc.Count)
		}
		tbl.AddRow("Average grade", ov.Submissions.AverageGrade)
		tbl.AddRow("Assessments", ov.Assessments.Total)
		for _, kc := range ov.Assessments.ByType {
			tbl.AddRow("Assessments: "+kc.Key, kc.Count)
		}
		return tbl, nil
	}
}

func (svc *Service) submissionsWithin(ctx context.Context, rng *filter.Range) ([]academic.Submission, error) {
	subs, err := svc.src.ListSubmissions(ctx, SubmissionQuery{})
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	return filter.Apply(subs, filter.Within(rng, func(s academic.Submission) (time.Time, bool) {
		return s.SubmittedAt.Time, s.SubmittedAt.Valid
	})), nil
}

func (svc *Service) gradeDistributionSection(rng *filter.Range) sectionFunc {
	return func(ctx context.Context) (*report.Table, error) {
		subs, err := svc.submissionsWithin(ctx, rng)
		if err != nil {
			return nil, err
		}
		st := submissionStats(subs)

		tbl := report.NewTable("Grade Distribution", report.TextCol("Grade"), report.NumberCol("Submissions"), report.PercentCol("Rate (%)"))
		if st.Total == 0 {
			return tbl, nil
		}
		for _, b := range st.GradeDistribution {
			tbl.AddRow(string(b.Bucket), b.Count, b.Rate)
		}
		return tbl, nil
	}
}

func (svc *Service) byClassSection(rng *filter.Range, semester string) sectionFunc {
	return func(ctx context.Context) (*report.Table, error) {
		classes, err := svc.src.ListClasses(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "listing classes")
		}
		sems, err := svc.src.ListSemesters(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "listing semesters")
		}
		assessments, err := svc.src.ListClassAssessments(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "listing class assessments")
		}
		byClass := stats.GroupBy(assessments, func(a academic.ClassAssessment) int { return a.ClassID })

		var f ClassFilter
		f.Semester = semester
		rows := classRows(filter.Apply(classes, filter.Within(rng, func(c academic.Class) (time.Time, bool) {
			return c.CreatedAt, !c.CreatedAt.IsZero()
		})), sems, f)

		tbl := report.NewTable("By Class",
			report.TextCol("Class"), report.TextCol("Course"), report.TextCol("Semester"), report.TextCol("Lecturer"),
			report.NumberCol("Students"), report.NumberCol("Assessments"), report.NumberCol("Submissions"),
			report.DateCol("Created"),
		)
		for _, r := range rows {
			var submitted int
			for _, a := range byClass[r.ID] {
				submitted += a.SubmissionCount
			}
			sem := r.SemesterCode
			if sem == "" {
				sem = r.SemesterName
			}
			tbl.AddRow(r.ClassCode, r.CourseName, sem, r.LecturerName, r.StudentCount, len(byClass[r.ID]), submitted, r.CreatedAt)
		}
		return tbl, nil
	}
}

func (svc *Service) topStudentsSection(rng *filter.Range) sectionFunc {
	return func(ctx context.Context) (*report.Table, error) {
		subs, err := svc.submissionsWithin(ctx, rng)
		if err != nil {
			return nil, err
		}
		st := submissionStats(subs)

		tbl := report.NewTable("Top Students",
			report.NumberCol("Rank"), report.TextCol("Student code"), report.TextCol("Student name"),
			report.NumberCol("Average grade"), report.NumberCol("Graded submissions"),
		)
		for i, s := range st.TopStudents {
			tbl.AddRow(i+1, s.StudentCode, s.StudentName, s.AverageGrade, s.Graded)
		}
		return tbl, nil
	}
}

func (svc *Service) semestersSection(rng *filter.Range) sectionFunc {
	return func(ctx context.Context) (*report.Table, error) {
		sems, err := svc.src.ListSemesters(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "listing semesters")
		}
		sems = filter.Apply(sems, filter.Overlap(rng, semesterSpan))
		sort.SliceStable(sems, func(i, j int) bool { return sems[i].StartDate.After(sems[j].StartDate) })

		now := svc.now()
		tbl := report.NewTable("Semesters",
			report.TextCol("Code"), report.NumberCol("Academic year"), report.DateCol("Start"), report.DateCol("End"),
			report.TextCol("Active"),
		)
		for _, s := range sems {
			tbl.AddRow(s.SemesterCode, s.AcademicYear, s.StartDate, s.EndDate, yesNo(s.IsActive(now)))
		}
		return tbl, nil
	}
}

func (svc *Service) templatesSection() sectionFunc {
	return func(ctx context.Context) (*report.Table, error) {
		rows, err := svc.Templates(ctx, TemplateFilter{})
		if err != nil {
			return nil, err
		}
		tbl := report.NewTable("Templates",
			report.TextCol("Name"), report.TextCol("Type"), report.TextCol("Course element"), report.TextCol("Lecturer"),
			report.TextCol("Description"),
		)
		for _, r := range rows {
			tbl.AddRow(r.Name, r.Type, r.CourseElementName, r.LecturerName, r.Description)
		}
		return tbl, nil
	}
}

func (svc *Service) gradingGroupsSection(rng *filter.Range) sectionFunc {
	return func(ctx context.Context) (*report.Table, error) {
		groups, err := svc.src.ListGradingGroups(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "listing grading groups")
		}
		groups = filter.Apply(groups, filter.Within(rng, func(g academic.GradingGroup) (time.Time, bool) {
			return g.CreatedAt, !g.CreatedAt.IsZero()
		}))

		tbl := report.NewTable("Grading Groups",
			report.TextCol("Template"), report.TextCol("Lecturer"), report.NumberCol("Submissions"),
			report.TextCol("Completed"), report.DateCol("Grade sheet submitted"), report.DateCol("Created"),
		)
		for _, g := range groups {
			tbl.AddRow(g.AssessmentTemplateName, g.LecturerName, g.SubmissionCount, yesNo(g.Completed()), g.GradeSheetSubmittedAt, g.CreatedAt)
		}
		return tbl, nil
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
