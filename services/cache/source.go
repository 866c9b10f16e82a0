package cache

import (
	"context"
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/trezcool/apsas/core/academic"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/services/apsas"
)

const anonymous = "anonymous"

// Upstream is everything the app fetches from the APSAS API.
type Upstream interface {
	dashboard.Source
	bundle.Source
}

// Source serves the list queries of an Upstream through a Cache.
// Entries are kept per caller: a caller only ever gets what was fetched with its own token.
// Downloads are never cached.
type Source struct {
	next  Upstream
	cache *Cache
}

var _ Upstream = (*Source)(nil)

func NewSource(next Upstream, cache *Cache) *Source {
	return &Source{next: next, cache: cache}
}

func (s *Source) Cache() *Cache {
	return s.cache
}

// principal identifies the caller of ctx by a digest of its bearer token.
func principal(ctx context.Context) string {
	token := apsas.TokenFrom(ctx)
	if token == "" {
		return anonymous
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// key is resource scoped to the caller. Invalidate prefixes still match on resource.
func (s *Source) key(ctx context.Context, resource string) string {
	return resource + "@" + principal(ctx)
}

func (s *Source) ListSemesters(ctx context.Context) ([]academic.Semester, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "semesters"), s.next.ListSemesters)
}

func (s *Source) ListClasses(ctx context.Context) ([]academic.Class, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "classes"), s.next.ListClasses)
}

func (s *Source) ListCourseElements(ctx context.Context) ([]academic.CourseElement, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "course-elements"), s.next.ListCourseElements)
}

func (s *Source) ListTemplates(ctx context.Context) ([]academic.AssessmentTemplate, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "templates"), s.next.ListTemplates)
}

func (s *Source) ListClassAssessments(ctx context.Context) ([]academic.ClassAssessment, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "class-assessments"), s.next.ListClassAssessments)
}

func (s *Source) ListGradingGroups(ctx context.Context) ([]academic.GradingGroup, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "grading-groups"), s.next.ListGradingGroups)
}

func (s *Source) ListSubmissions(ctx context.Context, q dashboard.SubmissionQuery) ([]academic.Submission, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "submissions:"+strconv.Itoa(q.GradingGroupID)), func(ctx context.Context) ([]academic.Submission, error) {
		return s.next.ListSubmissions(ctx, q)
	})
}

func (s *Source) ListAccounts(ctx context.Context) ([]academic.Account, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "accounts"), s.next.ListAccounts)
}

func (s *Source) ListAssignRequests(ctx context.Context) ([]academic.AssignRequest, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "assign-requests"), s.next.ListAssignRequests)
}

func (s *Source) ListPapers(ctx context.Context, templateID int) ([]academic.Paper, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "papers:"+strconv.Itoa(templateID)), func(ctx context.Context) ([]academic.Paper, error) {
		return s.next.ListPapers(ctx, templateID)
	})
}

func (s *Source) ListQuestions(ctx context.Context, paperID int) ([]academic.Question, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "questions:"+strconv.Itoa(paperID)), func(ctx context.Context) ([]academic.Question, error) {
		return s.next.ListQuestions(ctx, paperID)
	})
}

func (s *Source) ListRubricItems(ctx context.Context, questionID int) ([]academic.RubricItem, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "rubric-items:"+strconv.Itoa(questionID)), func(ctx context.Context) ([]academic.RubricItem, error) {
		return s.next.ListRubricItems(ctx, questionID)
	})
}

func (s *Source) ListTemplateFiles(ctx context.Context, templateID int) ([]academic.TemplateFile, error) {
	return Fetch(ctx, s.cache, s.key(ctx, "template-files:"+strconv.Itoa(templateID)), func(ctx context.Context) ([]academic.TemplateFile, error) {
		return s.next.ListTemplateFiles(ctx, templateID)
	})
}

func (s *Source) Download(ctx context.Context, url string) ([]byte, error) {
	return s.next.Download(ctx, url)
}
