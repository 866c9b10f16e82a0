// Package bundle builds the download-all archive of an assessment template:
// its requirement document, its attachments and one entry per submission.
package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/academic"
)

// ErrEmptyArchive is returned when there is nothing to put in the archive.
var ErrEmptyArchive = errors.New("nothing to download: the archive would be empty")

const (
	noFileSuffix = "_no_file.txt"
	noFileText   = "no file available"

	defaultConcurrency     = 4
	defaultDownloadTimeout = 2 * time.Minute
)

// Source fetches what goes into an archive.
type Source interface {
	ListPapers(ctx context.Context, templateID int) ([]academic.Paper, error)
	ListQuestions(ctx context.Context, paperID int) ([]academic.Question, error)
	ListRubricItems(ctx context.Context, questionID int) ([]academic.RubricItem, error)
	ListTemplateFiles(ctx context.Context, templateID int) ([]academic.TemplateFile, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

type Request struct {
	Template    academic.AssessmentTemplate
	Submissions []academic.Submission
}

type Failure struct {
	Entry string
	Err   error
}

func (f Failure) Error() string {
	return f.Entry + ": " + f.Err.Error()
}

type Result struct {
	Entries  []string
	Failures []Failure
}

type Options struct {
	Concurrency     int
	DownloadTimeout time.Duration
}

type Builder struct {
	src  Source
	docs DocumentRenderer
	log  core.Logger
	opts Options
}

func NewBuilder(src Source, docs DocumentRenderer, logger core.Logger, opts Options) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = defaultDownloadTimeout
	}
	return &Builder{src: src, docs: docs, log: logger, opts: opts}
}

type entry struct {
	name string
	data []byte
}

// Build assembles the archive of req and writes it to w.
// Single-file failures are logged and reported in the result; they never abort the archive.
// ErrEmptyArchive is returned, and nothing is written, when there is no entry at all.
func (b *Builder) Build(ctx context.Context, w io.Writer, req Request) (Result, error) {
	var (
		res     Result
		entries []entry
		names   = newEntryNamer()
	)
	fail := func(name string, err error) {
		res.Failures = append(res.Failures, Failure{Entry: name, Err: err})
		b.log.Warn("bundle: "+name, err, map[string]interface{}{"templateID": req.Template.ID})
	}

	docName := CleanName(req.Template.Name)
	if docName == "" {
		docName = "template_" + strconv.Itoa(req.Template.ID)
	}
	docName += b.docs.Extension()
	if e, err := b.requirement(ctx, req.Template, fail); err != nil {
		fail(requirementDir+"/"+docName, err)
	} else if e != nil {
		e.name = names.next(requirementDir, docName)
		entries = append(entries, *e)
	}

	for _, e := range b.attachments(ctx, req.Template, fail) {
		e.name = names.next(filesDir, e.name)
		entries = append(entries, e)
	}

	for _, e := range b.submissions(ctx, req.Submissions, fail) {
		e.name = names.next(submissionsDir, e.name)
		entries = append(entries, e)
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(entries) == 0 {
		return res, ErrEmptyArchive
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: time.Now()})
		if err != nil {
			return res, errors.Wrap(err, "creating archive entry")
		}
		if _, err := fw.Write(e.data); err != nil {
			return res, errors.Wrap(err, "writing archive entry")
		}
		res.Entries = append(res.Entries, e.name)
	}
	if err := zw.Close(); err != nil {
		return res, errors.Wrap(err, "closing archive")
	}
	return res, nil
}

// requirement renders the requirement document. It returns no entry when the template has no paper.
func (b *Builder) requirement(ctx context.Context, tmpl academic.AssessmentTemplate, fail func(string, error)) (*entry, error) {
	doc, failures, err := b.Document(ctx, tmpl)
	for _, f := range failures {
		fail(f.Entry, f.Err)
	}
	if err != nil {
		return nil, err
	}
	if len(doc.Papers) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := b.docs.Render(&buf, doc); err != nil {
		return nil, errors.Wrap(err, "rendering requirement document")
	}
	return &entry{data: buf.Bytes()}, nil
}

// Document fetches the papers of tmpl, then for each paper its questions and their rubric items.
// A paper's fetches run one after the other, papers run concurrently and keep their order.
// Questions or rubric items that could not be fetched are left out and reported as failures.
func (b *Builder) Document(ctx context.Context, tmpl academic.AssessmentTemplate) (*Document, []Failure, error) {
	papers, err := b.src.ListPapers(ctx, tmpl.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetching papers")
	}

	type slot struct {
		section  PaperSection
		failures []Failure
	}
	slots := make([]slot, len(papers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, paper := range papers {
		g.Go(func() error {
			s := &slots[i]
			s.section.Paper = paper

			questions, err := b.src.ListQuestions(gctx, paper.ID)
			if err != nil {
				s.failures = append(s.failures, Failure{Entry: "paper " + strconv.Itoa(paper.ID), Err: errors.Wrap(err, "fetching questions")})
				return nil
			}
			SortQuestions(questions)
			for _, q := range questions {
				qs := QuestionSection{Question: q}
				rubric, err := b.src.ListRubricItems(gctx, q.ID)
				if err != nil {
					s.failures = append(s.failures, Failure{Entry: "question " + strconv.Itoa(q.ID), Err: errors.Wrap(err, "fetching rubric items")})
				}
				qs.Rubric = rubric
				s.section.Questions = append(s.section.Questions, qs)
			}
			return nil
		})
	}
	_ = g.Wait()

	var failures []Failure
	doc := &Document{Title: tmpl.Name, Papers: make([]PaperSection, 0, len(slots))}
	for _, s := range slots {
		failures = append(failures, s.failures...)
		doc.Papers = append(doc.Papers, s.section)
	}
	return doc, failures, nil
}

func (b *Builder) attachments(ctx context.Context, tmpl academic.AssessmentTemplate, fail func(string, error)) []entry {
	files, err := b.src.ListTemplateFiles(ctx, tmpl.ID)
	if err != nil {
		fail(filesDir, errors.Wrap(err, "fetching template files"))
		return nil
	}

	found := make([]*entry, len(files))
	errs := make([]error, len(files))
	g := new(errgroup.Group)
	g.SetLimit(b.opts.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			data, err := b.download(ctx, file.FileURL)
			if err != nil {
				errs[i] = err
				return nil
			}
			name := CleanName(file.Name)
			if name == "" {
				name = "file_" + strconv.Itoa(file.ID)
			}
			found[i] = &entry{name: withExtension(name, data), data: data}
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]entry, 0, len(files))
	for i, e := range found {
		if e == nil {
			fail(filesDir+"/"+files[i].Name, errs[i])
			continue
		}
		entries = append(entries, *e)
	}
	return entries
}

// submissions returns exactly one entry per submission, in order:
// its downloaded file, or a placeholder when there is none.
func (b *Builder) submissions(ctx context.Context, subs []academic.Submission, fail func(string, error)) []entry {
	entries := make([]entry, len(subs))
	errs := make([]error, len(subs))

	g := new(errgroup.Group)
	g.SetLimit(b.opts.Concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			base := SubmissionName(sub)
			url, ok := sub.FileURL()
			if !ok {
				entries[i] = placeholder(base, sub)
				return nil
			}
			data, err := b.download(ctx, url)
			if err != nil {
				errs[i] = err
				entries[i] = placeholder(base, sub)
				return nil
			}
			entries[i] = entry{name: base + ".zip", data: data}
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			fail(submissionsDir+"/"+SubmissionName(subs[i])+".zip", err)
		}
	}
	return entries
}

func (b *Builder) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.DownloadTimeout)
	defer cancel()
	data, err := b.src.Download(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "downloading "+url)
	}
	return data, nil
}

// SubmissionName is the student code, or "submission_<id>" when there is none.
func SubmissionName(sub academic.Submission) string {
	if name := CleanName(sub.StudentCode); name != "" {
		return name
	}
	return "submission_" + strconv.Itoa(sub.ID)
}

func placeholder(base string, sub academic.Submission) entry {
	text := fmt.Sprintf("%s\nsubmission: %d\nstudent: %s %s\n", noFileText, sub.ID, sub.StudentCode, sub.StudentName)
	return entry{name: base + noFileSuffix, data: []byte(text)}
}
