package main

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/core/session"
	emailsvc "github.com/trezcool/apsas/services/email"
	"github.com/trezcool/apsas/services/export/docx"
	"github.com/trezcool/apsas/services/export/xlsx"
	boltdb "github.com/trezcool/apsas/storage/bolt"
	testutil "github.com/trezcool/apsas/tests"
)

type fixture struct {
	cli    *commandLine
	out    *bytes.Buffer
	src    *testutil.Source
	mailer *emailsvc.ConsoleService
	dir    string
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	src := testutil.NewSource(testutil.Fixtures())
	logger := testutil.NewLogger()
	validate, _ := core.NewValidator()
	conf := &core.Config{AppName: "APSAS Insight"}

	dash := dashboard.NewService(src, validate)
	dash.SetClock(func() time.Time { return testutil.Now })

	state, err := boltdb.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = state.Close() })

	db, err := sql.Open("sqlite", filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	out := new(bytes.Buffer)
	mailer := emailsvc.NewConsoleService(conf, io.Discard, logger)
	cli := &commandLine{
		conf:      conf,
		db:        db,
		dashboard: dash,
		bundler:   bundle.NewBuilder(src, docx.NewRenderer(), logger, bundle.Options{}),
		exporter:  xlsx.NewWriter(),
		sessions:  session.NewService(boltdb.NewSessionRepository(state), validate),
		mailer:    mailer,
		out:       out,
		now:       func() time.Time { return testutil.Now },
	}
	return fixture{cli: cli, out: out, src: src, mailer: mailer, dir: dir}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	fx := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "export: no report", args: []string{"export"}, wantErr: errHelp},
		{name: "export: help", args: []string{"export", "-h"}, wantErr: errHelp},
		{name: "bundle: no template", args: []string{"bundle"}, wantErr: errHelp},
		{name: "session: no subcommand", args: []string{"session"}, wantErr: errHelp},
		{name: "session: unknown subcommand", args: []string{"session", "lol"}, wantErr: errHelp},
		{name: "session: get without id", args: []string{"session", "get"}, wantErr: errHelp},
		{name: "export: bad flag", args: []string{"export", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx.cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	fx := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "seed", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx.cli.run(args))
		})
	}

	fx.cli.db = nil
	assert.Equal(t, errNoDatabase, fx.cli.run([]string{"admin", "migrate", "up"}))
}

func Test_commandLine_export(t *testing.T) {
	fx := setup(t)

	tests := []cliTest{
		{name: "unknown report", args: []string{"export", "-report", "lol"}, wantErr: dashboard.ErrUnknownReport},
		{name: "bad recipients", args: []string{"export", "-report", "classes", "-mail-to", "not an email"}, wantErrStr: "mail-to: mail: no angle-addr"},
		{name: "overview", args: []string{"export", "-report", "overview", "-dir", fx.dir}, extra: "Overview_2024-03-15.xlsx"},
		{name: "semesters in range", args: []string{"export", "-report", "semesters", "-from", "2024-01-01", "-dir", fx.dir}, extra: "Semesters_2024-03-15.xlsx"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := fx.cli.run(args)
			tt.check(t, err)
			if filename, ok := tt.extra.(string); ok {
				assert.FileExists(t, filepath.Join(fx.dir, filename))
			}
		})
	}
	assert.Empty(t, fx.mailer.Sent())
}

func Test_commandLine_export_mail(t *testing.T) {
	fx := setup(t)
	fx.src.Fail("submissions", nil)

	err := fx.cli.run([]string{"admin", "export", "-report", "overview", "-dir", fx.dir, "-mail-to", "Head <hod@apsas.edu>, admin@apsas.edu"})
	require.NoError(t, err)
	assert.Contains(t, fx.out.String(), "warning: Overview was left out")

	sent := fx.mailer.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "Overview report", msg.Subject)
	require.Len(t, msg.To, 2)
	assert.Equal(t, "hod@apsas.edu", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, `The "Overview" report generated on 2024-03-15 is attached (Overview_2024-03-15.xlsx).`)
	assert.Contains(t, msg.TextContent, "3 section(s) could not be built")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "Overview_2024-03-15.xlsx", msg.Attachments[0].Filename)
	assert.Equal(t, xlsx.ContentType, msg.Attachments[0].ContentType)
}

func Test_commandLine_bundle(t *testing.T) {
	fx := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t"), nil }
	err := fx.cli.run([]string{"admin", "bundle", "-template", "30", "-grading-group", "1", "-dir", fx.dir, "-token"})
	require.NoError(t, err)
	assert.Contains(t, fx.out.String(), "5 entries written to")

	data, err := os.ReadFile(filepath.Join(fx.dir, "PE PRF192.zip"))
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 5)

	tests := []cliTest{
		{name: "unknown template", args: []string{"bundle", "-template", "99"}, wantErr: dashboard.ErrTemplateNotFound},
		{name: "empty archive", args: []string{"bundle", "-template", "10", "-dir", fx.dir}, wantErr: bundle.ErrEmptyArchive},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx.cli.run(args))
		})
	}

	readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
	assert.Equal(t, errHelp, fx.cli.run([]string{"admin", "bundle", "-template", "30", "-token"}))
}

func Test_commandLine_session(t *testing.T) {
	fx := setup(t)

	lastSession := func(t *testing.T) session.Session {
		t.Helper()
		out := fx.out.String()
		fx.out.Reset()
		var sess session.Session
		require.NoError(t, json.Unmarshal([]byte(out), &sess), out)
		return sess
	}

	require.NoError(t, fx.cli.run([]string{"admin", "session", "create", "-class", "1", "-template", "30"}))
	created := lastSession(t)
	assert.Equal(t, 1, created.SelectedClassID.Int)
	assert.Equal(t, 30, created.SelectedTemplateID.Int)
	id := created.ID.String()

	require.NoError(t, fx.cli.run([]string{"admin", "session", "get", "-id", id}))
	assert.Equal(t, created.ID, lastSession(t).ID)

	require.NoError(t, fx.cli.run([]string{"admin", "session", "update", "-id", id, "-grading-group", "1", "-submission", "2"}))
	updated := lastSession(t)
	assert.False(t, updated.SelectedClassID.Valid)
	assert.Equal(t, 1, updated.SelectedGradingGroupID.Int)
	assert.Equal(t, 2, updated.SelectedSubmissionID.Int)

	require.NoError(t, fx.cli.run([]string{"admin", "session", "delete", "-id", id}))
	assert.True(t, strings.HasPrefix(fx.out.String(), "session "+id+" deleted"))

	tests := []cliTest{
		{name: "deleted", args: []string{"session", "get", "-id", id}, wantErr: session.ErrNotFound},
		{name: "bad id flag", args: []string{"session", "create", "-class", "abc"}, wantErrStr: `invalid value "abc" for flag -class: strconv.Atoi: parsing "abc": invalid syntax`},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fx.cli.run(args))
		})
	}
}
