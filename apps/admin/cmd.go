package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/core/report"
	"github.com/trezcool/apsas/core/session"
	"github.com/trezcool/apsas/services/apsas"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	db        *sql.DB
	dashboard *dashboard.Service
	bundler   *bundle.Builder
	exporter  report.Writer
	sessions  *session.Service
	mailer    core.EmailService
	out       io.Writer
	now       func() time.Time
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  export -report NAME [-from DATE] [-to DATE] [-semester CODE] [-dir DIR] [-mail-to EMAILS] [-token] - export a report workbook")
	fmt.Fprintln(cli.out, "  bundle -template ID [-grading-group ID] [-dir DIR] [-token] - download the archive of an assessment template")
	fmt.Fprintln(cli.out, "  session create|get|update|delete [-id ID] [-class ID] [-template ID] [-grading-group ID] [-exam-session ID] [-submission ID] - manage handoff sessions")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run database migrations")
}

// promptToken asks for the APSAS bearer token and returns ctx carrying it.
func (cli *commandLine) promptToken(ctx context.Context) (context.Context, error) {
	fmt.Fprint(cli.out, "Enter APSAS token:")
	token, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return ctx, err
	}
	if len(token) == 0 {
		return ctx, errHelp
	}
	return apsas.WithToken(ctx, string(token)), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "export":
		return cli.runExport(ctx, args[2:])
	case "bundle":
		return cli.runBundle(ctx, args[2:])
	case "session":
		return cli.runSession(ctx, args[2:])
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// parseFlags maps -h to errHelp.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}
