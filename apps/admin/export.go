package main

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/dashboard"
)

const reportReadyTemplate = "report_ready"

func (cli *commandLine) runExport(ctx context.Context, args []string) error {
	cmd := newFlagSet("export", cli.out)
	name := cmd.String("report", "", "The report to export: "+strings.Join(dashboard.ReportNames, ", ")+".")
	from := cmd.String("from", "", "Only include data from this date (YYYY-MM-DD).")
	to := cmd.String("to", "", "Only include data up to this date (YYYY-MM-DD).")
	semester := cmd.String("semester", "", "Only include the classes of this semester code.")
	dir := cmd.String("dir", ".", "The directory the workbook is written to.")
	mailTo := cmd.String("mail-to", "", "Comma separated emails the workbook is sent to.")
	askToken := cmd.Bool("token", false, "Prompt for the APSAS bearer token.")
	if err := parseFlags(cmd, args); err != nil {
		return err
	}
	if *name == "" {
		cmd.Usage()
		return errHelp
	}

	var recipients []*mail.Address
	if *mailTo != "" {
		addrs, err := mail.ParseAddressList(*mailTo)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "mail-to", Error: err.Error()})
		}
		recipients = addrs
	}
	if *askToken {
		var err error
		if ctx, err = cli.promptToken(ctx); err != nil {
			return err
		}
	}

	f := dashboard.ReportFilter{DateRange: core.DateRange{From: *from, To: *to}, Semester: *semester}
	wb, err := cli.dashboard.Report(ctx, *name, f)
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	for _, fl := range wb.Failures {
		fmt.Fprintf(cli.out, "warning: %s was left out: %v\n", fl.Section, fl.Err)
	}

	var buf bytes.Buffer
	if err = cli.exporter.Write(&buf, wb); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	now := cli.now()
	filename := wb.Filename(now)
	path, err := writeFile(*dir, filename, buf.Bytes())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s: %d row(s) written to %s\n", wb.Name, wb.Rows(), path)

	if len(recipients) == 0 {
		return nil
	}
	msg := &core.EmailMessage{
		Subject:      wb.Name + " report",
		TemplateName: reportReadyTemplate,
		TemplateData: map[string]interface{}{
			"Report":      wb.Name,
			"GeneratedOn": now.Format(core.DateLayout),
			"Filename":    filename,
			"Failures":    len(wb.Failures),
		},
	}
	for _, addr := range recipients {
		msg.To = append(msg.To, *addr)
	}
	if err = msg.Attach(bytes.NewReader(buf.Bytes()), filename, cli.exporter.ContentType()); err != nil {
		return errors.Wrap(err, "attaching workbook")
	}
	cli.mailer.SendMessages(msg)
	cli.mailer.Wait()
	fmt.Fprintf(cli.out, "%s sent to %s\n", filename, *mailTo)
	return nil
}

func (cli *commandLine) runBundle(ctx context.Context, args []string) error {
	cmd := newFlagSet("bundle", cli.out)
	templateID := cmd.Int("template", 0, "The assessment template ID.")
	groupID := cmd.Int("grading-group", 0, "Only include the submissions of this grading group.")
	dir := cmd.String("dir", ".", "The directory the archive is written to.")
	askToken := cmd.Bool("token", false, "Prompt for the APSAS bearer token.")
	if err := parseFlags(cmd, args); err != nil {
		return err
	}
	if *templateID == 0 {
		cmd.Usage()
		return errHelp
	}
	if *askToken {
		var err error
		if ctx, err = cli.promptToken(ctx); err != nil {
			return err
		}
	}

	req, err := cli.dashboard.BundleRequest(ctx, dashboard.BundleFilter{TemplateID: *templateID, GradingGroupID: *groupID})
	if err != nil {
		return errors.Wrap(err, "resolving bundle")
	}
	var buf bytes.Buffer
	res, err := cli.bundler.Build(ctx, &buf, req)
	if err != nil {
		return errors.Wrap(err, "building bundle")
	}
	for _, fl := range res.Failures {
		fmt.Fprintf(cli.out, "warning: %v\n", fl)
	}

	path, err := writeFile(*dir, dashboard.TemplateName(req.Template)+".zip", buf.Bytes())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d entries written to %s\n", len(res.Entries), path)
	return nil
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating output directory")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "writing "+name)
	}
	return path, nil
}
