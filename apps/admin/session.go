package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"

	"github.com/trezcool/apsas/core/session"
)

// idFlag is an optional id: unset flags clear the selection.
type idFlag struct {
	val *int
}

func (f *idFlag) String() string {
	if f == nil || f.val == nil {
		return ""
	}
	return strconv.Itoa(*f.val)
}

func (f *idFlag) Set(s string) error {
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.val = &i
	return nil
}

func selectionFlags(cmd *flag.FlagSet) func() session.Selection {
	var class, template, group, exam, submission idFlag
	cmd.Var(&class, "class", "The selected class ID.")
	cmd.Var(&template, "template", "The selected assessment template ID.")
	cmd.Var(&group, "grading-group", "The selected grading group ID.")
	cmd.Var(&exam, "exam-session", "The exam session ID.")
	cmd.Var(&submission, "submission", "The selected submission ID.")
	return func() session.Selection {
		return session.Selection{
			ClassID:        class.val,
			TemplateID:     template.val,
			GradingGroupID: group.val,
			ExamSessionID:  exam.val,
			SubmissionID:   submission.val,
		}
	}
}

func (cli *commandLine) runSession(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	cmd := newFlagSet("session "+args[0], cli.out)
	id := cmd.String("id", "", "The session ID.")
	selection := selectionFlags(cmd)
	if err := parseFlags(cmd, args[1:]); err != nil {
		return err
	}

	var (
		sess session.Session
		err  error
	)
	switch args[0] {
	case "create":
		sess, err = cli.sessions.Create(ctx, selection())
	case "get", "update", "delete":
		if *id == "" {
			cmd.Usage()
			return errHelp
		}
		switch args[0] {
		case "get":
			sess, err = cli.sessions.Get(ctx, *id)
		case "update":
			sess, err = cli.sessions.Update(ctx, *id, selection())
		case "delete":
			if err = cli.sessions.Delete(ctx, *id); err == nil {
				fmt.Fprintf(cli.out, "session %s deleted\n", *id)
			}
			return err
		}
	default:
		cli.printUsage()
		return errHelp
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(data))
	return nil
}
