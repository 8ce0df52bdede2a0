package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/jualearn/jualearn-web/core/apiclient"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	client *apiclient.Client
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME     - sign in; the password is prompted")
	fmt.Fprintln(cli.out, "  logout                       - discard the saved session")
	fmt.Fprintln(cli.out, "  whoami                       - show the signed-in user")
	fmt.Fprintln(cli.out, "  subjects                     - list subjects")
	fmt.Fprintln(cli.out, "  assignments                  - list assignments")
	fmt.Fprintln(cli.out, "  notifications                - list notifications")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	switch args[1] {
	case "login":
		uname := ""
		if len(args) > 3 && args[2] == "-username" {
			uname = args[3]
		}
		if uname == "" {
			cli.printUsage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		return cli.login(ctx, uname, string(pwd))
	case "logout":
		cli.client.Logout()
		fmt.Fprintln(cli.out, "Logged out.")
		return nil
	case "whoami":
		return cli.whoami()
	case "subjects":
		return cli.subjects(ctx)
	case "assignments":
		return cli.assignments(ctx)
	case "notifications":
		return cli.notifications(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(ctx context.Context, uname, pwd string) error {
	sess, err := cli.client.Login(ctx, apiclient.LoginRequest{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Signed in as %s (%s).\n", sess.Name(), sess.Role)
	return nil
}

func (cli *commandLine) whoami() error {
	sess := cli.client.Sessions().Current()
	if !sess.Valid() {
		fmt.Fprintln(cli.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(cli.out, "%s <%s> (%s)\n", sess.Name(), sess.Email, sess.Role)
	return nil
}

func (cli *commandLine) subjects(ctx context.Context) error {
	subjects, err := cli.client.Subjects.List(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subjects {
		fmt.Fprintf(cli.out, "%4d  %-24s %s\n", sub.ID, sub.Name, sub.Description)
	}
	return nil
}

func (cli *commandLine) assignments(ctx context.Context) error {
	assignments, err := cli.client.Assignments.List(ctx)
	if err != nil {
		return err
	}
	for _, asg := range assignments {
		due := asg.DueDate
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(cli.out, "%4d  %-32s due %s\n", asg.ID, asg.Title, due)
	}
	return nil
}

func (cli *commandLine) notifications(ctx context.Context) error {
	notifs, err := cli.client.Notifications.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range notifs {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(cli.out, "%s %s\n", marker, n.Message)
	}
	return nil
}
