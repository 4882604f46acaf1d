// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketloft/ticketloft/internal/platform/validate"
	"github.com/ticketloft/ticketloft/internal/tickets"
	"github.com/ticketloft/ticketloft/internal/users/session"
	"github.com/ticketloft/ticketloft/pkg/pointer"
)

// Ticket priorities accepted on the command line.
var priorities = []string{"low", "medium", "high"}

// application holds the wired services and the output sink for one invocation.
type application struct {
	manager *session.Manager
	tickets *tickets.Store
	out     io.Writer
}

// run dispatches a single subcommand. Commands that operate on tickets load
// the current user's collection first so the store mirrors the right owner.
func (app *application) run(context context.Context, args []string) error {
	if len(args) == 0 {
		app.usage()
		return nil
	}

	command, rest := args[0], args[1:]

	// Ticket commands sit behind the session guard, the way the original
	// app's protected routes do. Checked before any flag parsing so the
	// hint is the first thing an anonymous user sees.
	switch command {
	case "add", "list", "show", "update", "close", "delete", "stats":
		if err := app.manager.RequireSession(); err != nil {
			fmt.Fprintln(app.out, "Not signed in. Run 'ticketloft login' first.")
			return err
		}
	}

	switch command {
	case "signup":
		return app.signup(context, rest)
	case "login":
		return app.login(context, rest)
	case "logout":
		return app.logout(context)
	case "whoami":
		return app.whoami()
	case "add":
		return app.add(context, rest)
	case "list":
		return app.list(context)
	case "show":
		return app.show(context, rest)
	case "update":
		return app.update(context, rest)
	case "close":
		return app.close(context, rest)
	case "delete":
		return app.delete(context, rest)
	case "stats":
		return app.stats(context)
	case "help", "-h", "--help":
		app.usage()
		return nil
	default:
		app.usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (app *application) usage() {
	fmt.Fprint(app.out, `Usage: ticketloft <command> [flags]

Account:
  signup   --email --password [--name]   Create an account and sign in
  login    --email --password            Sign in
  logout                                 Sign out
  whoami                                 Show the current session

Tickets (require a session):
  add      --title [--description] [--priority] [--status]
  list                                   List your tickets
  show     <id>                          Show one ticket
  update   <id> [--title] [--description] [--priority] [--status]
  close    <id>                          Mark a ticket closed
  delete   <id>                          Remove a ticket
  stats                                  Counts by status
`)
}

// # Account Commands

func (app *application) signup(context context.Context, args []string) error {
	flags := pflag.NewFlagSet("signup", pflag.ContinueOnError)
	name := flags.String("name", "", "display name (defaults to the email local part)")
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if current := app.manager.Current(); current != nil {
		fmt.Fprintf(app.out, "Already signed in as %s. Run 'ticketloft logout' first.\n", current.Email)
		return nil
	}

	validator := &validate.Validator{}
	if err := validator.
		Required("email", *email).
		Email("email", *email).
		Required("password", *password).
		Err(); err != nil {
		return err
	}

	created, err := app.manager.Signup(context, session.SignupInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Welcome, %s! Signed in as %s.\n", created.Name, created.Email)
	return nil
}

func (app *application) login(context context.Context, args []string) error {
	flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if current := app.manager.Current(); current != nil {
		fmt.Fprintf(app.out, "Already signed in as %s. Run 'ticketloft logout' first.\n", current.Email)
		return nil
	}

	active, err := app.manager.Login(context, session.Credentials{
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Signed in as %s.\n", active.Email)
	return nil
}

func (app *application) logout(context context.Context) error {
	if !app.manager.IsAuthenticated() {
		fmt.Fprintln(app.out, "Not signed in.")
		return nil
	}
	if err := app.manager.Logout(context); err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Signed out.")
	return nil
}

func (app *application) whoami() error {
	current := app.manager.Current()
	if current == nil {
		fmt.Fprintln(app.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(app.out, "%s <%s>\n", current.Name, current.Email)
	return nil
}

// # Ticket Commands

func (app *application) add(context context.Context, args []string) error {
	flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
	title := flags.String("title", "", "ticket title")
	description := flags.String("description", "", "ticket description")
	priority := flags.String("priority", "medium", "low, medium, or high")
	status := flags.String("status", string(tickets.StatusOpen), "open, in_progress, or closed")
	if err := flags.Parse(args); err != nil {
		return err
	}

	validator := &validate.Validator{}
	err := validator.
		Required("title", *title).
		MaxLen("title", *title, 200).
		OneOf("priority", *priority, priorities...).
		Custom("status", !tickets.ValidStatus(*status), "Unknown ticket status").
		Err()
	if err != nil {
		return err
	}

	if _, err := app.tickets.Load(context); err != nil {
		return err
	}

	created, err := app.tickets.Add(context, tickets.Ticket{
		Title:       *title,
		Description: *description,
		Priority:    *priority,
		Status:      tickets.Status(*status),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Ticket created: %s\n", created.ID)
	return nil
}

func (app *application) list(context context.Context) error {
	list, err := app.tickets.Load(context)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(app.out, "No tickets yet.")
		return nil
	}

	writer := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSTATUS\tPRIORITY\tTITLE\tCREATED")
	for _, ticket := range list {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			ticket.ID, ticket.Status, ticket.Priority, ticket.Title,
			ticket.CreatedAt.Format(time.DateOnly),
		)
	}
	return writer.Flush()
}

func (app *application) show(context context.Context, args []string) error {
	id, err := requireID(args)
	if err != nil {
		return err
	}
	if _, err := app.tickets.Load(context); err != nil {
		return err
	}

	ticket, err := app.tickets.GetByID(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "ID:          %s\n", ticket.ID)
	fmt.Fprintf(app.out, "Title:       %s\n", ticket.Title)
	fmt.Fprintf(app.out, "Description: %s\n", ticket.Description)
	fmt.Fprintf(app.out, "Priority:    %s\n", ticket.Priority)
	fmt.Fprintf(app.out, "Status:      %s\n", ticket.Status)
	fmt.Fprintf(app.out, "Created:     %s\n", ticket.CreatedAt.Format(time.RFC3339))
	if !ticket.UpdatedAt.IsZero() {
		fmt.Fprintf(app.out, "Updated:     %s\n", ticket.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func (app *application) update(context context.Context, args []string) error {
	flags := pflag.NewFlagSet("update", pflag.ContinueOnError)
	title := flags.String("title", "", "new title")
	description := flags.String("description", "", "new description")
	priority := flags.String("priority", "", "new priority")
	status := flags.String("status", "", "new status")
	if err := flags.Parse(args); err != nil {
		return err
	}

	id, err := requireID(flags.Args())
	if err != nil {
		return err
	}

	// Only flags the user actually set become part of the overlay; update is
	// a shallow merge, not a replacement.
	var overlay tickets.Update
	validator := &validate.Validator{}
	if flags.Changed("title") {
		validator.Required("title", *title).MaxLen("title", *title, 200)
		overlay.Title = title
	}
	if flags.Changed("description") {
		overlay.Description = description
	}
	if flags.Changed("priority") {
		validator.OneOf("priority", *priority, priorities...)
		overlay.Priority = priority
	}
	if flags.Changed("status") {
		validator.Custom("status", !tickets.ValidStatus(*status), "Unknown ticket status")
		overlay.Status = pointer.To(tickets.Status(*status))
	}
	if err := validator.Err(); err != nil {
		return err
	}

	if _, err := app.tickets.Load(context); err != nil {
		return err
	}

	merged, err := app.tickets.Update(context, id, overlay)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Ticket updated: %s (%s)\n", merged.ID, merged.Status)
	return nil
}

func (app *application) close(context context.Context, args []string) error {
	id, err := requireID(args)
	if err != nil {
		return err
	}
	if _, err := app.tickets.Load(context); err != nil {
		return err
	}

	closed, err := app.tickets.Update(context, id, tickets.Update{
		Status: pointer.To(tickets.StatusClosed),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Ticket closed: %s\n", closed.ID)
	return nil
}

func (app *application) delete(context context.Context, args []string) error {
	id, err := requireID(args)
	if err != nil {
		return err
	}
	if _, err := app.tickets.Load(context); err != nil {
		return err
	}

	if err := app.tickets.Delete(context, id); err != nil {
		return err
	}

	fmt.Fprintln(app.out, "Ticket deleted successfully.")
	return nil
}

func (app *application) stats(context context.Context) error {
	if _, err := app.tickets.Load(context); err != nil {
		return err
	}

	counts, err := app.tickets.Stats()
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Total\t%d\n", counts.Total)
	fmt.Fprintf(writer, "Open\t%d\n", counts.Open)
	fmt.Fprintf(writer, "In progress\t%d\n", counts.InProgress)
	fmt.Fprintf(writer, "Closed\t%d\n", counts.Closed)
	return writer.Flush()
}

// requireID extracts the single positional ticket id argument.
func requireID(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("expected exactly one ticket id argument")
	}
	return args[0], nil
}
