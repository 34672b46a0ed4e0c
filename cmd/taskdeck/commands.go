package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/config"
	"github.com/dori/taskdeck/internal/fakeapi"
	"github.com/dori/taskdeck/internal/logging"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/quickadd"
	"github.com/dori/taskdeck/internal/syncer"
	"github.com/gin-gonic/gin"
)

var errAddUsage = errors.New("usage: taskdeck add <task>\nexample: taskdeck add \"Review PR @alice due:tomorrow\"")

// openApp parses connection flags and wires an app for a one-shot command
func openApp(name string, args []string) (*app.App, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("taskdeck "+name, flag.ExitOnError)
	o := connectionFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(*o)
	if err != nil {
		return nil, nil, err
	}
	cfg.Notify = false

	a, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, fs, nil
}

// userError turns a sync error into the message the TUI would show
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(syncer.Describe(err))
}

func handleAdd(args []string) error {
	a, fs, err := openApp("add", args)
	if err != nil {
		return err
	}
	defer a.Close()

	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return errAddUsage
	}

	ctx := context.Background()
	now := time.Now()
	entry := quickadd.Parse(text, now)
	draft := model.TaskDraft{Content: entry.Content, DueDate: entry.DueDate}

	if entry.Assignee != "" {
		users := a.NewUserList()
		if err := users.Load(ctx); err != nil {
			return userError(err)
		}
		u, ok := users.Find(entry.Assignee)
		if !ok {
			return fmt.Errorf("no user named @%s", entry.Assignee)
		}
		draft.Assignee = &u
	}

	task, err := a.NewTaskList().Create(ctx, draft)
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Created: %s (#%d)\n", task.Content, task.ID)
	if task.DueDate != "" {
		fmt.Printf("Due: %s\n", quickadd.FormatDue(task.DueDate, now))
	}
	if task.IsAssigned() {
		fmt.Printf("Assigned: %s\n", task.AssignedToName)
	}
	return nil
}

func handleList(args []string) error {
	a, fs, err := openApp("list", args)
	if err != nil {
		return err
	}
	defer a.Close()

	filter, ok := model.ParseFilterMode(fs.Arg(0))
	if !ok {
		return fmt.Errorf("unknown filter %q (all, completed, processing)", fs.Arg(0))
	}

	tasks := a.NewTaskList()
	if err := tasks.Load(context.Background()); err != nil {
		return userError(err)
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, t := range tasks.Filtered(filter) {
		mark := "[ ]"
		if t.Done {
			mark = "[x]"
		}
		due := ""
		if t.DueDate != "" {
			due = quickadd.FormatDue(t.DueDate, now)
		}
		assignee := ""
		if t.IsAssigned() {
			assignee = "@" + t.AssignedToName
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", mark, t.ID, t.Content, due, assignee)
	}
	return w.Flush()
}

func handleUsers(args []string) error {
	a, _, err := openApp("users", args)
	if err != nil {
		return err
	}
	defer a.Close()

	users := a.NewUserList()
	if err := users.Load(context.Background()); err != nil {
		return userError(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tNAME\tROLE\tDEPARTMENT")
	for _, u := range users.Users() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.DisplayName(), u.Role, u.Department)
	}
	return w.Flush()
}

func handleStats(args []string) error {
	a, _, err := openApp("stats", args)
	if err != nil {
		return err
	}
	defer a.Close()

	board := a.NewStatsBoard()
	if err := board.Load(context.Background()); err != nil {
		return userError(err)
	}
	snap, _ := board.Snapshot()

	users := fmt.Sprintf("%d", snap.TotalUsers)
	if snap.UsersMissing() {
		users = "unavailable (user service unreachable)"
	}
	fmt.Printf("Tasks:      %d\n", snap.TotalTodos)
	fmt.Printf("Completed:  %d\n", snap.CompletedTodos)
	fmt.Printf("Pending:    %d\n", snap.PendingTodos)
	fmt.Printf("Completion: %.2f%%\n", snap.CompletionRate)
	fmt.Printf("Users:      %s\n", users)
	return nil
}

// handleDemo serves all three services from memory on one address
func handleDemo(args []string) error {
	fs := flag.NewFlagSet("taskdeck demo", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:8080", "Listen address")
	empty := fs.Bool("empty", false, "Start without sample data")
	fs.Parse(args)

	logger := logging.New(os.Stderr, log.InfoLevel)
	gin.SetMode(gin.ReleaseMode)

	fake := fakeapi.New()
	if !*empty {
		seedDemo(fake)
	}

	srv := &http.Server{Addr: *addr, Handler: fake.Handler()}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	base := "http://" + *addr
	logger.Info("demo services listening", "addr", *addr)
	fmt.Printf("\nPoint taskdeck at the demo with:\n\n")
	fmt.Printf("  export %s%s=%s%s\n", config.EnvPrefix, config.KeyTodoURL, base, fakeapi.TodoPrefix)
	fmt.Printf("  export %s%s=%s%s\n", config.EnvPrefix, config.KeyUserURL, base, fakeapi.UserPrefix)
	fmt.Printf("  export %s%s=%s%s\n\n", config.EnvPrefix, config.KeyStatsURL, base, fakeapi.StatsPrefix)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedDemo(fake *fakeapi.Server) {
	fake.SeedUser("alice", "alice@example.com")
	fake.SeedUser("bob", "bob@example.com")
	fake.SeedTodo("Write the release notes", false)
	fake.SeedTodo("Review the API changes", true)
	fake.SeedTodo("Plan the team offsite", false)
}
