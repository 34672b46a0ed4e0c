package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/config"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/ui"
	"github.com/dori/taskdeck/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	// Subcommand handling
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "add":
			exitOn(handleAdd(os.Args[2:]))
			return
		case "list":
			exitOn(handleList(os.Args[2:]))
			return
		case "users":
			exitOn(handleUsers(os.Args[2:]))
			return
		case "stats":
			exitOn(handleStats(os.Args[2:]))
			return
		case "demo":
			exitOn(handleDemo(os.Args[2:]))
			return
		case "version":
			fmt.Printf("taskdeck v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Parse flags for TUI mode
	fs := flag.NewFlagSet("taskdeck", flag.ExitOnError)
	viewFlag := fs.String("view", "todos", "Starting view (todos, users, stats)")
	themeFlag := fs.String("theme", "", "Theme name (nord, dracula, gruvbox, catppuccin)")
	filterFlag := fs.String("filter", "all", "Task filter (all, completed, processing)")
	noNotify := fs.Bool("no-notify", false, "Disable desktop notifications")
	overrides := connectionFlags(fs)
	fs.Parse(os.Args[1:])
	overrides.Theme = *themeFlag

	if err := runTUI(*overrides, *viewFlag, *filterFlag, *noNotify); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connectionFlags registers the flags shared by the TUI and subcommands
func connectionFlags(fs *flag.FlagSet) *config.Overrides {
	o := &config.Overrides{}
	fs.StringVar(&o.TodoURL, "todo-url", "", "Todo service base address")
	fs.StringVar(&o.UserURL, "user-url", "", "User service base address")
	fs.StringVar(&o.StatsURL, "stats-url", "", "Stats service base address")
	fs.StringVar(&o.EnvFile, "env", "", "Runtime environment file (default "+config.DefaultEnvPath()+")")
	fs.StringVar(&o.DebugLog, "debug-log", "", "Write a debug log to this file")
	fs.StringVar(&o.Metrics, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return o
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `taskdeck - tasks, users and stats from your team services

Usage:
  taskdeck                    Start the TUI
  taskdeck add <task>         Quick add a task
  taskdeck list [filter]      Print tasks (all, completed, processing)
  taskdeck users              Print the user directory
  taskdeck stats              Print service statistics
  taskdeck demo               Run in-memory services to try the TUI against
  taskdeck version            Show version
  taskdeck help               Show this help

Quick Add Syntax:
  taskdeck add "Buy groceries"
  taskdeck add "Review PR @alice due:tomorrow"

  Assignee:  @username
  Due date:  due:tomorrow due:friday due:2024-01-15

TUI Options:
  --view <name>         Starting view (todos, users, stats)
  --theme <name>        Theme (nord, dracula, gruvbox, catppuccin)
  --filter <name>       Task filter (all, completed, processing)
  --no-notify           Disable desktop notifications

Connection Options (all commands):
  --todo-url <url>      Todo service base address
  --user-url <url>      User service base address
  --stats-url <url>     Stats service base address
  --env <file>          Runtime environment file (JSON object)
  --debug-log <file>    Write a debug log
  --metrics-addr <addr> Serve Prometheus metrics

Addresses are resolved from the flags, then the env file keys
TODO_API_URL, USER_API_URL and STATS_API_URL, then the same names
prefixed with TASKDECK_ in the process environment.

Keybindings:
  Navigation:   ↑/↓ or j/k    Move cursor
                g/G           Go to top/bottom

  Tasks:        a             Add new task
                enter         Edit task
                tab           Toggle done
                u             Assign
                d             Delete (with confirm)
                f             Cycle filter

  Views:        1-3           Todos, users, stats
                ?             Help
                q             Quit`

	fmt.Println(help)
}

func runTUI(o config.Overrides, startView, filterName string, noNotify bool) error {
	view, ok := ui.ParseView(startView)
	if !ok {
		return fmt.Errorf("unknown view %q", startView)
	}
	filter, ok := model.ParseFilterMode(filterName)
	if !ok {
		return fmt.Errorf("unknown filter %q", filterName)
	}

	cfg, err := config.Load(o)
	if err != nil {
		return err
	}
	if noNotify {
		cfg.Notify = false
	}

	if cfg.Theme != "" {
		t, ok := theme.ByName(cfg.Theme)
		if !ok {
			return fmt.Errorf("unknown theme %q", cfg.Theme)
		}
		theme.SetTheme(t)
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	root := ui.NewRootModel(application, view, filter)

	p := tea.NewProgram(
		root,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()
	if m, ok := final.(ui.RootModel); ok {
		m.Close()
	}
	return err
}
