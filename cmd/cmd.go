// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (text, csv)",
			Value:   "text",
		},
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

func nodeFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "Node name (unique)",
			Required: required,
		},
		&cli.StringFlag{
			Name:     "hostname",
			Aliases:  []string{"host"},
			Usage:    "Hostname or IP address",
			Required: required,
		},
		&cli.StringFlag{
			Name:     "username",
			Aliases:  []string{"user"},
			Usage:    "SSH username",
			Required: required,
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "SSH port",
			Value: 22,
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Free-form description",
		},
	}
}

func groupFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "Group name (unique)",
			Required: required,
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Free-form description",
		},
		&cli.IntSliceFlag{
			Name:  "node",
			Usage: "Member node id (repeatable)",
		},
	}
}

// playbooksCommand handles playbook browsing
func playbooksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playbooks",
		Aliases: []string{"pb"},
		Usage:   "Browse playbooks available on the server",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List playbooks",
				Flags:   listFlags(),
				Action:  r.PlaybooksList,
			},
			{
				Name:  "show",
				Usage: "Print the content of a playbook",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaybooksShow,
			},
		},
	}
}

// nodesCommand handles node management
func nodesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "nodes",
		Usage: "Manage nodes",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List nodes",
				Flags:   listFlags(),
				Action:  r.NodesList,
			},
			{
				Name:   "add",
				Usage:  "Create a node",
				Flags:  nodeFlags(true),
				Action: r.NodesAdd,
			},
			{
				Name:  "edit",
				Usage: "Update a node; unset flags keep their current values",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  nodeFlags(false),
				Action: r.NodesEdit,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a node",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{yesFlag()},
				Action: r.NodesDelete,
			},
			{
				Name:      "ping",
				Usage:     "Check connectivity of one or more nodes",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Ping every node",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.NodesPing,
			},
		},
	}
}

// groupsCommand handles group management
func groupsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "groups",
		Usage: "Manage node groups",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List groups",
				Flags:   listFlags(),
				Action:  r.GroupsList,
			},
			{
				Name:   "add",
				Usage:  "Create a group",
				Flags:  groupFlags(true),
				Action: r.GroupsAdd,
			},
			{
				Name:  "edit",
				Usage: "Update a group; members are replaced only when --node is given",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append(groupFlags(false), &cli.BoolFlag{
					Name:  "clear-nodes",
					Usage: "Remove every member",
				}),
				Action: r.GroupsEdit,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a group",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{yesFlag()},
				Action: r.GroupsDelete,
			},
		},
	}
}

// executeCommand starts a playbook run
func executeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "execute",
		Aliases: []string{"run"},
		Usage:   "Run playbooks against nodes or groups",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "playbook",
				Aliases:  []string{"p"},
				Usage:    "Playbook name (repeatable)",
				Required: true,
			},
			&cli.IntSliceFlag{
				Name:    "node",
				Aliases: []string{"n"},
				Usage:   "Target node id (repeatable)",
			},
			&cli.IntSliceFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Target group id (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Wait for the completion event and print the execution",
			},
		},
		Action: r.Execute,
	}
}

// executionsCommand handles execution history
func executionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "executions",
		Aliases: []string{"history"},
		Usage:   "Inspect execution history",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List recent executions, newest first",
				Flags:   listFlags(),
				Action:  r.ExecutionsList,
			},
			{
				Name:  "show",
				Usage: "Show one execution with its output",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Report format (text, markdown)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Write the report to execution_<id>.txt or .md",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ExecutionsShow,
			},
		},
	}
}

// watchCommand streams push channel events
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print execution events as they arrive",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output one JSON object per event",
			},
		},
		Action: r.Watch,
	}
}

// sandboxCommand serves a local portal API
func sandboxCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sandbox",
		Usage: "Serve a local portal API backed by SQLite",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides sandbox.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides sandbox.port)",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "SQLite path or :memory: (overrides sandbox.database)",
			},
			&cli.StringFlag{
				Name:  "playbooks",
				Usage: "Playbook directory (overrides sandbox.playbooks_dir)",
			},
		},
		Action: r.Sandbox,
	}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml with the default settings",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the sandbox database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}
