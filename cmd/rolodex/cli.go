package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/ops"
	"github.com/hpungsan/rolodex/internal/store"
	"github.com/hpungsan/rolodex/internal/tui"
	"github.com/hpungsan/rolodex/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// e may be nil when only help or version output is needed.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "rolodex",
		Usage:   "Categorized contact log",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(e),
			deleteCmd(e),
			listCmd(e),
			showCmd(e),
			pathCmd(e),
			categoriesCmd(e),
			exportCmd(e),
			importCmd(e),
			serveCmd(e),
			tuiCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// saveCmd creates the save command.
func saveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Create a contact, or replace one with --id (comment may be piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "level1", Usage: "Level 1 category id"},
			&cli.StringFlag{Name: "level2", Usage: "Level 2 category id"},
			&cli.StringFlag{Name: "level3", Usage: "Level 3 category id"},
			&cli.StringFlag{Name: "comment", Aliases: []string{"c"}, Usage: "Comment text"},
			&cli.StringFlag{Name: "id", Usage: "Replace the contact with this id"},
			&cli.Int64Flag{Name: "created-at", Usage: "Timestamp (epoch ms) to keep on replace"},
		},
		Action: func(c *cli.Context) error {
			comment := c.String("comment")
			if !c.IsSet("comment") && stdinHasData(c.App.Reader) {
				text, err := readAll(c.App.Reader)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				comment = text
			}

			input := store.SaveInput{
				Level1:  c.String("level1"),
				Level2:  c.String("level2"),
				Level3:  c.String("level3"),
				Comment: comment,
				ID:      c.String("id"),
			}
			if c.IsSet("created-at") {
				createdAt := c.Int64("created-at")
				input.CreatedAt = &createdAt
			}

			output, err := ops.Save(c.Context, e.store, e.tree, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a contact",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, e.store, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List contacts, oldest first, with resolved category paths",
		Action: func(c *cli.Context) error {
			return outputJSON(c.App.Writer, ops.List(e.store, e.tree))
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one contact",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := strings.TrimSpace(c.Args().First())
			if id == "" {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			output, err := ops.Get(e.store, e.tree, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// pathCmd creates the path command.
func pathCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "path",
		Usage:     "Resolve a category id to its name, or levels to a display path",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "level1", Usage: "Level 1 category id"},
			&cli.StringFlag{Name: "level2", Usage: "Level 2 category id"},
			&cli.StringFlag{Name: "level3", Usage: "Level 3 category id"},
		},
		Action: func(c *cli.Context) error {
			sel := category.Selection{
				Level1: c.String("level1"),
				Level2: c.String("level2"),
				Level3: c.String("level3"),
			}

			if id := c.Args().First(); id != "" {
				return outputJSON(c.App.Writer, map[string]string{"id": id, "name": e.tree.Name(id)})
			}
			return outputJSON(c.App.Writer, map[string]string{"path": e.tree.Path(sel)})
		},
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "Print the category tree",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the tree as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("json") {
				return outputJSON(c.App.Writer, map[string]any{"categories": e.tree.Roots()})
			}
			var b strings.Builder
			e.tree.Walk(func(depth int, n category.Node) bool {
				fmt.Fprintf(&b, "%s%s (%s)\n", strings.Repeat("  ", depth-1), n.Name, n.ID)
				return true
			})
			_, err := io.WriteString(c.App.Writer, b.String())
			return err
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export contacts to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file (default: ~/.rolodex/exports/<key>-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.store, e.cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import contacts from a JSON export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Input file"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "merge", Usage: "Import mode: merge|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, e.store, e.cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: store.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := e.cfg.WebBind, e.cfg.WebPort
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv, err := web.NewServer(e.store, e.tree, e.logger, Version, bind, port)
			if err != nil {
				return outputError(err)
			}
			return web.Run(srv, e.logger)
		},
	}
}

// tuiCmd creates the tui command.
func tuiCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Run the terminal UI",
		Action: func(c *cli.Context) error {
			return tui.Run(e.store, e.tree)
		},
	}
}

// Helper functions

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var rErr *errors.RolodexError
	if stderrors.As(err, &rErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", rErr.Code, rErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if r has piped data. Readers that are not files
// (tests) always count as piped.
func stdinHasData(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readAll reads all content from r, trimming surrounding whitespace.
func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
