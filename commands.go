package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/vinizap/studydock/app"
	"github.com/vinizap/studydock/auth"
	"github.com/vinizap/studydock/config"
	"github.com/vinizap/studydock/filesystem"
	api "github.com/vinizap/studydock/http"
	"github.com/vinizap/studydock/logging"
	"github.com/vinizap/studydock/search"
)

const shutdownTimeout = 10 * time.Second

var (
	envFile string
	cfg     config.Config
	logger  zerolog.Logger

	rootCmd = &cobra.Command{
		Use:          "studydock",
		Short:        "Local-first notes and folders with search and toasts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return err
			}
			logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE:  runServe,
	}

	folderCmd = &cobra.Command{
		Use:   "folder",
		Short: "Manage folders",
	}
	folderAddCmd = &cobra.Command{
		Use:   "add [name]",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runFolderAdd,
	}
	folderListCmd = &cobra.Command{
		Use:   "list",
		Short: "List folders with their note counts",
		RunE:  runFolderList,
	}
	folderDeleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runFolderDelete,
	}

	noteCmd = &cobra.Command{
		Use:   "note",
		Short: "Manage notes",
	}
	noteAddCmd = &cobra.Command{
		Use:   "add [title]",
		Short: "Create a note, in the default folder unless --folder is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runNoteAdd,
	}
	noteListCmd = &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		RunE:  runNoteList,
	}
	noteUpdateCmd = &cobra.Command{
		Use:   "update [id] [title]",
		Short: "Rewrite a note's title and content",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runNoteUpdate,
	}
	noteDeleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE:  runNoteDelete,
	}
	noteFolder  string
	noteContent string

	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Search note titles, note content and folder names",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSearch,
	}
	searchWatch bool

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write every note as markdown with YAML frontmatter",
		RunE:  runExport,
	}
	exportDir string

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Add notes from a tree written by export",
		RunE:  runImport,
	}
	importDir string

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "API token helpers",
	}
	tokenHashCmd = &cobra.Command{
		Use:   "hash [secret]",
		Short: "Print a bcrypt hash usable as STUDYDOCK_PASSWORD",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenHash,
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Remove every stored folder and note",
		RunE:  runReset,
	}
	resetConfirm bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	folderCmd.AddCommand(folderAddCmd, folderListCmd, folderDeleteCmd)

	noteAddCmd.Flags().StringVar(&noteFolder, "folder", "", "folder id")
	noteAddCmd.Flags().StringVar(&noteContent, "content", "", "note body")
	noteListCmd.Flags().StringVar(&noteFolder, "folder", "", "only list notes in this folder")
	noteUpdateCmd.Flags().StringVar(&noteContent, "content", "", "note body")
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteUpdateCmd, noteDeleteCmd)

	searchCmd.Flags().BoolVar(&searchWatch, "watch", false, "read queries from stdin, one per line, with debounce")

	exportCmd.Flags().StringVar(&exportDir, "dir", "./export", "destination directory")
	importCmd.Flags().StringVar(&importDir, "dir", "./export", "source directory")

	tokenCmd.AddCommand(tokenHashCmd)

	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm the reset")

	rootCmd.AddCommand(serveCmd, folderCmd, noteCmd, searchCmd, exportCmd, importCmd, tokenCmd, resetCmd)
}

// withApp opens the stores for the duration of fn.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("close storage")
		}
	}()
	return fn(a)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app.App) error {
		go a.Hub.Run(ctx)

		server := api.NewServer(a.Folders, a.Notes, a.Relay, a.Hub, a.KV, logger)
		web := api.NewApp(server, cfg.Password, a.Registry)

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("port", cfg.Port).Str("driver", cfg.Driver).Msg("server starting")
			errCh <- web.Listen(":" + cfg.Port)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down")
		return web.ShutdownWithTimeout(shutdownTimeout)
	})
}

func runFolderAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		f := a.Folders.Add(cmd.Context(), args[0])
		fmt.Fprintln(cmd.OutOrStdout(), f.ID)
		return nil
	})
}

func runFolderList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tNOTES\tUPDATED")
		for _, f := range a.Folders.List() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.ID, f.Name, f.NoteCount, f.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}

func runFolderDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		if !a.Folders.Delete(cmd.Context(), args[0]) {
			return fmt.Errorf("folder %s not found", args[0])
		}
		return nil
	})
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	title := ""
	if len(args) > 0 {
		title = args[0]
	}
	return withApp(cmd.Context(), func(a *app.App) error {
		n := a.Notes.Add(cmd.Context(), title, noteContent, noteFolder)
		if msg := a.Notes.Err(); msg != "" {
			return errors.New(msg)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.ID)
		return nil
	})
}

func runNoteList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		notes := a.Notes.List()
		if noteFolder != "" {
			notes = a.Notes.ByFolder(noteFolder)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tFOLDER\tUPDATED")
		for _, n := range notes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Title, n.FolderID, n.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}

func runNoteUpdate(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		current, ok := a.Notes.Get(args[0])
		if !ok {
			return fmt.Errorf("note %s not found", args[0])
		}
		title, content := current.Title, current.Content
		if len(args) > 1 {
			title = args[1]
		}
		if cmd.Flags().Changed("content") {
			content = noteContent
		}
		_, err := a.Notes.Update(cmd.Context(), args[0], title, content)
		return err
	})
}

func runNoteDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		return a.Notes.Delete(cmd.Context(), args[0])
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	if !searchWatch && len(args) == 0 {
		return errors.New("a query is required unless --watch is set")
	}
	return withApp(cmd.Context(), func(a *app.App) error {
		if searchWatch {
			return watchSearch(cmd, a)
		}
		printResults(cmd.OutOrStdout(), search.Run(a.Notes.List(), a.Folders.List(), args[0]))
		return nil
	})
}

// watchSearch treats each input line as the query typed so far and prints
// results once the debounce settles. A blank line clears the search.
func watchSearch(cmd *cobra.Command, a *app.App) error {
	ctx := cmd.Context()
	x := a.NewSearch()
	defer x.Clear()

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			x.Clear()
			fmt.Fprintln(out, "cleared")
			continue
		}
		x.SetQuery(q)
		if err := x.Wait(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "> %s\n", x.DebouncedQuery())
		printResults(out, x.Results())
	}
	return scanner.Err()
}

func printResults(out io.Writer, res search.Results) {
	if !res.HasResults {
		fmt.Fprintln(out, "no results")
		return
	}
	for _, f := range res.Folders {
		fmt.Fprintf(out, "folder  %s  %s\n", f.ID, f.Name)
	}
	for _, n := range res.Notes {
		fmt.Fprintf(out, "note    %s  %s\n", n.ID, n.Title)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		sum, err := filesystem.Export(exportDir, a.Folders.List(), a.Notes.List())
		if err != nil {
			return err
		}
		logger.Info().Str("dir", exportDir).Int("folders", sum.Folders).Int("notes", sum.Notes).Msg("export complete")
		return nil
	})
}

// runImport adds every note as new. Exported folder names select folders,
// which are created when missing, so same-named folders merge; unfiled
// notes go to the default folder.
func runImport(cmd *cobra.Command, args []string) error {
	tree, err := filesystem.ReadTree(importDir)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	return withApp(ctx, func(a *app.App) error {
		imported := 0
		for name, notes := range tree {
			folderID := ""
			if name != "" && len(notes) > 0 {
				f, ok := a.Folders.FindByName(name)
				if !ok {
					f = a.Folders.Add(ctx, name)
				}
				folderID = f.ID
			}
			for _, n := range notes {
				a.Notes.Add(ctx, n.Title, n.Content, folderID)
				imported++
			}
		}
		if msg := a.Notes.Err(); msg != "" {
			return errors.New(msg)
		}
		logger.Info().Str("dir", importDir).Int("notes", imported).Msg("import complete")
		fmt.Fprintln(cmd.OutOrStdout(), imported)
		return nil
	})
}

func runTokenHash(cmd *cobra.Command, args []string) error {
	hash, err := auth.HashToken(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetConfirm {
		return errors.New("refusing to reset without --yes")
	}
	return withApp(cmd.Context(), func(a *app.App) error {
		if err := a.KV.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear storage: %w", err)
		}
		logger.Warn().Str("driver", cfg.Driver).Msg("storage cleared")
		return nil
	})
}
