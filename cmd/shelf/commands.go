package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"shelf/internal/book"
	"shelf/internal/config"
	"shelf/internal/library"
	"shelf/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	out         io.Writer
	errOut      io.Writer
	server      string
	sessionPath string

	log    *zap.Logger
	client *library.Client
	view   *library.View
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "shelf",
		Short:         "Track the books you read",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	config.LoadEnvFiles()
	root.PersistentFlags().StringVar(&a.server, "server", envOr("SHELF_API", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&a.sessionPath, "session-file", defaultSessionPath(), "where the sign-in token is kept")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.meCmd(),
		a.listCmd(),
		a.statsCmd(),
		a.addCmd(),
		a.editCmd(),
		a.cycleCmd(),
		a.rmCmd(),
		a.searchCmd(),
		a.insightsCmd(),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (a *app) setup() error {
	a.log = logger.New(logger.Options{Level: "warn", Console: a.errOut})
	session := loadSession(a.sessionPath, a.log)
	a.client = library.NewClient(a.server, session)
	a.view = library.NewView(a.client)
	return nil
}

// explain turns a signed-out error into a hint for the user.
func explain(err error) error {
	if errors.Is(err, library.ErrUnauthenticated) {
		return fmt.Errorf("%w: run 'shelf login <email> <password>'", err)
	}
	return err
}

func (a *app) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Register(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", u.Email)
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", u.Email)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored sign-in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.client.Logout()
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func (a *app) meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Me(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(a.out, "%s\t%s\n", u.ID, u.Email)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var filter, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := library.ParseFilter(filter)
			if err != nil {
				return err
			}
			if err := a.view.Refresh(cmd.Context()); err != nil {
				return explain(err)
			}
			a.view.SetFilter(f)
			a.view.SetSearch(search)
			a.printBooks(a.view.FilteredBooks())
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, toRead, currentlyReading or completed")
	cmd.Flags().StringVar(&search, "search", "", "match title, author or genre")
	return cmd
}

func (a *app) printBooks(books []book.Book) {
	if len(books) == 0 {
		fmt.Fprintln(a.out, "No books found.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tSTATUS")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.Genre, b.Status)
	}
	_ = tw.Flush()
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count books by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.view.Refresh(cmd.Context()); err != nil {
				return explain(err)
			}
			s := a.view.Stats()
			fmt.Fprintf(a.out, "Total: %d\nTo read: %d\nReading: %d\nCompleted: %d\n",
				s.Total, s.ToRead, s.CurrentlyReading, s.Completed)
			return nil
		},
	}
}

func bookFlags(cmd *cobra.Command, in *library.BookInput, status *string) {
	cmd.Flags().StringVar(&in.Title, "title", "", "book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "book author")
	cmd.Flags().StringVar(&in.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(status, "status", "", "toRead, currentlyReading or completed")
	cmd.Flags().StringVar(&in.CoverURL, "cover", "", "cover image URL")
}

// reportRefresh prints a warning when the change went through but the list
// could not be reloaded, and returns any other error.
func (a *app) reportRefresh(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, library.ErrRefreshFailed) {
		fmt.Fprintln(a.errOut, "warning: saved, but the list could not be reloaded:", err)
		return nil
	}
	return explain(err)
}

func (a *app) addCmd() *cobra.Command {
	var in library.BookInput
	var status string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Status = book.Status(status)
			b, err := a.view.Create(cmd.Context(), in)
			if err != nil && !errors.Is(err, library.ErrRefreshFailed) {
				return explain(err)
			}
			fmt.Fprintf(a.out, "Added %q (%s)\n", b.Title, b.ID)
			return a.reportRefresh(err)
		},
	}
	bookFlags(cmd, &in, &status)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var in library.BookInput
	var status string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a book; omitted fields keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Status = book.Status(status)
			b, err := a.view.Update(cmd.Context(), args[0], in)
			if err != nil && !errors.Is(err, library.ErrRefreshFailed) {
				return explain(err)
			}
			fmt.Fprintf(a.out, "Updated %q\n", b.Title)
			return a.reportRefresh(err)
		},
	}
	bookFlags(cmd, &in, &status)
	return cmd
}

func (a *app) findBook(cmd *cobra.Command, id string) (book.Book, error) {
	if err := a.view.Refresh(cmd.Context()); err != nil {
		return book.Book{}, explain(err)
	}
	for _, b := range a.view.Books() {
		if b.ID == id {
			return b, nil
		}
	}
	return book.Book{}, book.ErrNotFound
}

func (a *app) cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <id>",
		Short: "Move a book to its next reading status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.findBook(cmd, args[0])
			if err != nil {
				return err
			}
			updated, err := a.view.CycleStatus(cmd.Context(), b)
			if err != nil && !errors.Is(err, library.ErrRefreshFailed) {
				return explain(err)
			}
			fmt.Fprintf(a.out, "%q is now %s\n", updated.Title, updated.Status)
			return a.reportRefresh(err)
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.view.Delete(cmd.Context(), args[0]); err != nil && !errors.Is(err, library.ErrRefreshFailed) {
				return explain(err)
			}
			fmt.Fprintln(a.out, "Book removed")
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var add int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the book catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := a.client.SearchCatalog(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return explain(err)
			}
			if len(candidates) == 0 {
				fmt.Fprintln(a.out, "No results.")
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for i, c := range candidates {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, c.Title, c.Author, c.Genre)
			}
			_ = tw.Flush()

			if add == 0 {
				return nil
			}
			if add < 1 || add > len(candidates) {
				return fmt.Errorf("--add must be between 1 and %d", len(candidates))
			}
			b, err := a.view.Create(cmd.Context(), library.Prefill(candidates[add-1]))
			if err != nil && !errors.Is(err, library.ErrRefreshFailed) {
				return explain(err)
			}
			fmt.Fprintf(a.out, "Added %q (%s)\n", b.Title, b.ID)
			return a.reportRefresh(err)
		},
	}
	cmd.Flags().IntVar(&add, "add", 0, "add result number N to your library")
	return cmd
}

func (a *app) insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights <id>",
		Short: "Summary, themes and related reading for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.findBook(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := a.view.Insights(cmd.Context(), b)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintln(a.out, res.Insight)
			if len(res.Sources) > 0 {
				fmt.Fprintln(a.out, "\nSources:")
				for i, s := range res.Sources {
					fmt.Fprintf(a.out, "  %d. %s <%s>\n", i+1, s.Title, s.URI)
				}
			}
			return nil
		},
	}
}
