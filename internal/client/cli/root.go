package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/learnassist/internal/client/config"
	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/spf13/cobra"
)

// buildApp is a test seam for NewApp.
var buildApp = NewApp

// NewRootCmd builds the learnassist command tree. Without a subcommand the
// interactive REPL starts.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "learnassist",
		Short:         "AI learning assistant for course files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runInteractive,
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(newREPLCmd())
	root.AddCommand(newCoursesCmd())
	root.AddCommand(newUploadCmd())
	root.AddCommand(newAskCmd())
	root.AddCommand(newAnalyzeCmd())
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), renderError(errorText(err)))
		return 1
	}
	return 0
}

func newREPLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE:  runInteractive,
	}
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	// SIGINT is scoped per command inside the REPL; only SIGTERM ends it.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	return withApp(ctx, cmd, func(ctx context.Context, a *App) error {
		a.Run(ctx)
		return nil
	})
}

func newCoursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: oneShot(func(ctx context.Context, a *App, _ []string) error {
			return a.ListCourses(ctx, nil)
		}),
	}
}

func newUploadCmd() *cobra.Command {
	var course string
	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload files into a course",
		Args:  cobra.MinimumNArgs(1),
		RunE: oneShot(func(ctx context.Context, a *App, args []string) error {
			if err := a.useIfSet(ctx, course); err != nil {
				return err
			}
			return a.Upload(ctx, args)
		}),
	}
	cmd.Flags().StringVar(&course, "course", "", "target course id (default: last used)")
	return cmd
}

func newAskCmd() *cobra.Command {
	var (
		course string
		files  []string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant, optionally about selected files",
		Args:  cobra.MinimumNArgs(1),
		RunE: oneShot(func(ctx context.Context, a *App, args []string) error {
			if err := a.useIfSet(ctx, course); err != nil {
				return err
			}
			if len(files) > 0 {
				if _, err := a.collections.LoadFiles(ctx, ""); err != nil {
					return err
				}
				if err := a.SelectFiles(ctx, files); err != nil {
					return err
				}
			}
			return a.Ask(ctx, args)
		}),
	}
	cmd.Flags().StringVar(&course, "course", "", "course id")
	cmd.Flags().StringSliceVar(&files, "files", nil, "file ids or #n indexes to ask about")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze a local pdf, audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: oneShot(func(ctx context.Context, a *App, args []string) error {
			return a.Analyze(ctx, append(args, strings.Fields(prompt)...))
		}),
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "extra instructions for the analysis")
	return cmd
}

func (a *App) useIfSet(ctx context.Context, course string) error {
	if course == "" {
		return nil
	}
	if err := a.collections.Use(course); err != nil {
		return err
	}
	return a.session.Remember(ctx)
}

// oneShot runs fn with Ctrl-C cancelling it and prints the messages fn
// produced.
func oneShot(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withApp(ctx, cmd, func(ctx context.Context, a *App) error {
			err := fn(ctx, a, args)
			a.flushMessages()
			return err
		})
	}
}

func withApp(ctx context.Context, cmd *cobra.Command, fn func(context.Context, *App) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	log, closeLog, err := openLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.out = cmd.OutOrStdout()
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "close app", "error", err)
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func openLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logging.NewTextLogger(stderr, cfg.LogLevel), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewTextLogger(f, cfg.LogLevel), func() { _ = f.Close() }, nil
}
