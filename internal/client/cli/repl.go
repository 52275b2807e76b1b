package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
)

var errUnknownCommand = errors.New("unknown command")

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// commandContext scopes one command: Ctrl-C cancels the running command
// instead of killing the REPL.
var commandContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Exec(ctx context.Context, name string, args []string) error
	Help() string
}

// runREPL reads one line at a time from in, treats the first token as
// the command and dispatches it to a. The loop exits on EOF, on "exit" or
// "quit", or when ctx is done.
//
// A line starting with "?" is shorthand for "ask". Command errors are
// printed and never end the loop.
//
// in is shared with the interactive prompts of individual commands, so it
// must be the same reader the App was built with.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("la %s > ", statusFn()))
		raw, err := in.ReadString('\n')
		if err != nil && raw == "" {
			return
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "?"); ok {
			line = "ask " + rest
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(a.Help())
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		cmdCtx, stop := commandContext(ctx)
		err = a.Exec(cmdCtx, cmd, args)
		stop()

		switch {
		case err == nil:
		case errors.Is(err, errUnknownCommand):
			printlnFn("Unknown command:", cmd, "(type 'help')")
		case errors.Is(err, context.Canceled) && ctx.Err() == nil:
			printlnFn(renderWarning("cancelled"))
		default:
			printlnFn(renderError(errorText(err)))
		}
	}
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// leaves.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn(titleStyle.Render("learnassist") + mutedStyle.Render(" (type 'help' for commands, '?question' to chat)"))
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
