package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/skphelp/internal/adapters/file"
	"github.com/aretw0/skphelp/internal/graph"
	"github.com/aretw0/skphelp/internal/presentation/tui"
	"github.com/aretw0/skphelp/pkg/adapters/memory"
	"github.com/aretw0/skphelp/pkg/directory"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/aretw0/skphelp/pkg/session"
	"github.com/aretw0/skphelp/pkg/troubleshoot"
)

// DiagnoseOptions contains all the configuration for the diagnose command.
type DiagnoseOptions struct {
	// GraphFile overrides the embedded decision tree.
	GraphFile string
	// SessionID makes the walk resumable: it is persisted under SessionDir.
	// Without it the session lives in memory only.
	SessionID  string
	SessionDir string
	// Fresh discards a stored session before resuming it.
	Fresh   bool
	Debug   bool
	Plain   bool
	Version string

	In  io.Reader
	Out io.Writer
}

// Diagnose runs an interactive troubleshooting session on the terminal.
func Diagnose(ctx context.Context, opts DiagnoseOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := createLogger(opts.Debug)

	doc, err := graph.Open(opts.GraphFile)
	if err != nil {
		return fmt.Errorf("error loading decision tree: %w", err)
	}

	var store ports.StateStore = memory.NewStore()
	if opts.SessionID != "" {
		fs := file.New(opts.SessionDir)
		if opts.Fresh {
			_ = fs.Delete(ctx, opts.SessionID)
		}
		store = fs
	}

	svc := troubleshoot.New(doc.Graph, directory.New(doc.Contacts),
		session.NewManager(store, session.WithLogger(logger)),
		troubleshoot.WithLogger(logger),
		troubleshoot.WithLifecycleHooks(createDebugHooks(logger)),
	)

	interactive := !opts.Plain && isTerminalWriter(opts.Out)
	consoleOpts := []ConsoleOption{}
	if interactive {
		tui.PrintBanner(opts.Out, opts.Version)
		consoleOpts = append(consoleOpts, WithRenderer(tui.NewRenderer()))
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	in := NewInterruptibleReader(opts.In, sigCtx.Done())
	console := NewConsole(svc, in, opts.Out, consoleOpts...)

	if opts.SessionID != "" {
		printSystemMessage(opts.Out, "Sesi '%s' aktif.", opts.SessionID)
	}

	view, runErr := console.Run(sigCtx, opts.SessionID)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	nodeID := doc.Graph.Root()
	if view != nil {
		nodeID = view.Node.ID
	}
	logCompletion(opts.Out, nodeID, runErr, sigCtx.Signal())

	return handleExecutionError(runErr)
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
