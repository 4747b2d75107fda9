package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/telelab"
	"github.com/aretw0/telelab/internal/presentation/graph"
	"github.com/aretw0/telelab/internal/presentation/tui"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/workflow"
)

const sessionHelp = `Commands:
  setup    arm the device with the experiment configuration
  start    compute the truth table and start polling
  restart  stop polling and clear the outputs
  send     submit the truth table
  show     print the truth table
  graph    print the workflow state diagram (Mermaid)
  quit     close the workflow and exit`

// RunSession drives one experiment workflow from line commands read from in.
// It returns when the user quits, in is exhausted or ctx is cancelled.
func RunSession(ctx context.Context, client *telelab.Client, opts RunOptions, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}

	if opts.Module >= 0 {
		if err := client.SelectModule(ctx, opts.Module); err != nil {
			return err
		}
	}

	var mu sync.Mutex
	visited := []domain.Status{domain.StatusUnconfigured}
	lastRows := -1
	hooks := domain.LifecycleHooks{
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			mu.Lock()
			visited = append(visited, e.To)
			mu.Unlock()
			fmt.Fprintln(w, tui.StatusLine(e.To))
		},
		OnPoll: func(_ context.Context, e *domain.PollEvent) {
			if e.Err != nil {
				return
			}
			mu.Lock()
			changed := e.Rows != lastRows
			lastRows = e.Rows
			mu.Unlock()
			if changed && !opts.Quiet {
				printSystemMessage(w, "%d output rows received. Type 'show' to display them.", e.Rows)
			}
		},
		OnNotify: func(_ context.Context, e *domain.NotifyEvent) {
			fmt.Fprintln(w, tui.Notice(e))
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			if e.Err == nil {
				printSystemMessage(w, "Experiment %d submitted (%d rows).", e.ExperimentID, e.Rows)
			}
		},
	}

	wf, err := client.Workflow(ctx, opts.Experiment, workflow.WithHooks(hooks))
	if err != nil {
		return err
	}
	defer wf.Close()

	render := tui.NewRenderer()
	show := func() {
		text, err := tui.RenderSnapshot(render, wf.Snapshot())
		if err != nil {
			fmt.Fprintf(w, "render failed: %v\n", err)
			return
		}
		fmt.Fprint(w, text)
	}

	exp := wf.Experiment()
	printSystemMessage(w, "Experiment %d: %s (%d inputs, %d outputs).", exp.ID, exp.Name, exp.Inputs, exp.Outputs)
	show()

	if opts.AutoStart {
		if err := wf.Setup(ctx); err != nil {
			return err
		}
		if err := wf.Start(ctx); err != nil {
			return err
		}
	} else if !opts.Quiet {
		fmt.Fprintln(w, sessionHelp)
	}

	lines := readLines(ctx, in)
	for {
		fmt.Fprint(w, "> ")
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return io.EOF
			}
			line = strings.ToLower(strings.TrimSpace(l))
		}

		var opErr error
		switch line {
		case "setup":
			opErr = wf.Setup(ctx)
		case "start":
			opErr = wf.Start(ctx)
		case "restart":
			opErr = wf.Restart(ctx)
		case "send":
			opErr = wf.Send(ctx)
		case "show", "":
			show()
		case "graph":
			mu.Lock()
			overlay := &graph.Overlay{Visited: append([]domain.Status(nil), visited...), Current: wf.Status()}
			mu.Unlock()
			fmt.Fprint(w, graph.GenerateMermaid(workflow.Transitions, overlay))
		case "help", "?":
			fmt.Fprintln(w, sessionHelp)
		case "quit", "q", "exit":
			return nil
		default:
			fmt.Fprintf(w, "unknown command %q (type 'help')\n", line)
		}

		// Remote failures were already reported by OnNotify.
		if errors.Is(opErr, domain.ErrInvalidTransition) {
			fmt.Fprintf(w, "%s is not available while %s\n", line, wf.Status())
		}
	}
}

// readLines feeds lines from in until it is exhausted or ctx is done.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
