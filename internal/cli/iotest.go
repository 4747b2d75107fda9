package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/iotester"
)

// RunIOTest watches the device inputs and toggles relays typed as numbers (1-8).
func RunIOTest(ctx context.Context, tester *iotester.Tester, period time.Duration, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}

	var mu sync.Mutex
	var last string
	handle := tester.Watch(ctx, period, func(inputs []int) {
		line := formatInputs(inputs)
		mu.Lock()
		defer mu.Unlock()
		if line == last {
			return
		}
		last = line
		fmt.Fprintf(w, "inputs: %s\n", line)
	})
	defer handle.Stop()

	printSystemMessage(w, "Type a relay number (1-%d) to toggle it, 'relays' to list them, 'quit' to exit.", domain.RelayCount)

	lines := readLines(ctx, in)
	for {
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

		switch line {
		case "":
		case "quit", "q", "exit":
			return nil
		case "relays":
			fmt.Fprintf(w, "relays: %s\n", formatRelays(tester.Relays()))
		default:
			relay, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintf(w, "unknown command %q\n", line)
				continue
			}
			on, err := tester.Toggle(ctx, relay)
			if err != nil {
				fmt.Fprintf(w, "relay %d: %v\n", relay, err)
				continue
			}
			state := "off"
			if on {
				state = "on"
			}
			fmt.Fprintf(w, "relay %d %s\n", relay, state)
		}
	}
}

func formatInputs(inputs []int) string {
	if inputs == nil {
		return "loading..."
	}
	parts := make([]string, len(inputs))
	for i, v := range inputs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func formatRelays(relays []bool) string {
	var sb strings.Builder
	for i, on := range relays {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if on {
			fmt.Fprintf(&sb, "%d:on", i+1)
		} else {
			fmt.Fprintf(&sb, "%d:off", i+1)
		}
	}
	return sb.String()
}
