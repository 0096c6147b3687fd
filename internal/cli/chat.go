package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/internal/presentation/tui"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/aretw0/switchboard/pkg/registry"
)

// ChatEngine is the subset of the engine used by the chat loop.
type ChatEngine interface {
	RunTurn(ctx context.Context, conversationID, message string) (*domain.TurnResult, error)
	Snapshot(ctx context.Context, conversationID string) (*domain.Snapshot, error)
	Registry() *registry.Registry
}

// ChatOptions configures the interactive chat.
type ChatOptions struct {
	ConversationID string
	Render         func(string) (string, error) // nil prints messages verbatim
	Verbose        bool                         // print the activity log of each turn
	JSON           bool                         // one TurnResult JSON object per line
}

// Chat reads one message per line from in until EOF, "/quit" or ctx is done.
//
// Slash commands: /new starts over, /state prints the stored conversation,
// /graph prints the topology with the conversation overlay.
func Chat(ctx context.Context, eng ChatEngine, in io.Reader, out io.Writer, opts ChatOptions) error {
	transcript := tui.NewTranscript(out, opts.Render, opts.Verbose)
	id := opts.ConversationID

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		readErr <- err
	}()

	show := func(res *domain.TurnResult) error {
		id = res.ConversationID
		if opts.JSON {
			return json.NewEncoder(out).Encode(res)
		}
		transcript.Print(res)
		return nil
	}

	if id != "" {
		res, err := eng.RunTurn(ctx, id, "")
		if err != nil {
			return err
		}
		if !opts.JSON {
			if res.ConversationID == id {
				printSystemMessage(out, "Resuming conversation '%s' with %s.", id, res.CurrentHandler)
			} else {
				printSystemMessage(out, "Conversation '%s' not found, started '%s'.", id, res.ConversationID)
			}
		}
		id = res.ConversationID
	}

	for {
		if !opts.JSON {
			fmt.Fprint(out, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			id = ""
			printSystemMessage(out, "Starting a new conversation.")
			continue
		case "/state":
			if err := printState(ctx, eng, id, out); err != nil {
				printSystemMessage(out, "%v", err)
			}
			continue
		case "/graph":
			fmt.Fprint(out, Graph(ctx, eng, id))
			continue
		}

		msg, err := guardrail.SanitizeInput(line)
		if err != nil {
			printSystemMessage(out, "Message rejected: %v", err)
			continue
		}

		res, err := eng.RunTurn(ctx, id, msg)
		if err != nil {
			return err
		}
		if err := show(res); err != nil {
			return err
		}
	}
}

func printState(ctx context.Context, eng ChatEngine, id string, out io.Writer) error {
	if id == "" {
		return fmt.Errorf("no conversation yet")
	}
	snap, err := eng.Snapshot(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Graph renders the handler topology, highlighting the path of conversation
// id when it exists.
func Graph(ctx context.Context, eng ChatEngine, id string) string {
	reg := eng.Registry()
	if id == "" {
		return graph.GenerateMermaid(reg, nil)
	}
	snap, err := eng.Snapshot(ctx, id)
	if err != nil {
		return graph.GenerateMermaid(reg, nil)
	}
	overlay := &graph.Overlay{Current: snap.CurrentHandler}
	for _, e := range snap.History {
		if e.Handler != "" {
			overlay.Visited = append(overlay.Visited, e.Handler)
		}
	}
	return graph.GenerateMermaid(reg, overlay)
}
