package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/orchestrator"
	"github.com/poiesic/colloquy/session"
	"github.com/urfave/cli/v2"
)

const chatHelp = `Commands:
  /web <question>  route the question to web search
  /history         show this session's turns
  /clear           forget the conversation so far
  /quit            leave`

// conversation is the part of the orchestrator the REPL drives.
type conversation interface {
	HandleTurn(ctx context.Context, req orchestrator.TurnRequest) (*orchestrator.TurnResponse, error)
	ClearSession(ctx context.Context, id string) error
	EndSession(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]core.Turn, error)
}

func chatCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	sessionID := c.String("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return runChat(ctx, engine.Orchestrator(), sessionID, os.Stdin, os.Stdout)
}

// runChat reads one message per line until EOF, /quit or cancellation.
func runChat(ctx context.Context, conv conversation, sessionID string, in io.Reader, out io.Writer) error {
	defer conv.EndSession(context.WithoutCancel(ctx), sessionID)

	fmt.Fprintf(out, "Session %s. Type /help for commands.\n", sessionID)
	scanner := bufio.NewScanner(in)
	for {
		promptColor.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		req := orchestrator.TurnRequest{SessionID: sessionID, Text: line}

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			fmt.Fprintln(out, chatHelp)
			continue
		case line == "/clear":
			if err := conv.ClearSession(ctx, sessionID); err != nil {
				printError(out, err)
			} else {
				fmt.Fprintln(out, "Conversation cleared.")
			}
			continue
		case line == "/history":
			printHistory(ctx, conv, sessionID, out)
			continue
		case strings.HasPrefix(line, "/web "):
			req.Text = strings.TrimSpace(strings.TrimPrefix(line, "/web "))
			req.ForceWebSearch = true
		}

		resp, err := conv.HandleTurn(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printError(out, err)
			continue
		}
		printResponse(out, resp)
	}
}

func printHistory(ctx context.Context, conv conversation, sessionID string, out io.Writer) {
	turns, err := conv.History(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			fmt.Fprintln(out, "No turns yet.")
			return
		}
		printError(out, err)
		return
	}
	for _, turn := range turns {
		intentColor.Fprintf(out, "%s: ", turn.Role)
		fmt.Fprintln(out, turn.Text)
	}
}
