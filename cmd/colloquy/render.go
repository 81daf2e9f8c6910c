package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/orchestrator"
)

var (
	promptColor  = color.New(color.FgGreen, color.Bold)
	replyColor   = color.New(color.FgWhite)
	intentColor  = color.New(color.FgCyan)
	sourceColor  = color.New(color.FgHiBlack)
	clarifyColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	scoreColor   = color.New(color.FgMagenta)
)

// printResponse writes the reply followed by its sources.
func printResponse(w io.Writer, resp *orchestrator.TurnResponse) {
	intentColor.Fprintf(w, "[%s]\n", resp.Intent)
	if resp.NeedsClarification {
		clarifyColor.Fprintln(w, resp.Reply)
	} else {
		replyColor.Fprintln(w, resp.Reply)
	}

	for _, src := range resp.Sources {
		sourceColor.Fprintf(w, "  source: %s\n", formatSource(src))
	}
}

func formatSource(src core.Source) string {
	switch src.Kind {
	case core.SourceDocument:
		if src.Page > 0 {
			return fmt.Sprintf("%s, page %d", src.Document, src.Page)
		}
		return src.Document
	case core.SourceWeb:
		if src.Title != "" {
			return fmt.Sprintf("%s <%s>", src.Title, src.URL)
		}
		return src.URL
	}
	return string(src.Kind)
}

// printResults writes raw search hits with their scores.
func printResults(w io.Writer, results []core.ScoredResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching chunks.")
		return
	}
	for i, result := range results {
		scoreColor.Fprintf(w, "%d. %.4f ", i+1, result.Score)
		sourceColor.Fprintf(w, "%s\n", formatSource(result.Source))
		text := result.Snippet
		if result.Chunk != nil {
			text = result.Chunk.Text
		}
		fmt.Fprintf(w, "   %s\n", strings.TrimSpace(text))
	}
}

func printError(w io.Writer, err error) {
	errorColor.Fprintf(w, "error: %v\n", err)
}
