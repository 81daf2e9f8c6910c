package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/colloquy"
	"github.com/poiesic/colloquy/ingestion"
	"github.com/poiesic/colloquy/orchestrator"
	"github.com/poiesic/colloquy/reembed"
	"github.com/urfave/cli/v2"
)

var errMissingArgument = errors.New("missing argument")

func ingestCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file is required", errMissingArgument)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	tracker := reembed.NewProgressTracker(os.Stderr, "documents", len(paths), 1)
	tracker.Start()

	var failed int
	for _, path := range paths {
		doc, err := ingestion.LoadFile(c.Context, path)
		if err != nil {
			failed++
			fmt.Fprintln(os.Stderr)
			printError(os.Stderr, fmt.Errorf("%s: %w", path, err))
			tracker.Increment(1)
			continue
		}

		saved, err := pipeline.IngestDocument(c.Context, doc)
		if err != nil {
			failed++
			fmt.Fprintln(os.Stderr)
			printError(os.Stderr, fmt.Errorf("%s: %w", path, err))
			tracker.Increment(1)
			continue
		}

		fmt.Fprintf(os.Stderr, "\nIngested %s: %d pages, %d chunks, generation %d\n",
			saved.Name, saved.Pages, saved.Chunks, saved.Generation)
		tracker.Increment(1)
	}
	tracker.Finish()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(paths))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: a question is required", errMissingArgument)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	resp, err := engine.HandleTurn(c.Context, orchestrator.TurnRequest{
		Text:           question,
		ForceWebSearch: c.Bool("web"),
	})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	}
	printResponse(os.Stdout, resp)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: a query is required", errMissingArgument)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printResults(os.Stdout, results)
	return nil
}

func documentsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Documents(c.Context)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s\t%d pages\t%d chunks\tgeneration %d\t%s\n",
			doc.Name, doc.Pages, doc.Chunks, doc.Generation, doc.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := colloquy.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	reembedder, err := engine.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	aiConfig := cfg.AIConfig()
	aiConfig.Normalize()
	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}
