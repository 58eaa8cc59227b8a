// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/passagedb"
	"github.com/poiesic/passagedb/ai"
	"github.com/poiesic/passagedb/core"
	"github.com/poiesic/passagedb/ingestion"
	"github.com/poiesic/passagedb/storage"
)

func main() {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to the index database file",
		Required: true,
	}

	app := &cli.App{
		Name:  "passagedb",
		Usage: "Passage index and hybrid retrieval for legal documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a document file into the index",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.StringFlag{
						Name:  "extractor-model",
						Usage: "Passage extraction model name",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for embedding batches",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search over indexed passages",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   10,
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Restrict results to these categories (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "document",
						Usage: "Restrict results to these document IDs (repeatable)",
					},
				},
			},
			{
				Name:   "documents",
				Usage:  "List ingested documents",
				Action: documentsCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of documents to list",
						Value: 100,
					},
				},
			},
			{
				Name:      "passages",
				Usage:     "List the passages of a document",
				ArgsUsage: "<document-id>",
				Action:    passagesCommand,
				Flags:     []cli.Flag{dbFlag},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*passagedb.DB, error) {
	var opts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("extractor-model"); model != "" {
		opts = append(opts, ai.WithExtractorModel(model))
	}

	cfg := ai.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return passagedb.Open(c.String("db"), passagedb.WithAIConfig(cfg))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	filename := c.Args().First()

	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var pipelineOpts []ingestion.Option
	if size := c.Int("pool-size"); size > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(size))
	}
	pipeline, err := db.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	doc, err := pipeline.IngestDocument(context.Background(), raw, filename)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", filename, err)
	}

	fmt.Printf("Ingested %s\n", filename)
	fmt.Printf("  Document ID: %s\n", doc.DocumentID)
	fmt.Printf("  Pages:       %d\n", doc.PageCount)
	fmt.Printf("  Passages:    %d\n", doc.PassageCount)
	fmt.Printf("  Categories:  %s\n", joinCategories(doc.CategoriesFound))
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}
	query := c.Args().First()

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	filters := storage.Filters{
		DocumentIDs: c.StringSlice("document"),
	}
	for _, name := range c.StringSlice("category") {
		filters.Categories = append(filters.Categories, core.CategoryFromString(name))
	}

	hits, err := db.Search(context.Background(), query, filters, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, hit := range hits {
		fmt.Printf("%2d. [%.4f] %s (doc %s, page %d)\n",
			i+1, hit.FusionScore, hit.Passage.Category, hit.Passage.DocumentID, hit.Passage.PageNumber)
		fmt.Printf("    %s\n", hit.Passage.Text)
		for _, h := range hit.Highlights {
			fmt.Printf("    > %s\n", h)
		}
	}
	return nil
}

func documentsCommand(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	docs, err := db.ListDocuments(context.Background(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s  %s  pages=%d passages=%d  [%s]\n",
			doc.DocumentID, doc.Filename, doc.PageCount, doc.PassageCount,
			joinCategories(doc.CategoriesFound))
	}
	return nil
}

func passagesCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document-id argument")
	}
	documentID := c.Args().First()

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	passages, err := db.GetPassages(context.Background(), documentID)
	if err != nil {
		return fmt.Errorf("get passages: %w", err)
	}

	if len(passages) == 0 {
		fmt.Println("No passages.")
		return nil
	}
	for _, p := range passages {
		fmt.Printf("[%d:%d] page %d  %s  conf=%.2f\n",
			p.CharStart, p.CharEnd, p.PageNumber, p.Category, p.Confidence)
		fmt.Printf("  %s\n", p.Text)
	}
	return nil
}

func joinCategories(categories []core.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
