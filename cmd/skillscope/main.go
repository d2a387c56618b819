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
	"time"

	"github.com/poiesic/skillscope"
	"github.com/poiesic/skillscope/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "skillscope",
		Usage: "Labor market intelligence over job postings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "Postgres connection string; selects the postgres store",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Embedding provider (fastembed, openai, huggingface, gemini, mock)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.IntFlag{
				Name:  "dimension",
				Usage: "Embedding vector dimension",
			},
			&cli.StringFlag{
				Name:  "synthesizer-model",
				Usage: "Chat model used for analyses and comparisons",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Fetch postings from live sources and ingest them",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "term",
						Aliases: []string{"t"},
						Usage:   "Search term (repeatable); defaults to configured terms",
					},
					&cli.StringFlag{
						Name:  "location",
						Usage: "Location passed to sources that support it",
					},
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum postings per source and term (0 uses config)",
					},
				},
			},
			{
				Name:      "ingest-file",
				Usage:     "Ingest postings from a JSON file",
				ArgsUsage: "<file.json>",
				Action:    ingestFileCommand,
			},
			{
				Name:      "search",
				Usage:     "Show the chunks most similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"k"},
						Usage:   "Number of hits",
						Value:   5,
					},
					&cli.StringSliceFlag{
						Name:  "keyword",
						Usage: "Boost hits containing keyword (repeatable); enables hybrid search",
					},
					&cli.StringFlag{Name: "role", Usage: "Filter by title"},
					&cli.StringFlag{Name: "location", Usage: "Filter by location"},
					&cli.StringFlag{Name: "posted-since", Usage: "Keep postings dated on or after this day (YYYY-MM-DD)"},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Analyze the skills demanded for a query",
				ArgsUsage: "<query>",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role", Usage: "Filter by title"},
					&cli.StringFlag{Name: "location", Usage: "Filter by location"},
					&cli.BoolFlag{Name: "no-cache", Usage: "Ignore cached analyses"},
					&cli.DurationFlag{Name: "max-age", Usage: "Accept cached analyses up to this age (0 uses config)"},
				},
			},
			{
				Name:      "compare",
				Usage:     "Compare the skill demands of two roles",
				ArgsUsage: "<role-a> <role-b>",
				Action:    compareCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Usage: "Filter by location"},
				},
			},
			{
				Name:   "trending",
				Usage:  "Report skills trending across recent analyses",
				Action: trendingCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Usage: "Window in days", Value: 30},
					&cli.IntFlag{Name: "limit", Usage: "Number of skills", Value: 20},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute every chunk vector with the configured embedder",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of postings to process in each batch",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N postings",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Ingest a built-in set of sample postings",
				Action: seedCommand,
			},
			{
				Name:   "sweep",
				Usage:  "Delete postings ingested before a cutoff",
				Action: sweepCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Remove postings ingested longer ago than this",
						Value: 90 * 24 * time.Hour,
					},
				},
			},
		},
	}
}

// loadConfig reads configuration and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, err
	}

	if v := c.String("db"); v != "" {
		cfg.Store.Driver = config.DriverBadger
		cfg.Store.Path = v
	}
	if v := c.String("dsn"); v != "" {
		cfg.Store.Driver = config.DriverPostgres
		cfg.Store.DSN = v
	}
	if v := c.String("provider"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := c.String("embedding-host"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := c.String("embedding-model"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := c.Int("dimension"); v > 0 {
		cfg.Embedding.Dimension = v
	}
	if v := c.String("synthesizer-model"); v != "" {
		cfg.Synthesizer.Model = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(c *cli.Context) (*skillscope.Database, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	db, err := skillscope.Open(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
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
