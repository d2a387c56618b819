package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/poiesic/skillscope/analysis"
	"github.com/poiesic/skillscope/core"
	"github.com/poiesic/skillscope/reembed"
	"github.com/poiesic/skillscope/storage"
	"github.com/urfave/cli/v2"
)

// commandContext is cancelled on interrupt so long runs stop between batches.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinedArgs(c *cli.Context, what string) (string, error) {
	s := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if s == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return s, nil
}

func ingestCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := commandContext()
	defer cancel()

	stats, err := db.IngestLive(ctx, c.StringSlice("term"), c.String("location"), c.Int("max"))
	if stats != nil {
		if perr := printJSON(c.App.Writer, stats); perr != nil {
			return perr
		}
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func ingestFileCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one input file is required")
	}
	raws, err := readPostingsFile(c.Args().First())
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := commandContext()
	defer cancel()

	stats, err := db.IngestPostings(ctx, raws)
	if stats != nil {
		if perr := printJSON(c.App.Writer, stats); perr != nil {
			return perr
		}
	}
	return err
}

func searchCommand(c *cli.Context) error {
	query, err := joinedArgs(c, "query")
	if err != nil {
		return err
	}
	filters := &storage.Filters{Role: c.String("role"), Location: c.String("location")}
	if v := c.String("posted-since"); v != "" {
		filters.PostedSince, err = time.Parse(time.DateOnly, v)
		if err != nil {
			return fmt.Errorf("invalid posted-since date: %w", err)
		}
	}
	if filters.IsEmpty() {
		filters = nil
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	retriever := db.Retriever()
	top := c.Int("top")
	var hits []*core.Evidence
	if keywords := c.StringSlice("keyword"); len(keywords) > 0 {
		hits, err = retriever.HybridSearch(ctx, query, keywords, top, filters)
	} else {
		hits, err = retriever.Retrieve(ctx, query, top, filters)
	}
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Fprintf(w, "%d: %s @ %s (%d)[%0.3f]\n", i, hit.Metadata.Title, hit.Metadata.Employer, hit.PostingId, hit.Score)
		fmt.Fprintf(w, "   %s\n", preview(hit.Text, 160))
	}
	return nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func analyzeCommand(c *cli.Context) error {
	query, err := joinedArgs(c, "query")
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	maxAge := c.Duration("max-age")
	if maxAge <= 0 {
		maxAge = db.Config().Cache.MaxAge
	}
	resp, err := db.Analyzer().Analyze(context.Background(), analysis.AnalyzeRequest{
		Query:    query,
		Role:     c.String("role"),
		Location: c.String("location"),
		UseCache: !c.Bool("no-cache"),
		MaxAge:   maxAge,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if resp.NoResults != nil {
		return printJSON(c.App.Writer, resp.NoResults)
	}
	return printJSON(c.App.Writer, resp.Result)
}

func compareCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("two roles are required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.Analyzer().Compare(context.Background(), c.Args().Get(0), c.Args().Get(1), c.String("location"))
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	return printJSON(c.App.Writer, result)
}

func trendingCommand(c *cli.Context) error {
	days := c.Int("days")
	if days <= 0 {
		return fmt.Errorf("days must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := db.Analyzer().TrendingSkills(context.Background(), time.Duration(days)*24*time.Hour, c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, report)
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

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := db.Config()
	fmt.Fprintf(c.App.ErrWriter, "Store: %s\n", cfg.Store.Driver)
	fmt.Fprintf(c.App.ErrWriter, "Embedding provider: %s\n", cfg.Embedding.Provider)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(c.App.ErrWriter)

	r, err := db.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	if _, err := r.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.IngestPostings(context.Background(), samplePostings(time.Now().UTC()))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, stats)
}

func sweepCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.Sweep(context.Background(), c.Duration("older-than"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed %d postings\n", n)
	return nil
}
