package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/crestsearch/grepd/corpus"
	"github.com/crestsearch/grepd/search"
	"github.com/crestsearch/grepd/server"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve [path...]",
	Short: "Ingest one or more directory trees, then serve queries from stdin",
	Long: `Serve ingests every given directory tree into an in-memory corpus, then
reads queries from stdin, one per line, as "pattern" or "pattern\tfilePattern",
printing each matching line to stdout and logging each query's result
count. There is no on-disk index or
persistent server process across restarts (spec.md §1 Non-goals); serve
re-ingests from scratch every time it starts, exactly like index does.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to a TOML config file (optional)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := server.Config{}.WithDefaults()
	if serveConfigPath != "" {
		loaded, err := server.LoadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if cfg.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}

	c := corpus.New()
	c.SetAllocator(corpus.NewAllocator(cfg.ChunkSizeMB << 20))
	for _, root := range args {
		log.Printf("index %s", root)
		if err := corpus.WalkRef(c, fsRepo{}, root, nil); err != nil {
			log.Printf("%s: %v", root, err)
		}
	}
	c.Finalize()
	log.Printf("ready: %d unique files, %d chunks", c.NumFiles(), len(c.Chunks()))

	co := search.NewCoordinator(c)
	co.NumWorkers = cfg.Threads
	limiter := server.NewLimiter(cfg.QueriesPerSecond, cfg.BurstQueries)

	return serveQueries(cmd, co, limiter, cfg)
}

// serveQueries reads pattern[\tfilePattern] lines from stdin until EOF,
// running each through the coordinator under the admission limiter.
func serveQueries(cmd *cobra.Command, co *search.Coordinator, limiter *server.Limiter, cfg server.Config) error {
	ctx := context.Background()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		pattern, filePattern, _ := strings.Cut(line, "\t")

		if err := limiter.Wait(ctx); err != nil {
			log.Printf("query %q: %v", pattern, err)
			continue
		}

		opts := search.Options{
			Pattern:        pattern,
			FilePattern:    filePattern,
			MaxMatches:     cfg.DefaultMaxMatches,
			TimeoutSeconds: cfg.DefaultTimeoutSeconds,
			UseIndex:       true,
			PerformSearch:  true,
		}
		result, err := co.Run(ctx, opts)
		if err != nil {
			log.Printf("query %q: %v", pattern, err)
			continue
		}
		for _, r := range result.Results {
			for _, mc := range r.Context {
				for _, p := range mc.Paths {
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s\n", p.Path, mc.LineNumber, r.Line)
				}
			}
		}
		log.Printf("query %q: %d results, exit=%s", pattern, len(result.Results), result.ExitReason)
	}
	if err := scanner.Err(); err != nil && err != os.ErrClosed {
		return err
	}
	return nil
}
