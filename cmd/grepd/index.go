package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/crestsearch/grepd/corpus"
)

var indexChunkSizeMB int

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Ingest one or more directory trees into an in-memory corpus",
	Long: `Index walks each given directory tree and ingests every regular file
into an in-memory corpus, reporting how many unique files and chunks
resulted. grepd never persists an index to disk (see spec.md §1
Non-goals); this subcommand exists to exercise and time ingestion on its
own, without also starting a query server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexChunkSizeMB, "chunk-size-mb", 4, "chunk allocator capacity, in megabytes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	c := corpus.New()
	c.SetAllocator(corpus.NewAllocator(indexChunkSizeMB << 20))

	for _, root := range args {
		log.Printf("index %s", root)
		if err := corpus.WalkRef(c, fsRepo{}, root, nil); err != nil {
			log.Printf("%s: %v", root, err)
		}
	}

	c.Finalize()
	log.Printf("done: %d unique files, %d chunks", c.NumFiles(), len(c.Chunks()))
	return nil
}
