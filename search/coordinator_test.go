package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crestsearch/grepd/corpus"
)

func buildCorpus(t *testing.T, files map[string]string) *corpus.Corpus {
	t.Helper()
	c := corpus.New()
	c.SetAllocator(corpus.NewAllocator(corpus.DefaultChunkSize))
	for path, content := range files {
		require.NoError(t, c.Ingest(path, []byte(content), "main", corpus.Path(path)))
	}
	c.Finalize()
	return c
}

func TestCoordinatorFindsLiteralMatch(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.go": "package main\n\nfunc HelloWorld() {}\n",
		"b.go": "package main\n\nfunc Goodbye() {}\n",
	})
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{Pattern: "HelloWorld", UseIndex: true, PerformSearch: true})
	require.NoError(t, err)
	require.Equal(t, ExitNone, res.ExitReason)
	require.Len(t, res.Results, 1)
	r := res.Results[0]
	require.Equal(t, "func HelloWorld() {}", string(r.Line))
	require.Equal(t, 5, r.MatchLeft)
	require.Equal(t, 15, r.MatchRight)
	require.Len(t, r.Context, 1)
	require.Equal(t, corpus.Path("a.go"), r.Context[0].Paths[0].Path)
}

func TestCoordinatorUnfilteredMatchesFilteredWalk(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.go": "package main\n\nfunc HelloWorld() {}\n",
		"b.go": "package main\n\nfunc Goodbye() {}\n",
	})
	co := NewCoordinator(c)

	filtered, err := co.Run(context.Background(), Options{Pattern: "func \\w+", UseIndex: true, PerformSearch: true, MaxMatches: 100})
	require.NoError(t, err)
	unfiltered, err := co.Run(context.Background(), Options{Pattern: "func \\w+", UseIndex: false, PerformSearch: true, MaxMatches: 100})
	require.NoError(t, err)

	require.Equal(t, len(unfiltered.Results), len(filtered.Results))
}

func TestCoordinatorFilePatternRestrictsResults(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.go":   "TODO fix this\n",
		"a.md":   "TODO write docs\n",
		"b.txt":  "TODO cleanup\n",
	})
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{
		Pattern:     "TODO",
		FilePattern: `\.go$`,
		UseIndex:    true,
		PerformSearch: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Equal(t, corpus.Path("a.go"), res.Results[0].Context[0].Paths[0].Path)
}

func TestCoordinatorMatchLimitStopsEarly(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 20; i++ {
		name := string(rune('a' + i))
		files[name+".txt"] = "needle " + name + "\n"
	}
	c := buildCorpus(t, files)
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{Pattern: "needle", UseIndex: true, PerformSearch: true, MaxMatches: 5})
	require.NoError(t, err)
	require.Len(t, res.Results, 5)
	require.Equal(t, ExitMatchLimit, res.ExitReason)
}

func TestCoordinatorContextLinesAroundMatch(t *testing.T) {
	c := buildCorpus(t, map[string]string{
		"a.txt": "one\ntwo\nthree\nneedle\nfive\nsix\nseven\n",
	})
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{Pattern: "needle", UseIndex: true, PerformSearch: true})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	ctx := res.Results[0].Context[0]
	require.Equal(t, [][]byte{[]byte("one"), []byte("two"), []byte("three")}, ctx.ContextBefore)
	require.Equal(t, [][]byte{[]byte("five"), []byte("six"), []byte("seven")}, ctx.ContextAfter)
	require.Equal(t, 4, ctx.LineNumber)
}

func TestCoordinatorNoMatchReturnsEmpty(t *testing.T) {
	c := buildCorpus(t, map[string]string{"a.txt": "hello world\n"})
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{Pattern: "zzz_not_found", UseIndex: true, PerformSearch: true})
	require.NoError(t, err)
	require.Empty(t, res.Results)
	require.Equal(t, ExitNone, res.ExitReason)
}

func TestCoordinatorIgnoreCase(t *testing.T) {
	c := buildCorpus(t, map[string]string{"a.txt": "Hello World\n"})
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{Pattern: "hello", IgnoreCase: true, UseIndex: true, PerformSearch: true})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
}

func TestCoordinatorFilesWithMatchesCollapsesLines(t *testing.T) {
	c := buildCorpus(t, map[string]string{"a.txt": "needle one\nneedle two\n"})
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{Pattern: "needle", UseIndex: true, PerformSearch: true, FilesWithMatches: true})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
}

func TestCoordinatorPerformSearchFalseReturnsNoResults(t *testing.T) {
	c := buildCorpus(t, map[string]string{"a.txt": "needle\n"})
	co := NewCoordinator(c)

	res, err := co.Run(context.Background(), Options{Pattern: "needle", UseIndex: true, PerformSearch: false})
	require.NoError(t, err)
	require.Empty(t, res.Results)
}

func TestCoordinatorPanicsBeforeFinalize(t *testing.T) {
	c := corpus.New()
	c.SetAllocator(corpus.NewAllocator(corpus.DefaultChunkSize))
	co := NewCoordinator(c)
	require.Panics(t, func() {
		_, _ = co.Run(context.Background(), Options{Pattern: "x"})
	})
}

func TestCoordinatorBadPatternErrors(t *testing.T) {
	c := buildCorpus(t, map[string]string{"a.txt": "x\n"})
	co := NewCoordinator(c)
	_, err := co.Run(context.Background(), Options{Pattern: "("})
	require.Error(t, err)
}
