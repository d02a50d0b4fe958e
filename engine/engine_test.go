package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/astrograph/engine"
	"github.com/oxhq/astrograph/index"
	golangplugin "github.com/oxhq/astrograph/plugin/golang"
	"github.com/oxhq/astrograph/plugin/registry"
)

func newTestEngine(t *testing.T) (*engine.Engine, *index.Store) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(golangplugin.New()))

	store, err := index.Open(filepath.Join(t.TempDir(), "index.db"), false)
	require.NoError(t, err)

	return engine.New(reg, store), store
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestAnalyzeFindsExactDuplicateAcrossFiles(t *testing.T) {
	e, _ := newTestEngine(t)
	root := t.TempDir()

	writeFile(t, root, "a.go", "package p\n\nfunc f(a, b, c int) int {\n\treturn a + b + c\n}\n")
	writeFile(t, root, "b.go", "package p\n\nfunc g(x, y, z int) int {\n\treturn x + y + z\n}\n")

	reportPath, summary, err := e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)
	assert.FileExists(t, reportPath)
	assert.Equal(t, 2, summary.FilesScanned)
	assert.GreaterOrEqual(t, summary.ClustersFound, 1)
}

func TestAnalyzeRefusesConcurrentWriter(t *testing.T) {
	e, store := newTestEngine(t)
	root := t.TempDir()
	writeFile(t, root, "a.go", "package p\n\nfunc f() {}\n")

	unlock, err := store.Lock()
	require.NoError(t, err)
	defer unlock()

	_, _, err = e.Analyze(context.Background(), root, engine.Options{})
	require.Error(t, err)

	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, engine.ErrKindConcurrentRunRefused, engErr.Kind)
}

func TestAnalyzeCancellationDoesNotWriteReport(t *testing.T) {
	e, _ := newTestEngine(t)
	root := t.TempDir()
	writeFile(t, root, "a.go", "package p\n\nfunc f() {}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.Analyze(ctx, root, engine.Options{})
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(root, ".metadata_astrograph"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAnalyzeRemovesEntriesForDeletedFiles(t *testing.T) {
	e, store := newTestEngine(t)
	root := t.TempDir()

	writeFile(t, root, "a.go", "package p\n\nfunc f() {}\n")
	_, _, err := e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)

	entries, err := store.AllEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	require.NoError(t, os.Remove(filepath.Join(root, "a.go")))
	writeFile(t, root, "b.go", "package p\n\nfunc g() {}\n")

	_, _, err = e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)

	entries, err = store.AllEntries()
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotEqual(t, filepath.Join(root, "a.go"), entry.FilePath)
	}
}

// TestAnalyzeClustersOperatorVariantsAsPatternOnly exercises spec scenario
// S3: two functions identical except for one binary operator (a+b vs a-b)
// must normalize to the same pattern fingerprint but keep distinct exact
// fingerprints, so they surface as exactly one pattern cluster and zero
// exact clusters.
func TestAnalyzeClustersOperatorVariantsAsPatternOnly(t *testing.T) {
	e, _ := newTestEngine(t)
	root := t.TempDir()

	writeFile(t, root, "a.go", "package p\n\nfunc f(a, b, c int) int {\n\treturn a + b + c\n}\n")
	writeFile(t, root, "b.go", "package p\n\nfunc g(x, y, z int) int {\n\treturn x - y - z\n}\n")

	reportPath, _, err := e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	text := string(report)

	assert.Equal(t, 1, strings.Count(text, "fingerprint "))
	assert.Contains(t, text, "== pattern duplicates (1) ==")
	assert.NotContains(t, text, "== exact duplicates")
}

// TestSuppressionRoundTrip exercises spec scenario S5: suppressing a
// cluster removes it from later reports until a participant's body
// changes, at which point the suppression goes stale and the cluster
// (now under a new fingerprint) reappears.
func TestSuppressionRoundTrip(t *testing.T) {
	e, store := newTestEngine(t)
	root := t.TempDir()

	writeFile(t, root, "a.go", "package p\n\nfunc f(a, b, c int) int {\n\treturn a + b + c\n}\n")
	writeFile(t, root, "b.go", "package p\n\nfunc g(x, y, z int) int {\n\treturn x + y + z\n}\n")

	_, summary, err := e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)
	require.Len(t, summary.Warnings, 0)

	clusters, err := store.AllEntries()
	require.NoError(t, err)
	require.NotEmpty(t, clusters)

	active, err := store.ListActiveSuppressions()
	require.NoError(t, err)
	assert.Empty(t, active)

	digestsByFile := make(map[string]string, len(clusters))
	for _, entry := range clusters {
		digestsByFile[entry.FilePath] = entry.EvidenceDigest
	}
	evidenceDigests := []string{
		digestsByFile[filepath.Join(root, "a.go")],
		digestsByFile[filepath.Join(root, "b.go")],
	}
	clusterKey := "exact:" + clusters[0].ExactHash
	require.NoError(t, store.AddSuppression(clusterKey, evidenceDigests, "ok"))

	reportPath, _, err := e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)
	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "applied "+clusterKey)
	assert.NotContains(t, string(report), "exact duplicates")

	writeFile(t, root, "b.go", "package p\n\nfunc g(x, y, z int) int {\n\treturn x * y * z\n}\n")

	reportPath, _, err = e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)
	report, err = os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "stale "+clusterKey)

	active, err = store.ListActiveSuppressions()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPreCreateCheckFlagsDuplicateOfExistingCluster(t *testing.T) {
	e, _ := newTestEngine(t)
	root := t.TempDir()

	writeFile(t, root, "a.go", "package p\n\nfunc f(a, b, c, d int) int {\n\treturn a + b + c + d\n}\n")
	writeFile(t, root, "b.go", "package p\n\nfunc g(w, x, y, z int) int {\n\treturn w + x + y + z\n}\n")

	_, _, err := e.Analyze(context.Background(), root, engine.Options{})
	require.NoError(t, err)

	clusters, err := e.PreCreateCheck("go", []byte("package p\n\nfunc h(p, q, r, s int) int {\n\treturn p + q + r + s\n}\n"))
	require.NoError(t, err)
	assert.NotNil(t, clusters)
}
