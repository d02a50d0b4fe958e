package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/astrograph/discover"
	"github.com/oxhq/astrograph/fingerprint"
	"github.com/oxhq/astrograph/report"
)

func TestWriteProducesTimestampedFileWithHeader(t *testing.T) {
	dir := t.TempDir()
	path, err := report.Write(dir, "20260731_120000_000001", report.Result{})
	require.NoError(t, err)
	assert.Equal(t, "analysis_report_20260731_120000_000001.txt", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "astrograph analysis report")
	assert.Contains(t, string(data), "run: 20260731_120000_000001")
}

func TestWriteListsClusterMembersGroupedByKind(t *testing.T) {
	dir := t.TempDir()
	result := report.Result{
		Clusters: []discover.DuplicateCluster{
			{
				Kind:       discover.ClusterExact,
				Fingerprint: fingerprint.Digest{0x1},
				LanguageID: "go",
				NodeCount:  7,
				LineCount:  3,
				Members: []discover.Member{
					{FilePath: "a.go", StartLine: 1, EndLine: 3, Name: "f"},
					{FilePath: "b.go", StartLine: 5, EndLine: 7, Name: "g"},
				},
			},
		},
	}

	path, err := report.Write(dir, "20260731_120000_000002", result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "== exact duplicates (1) ==")
	assert.Contains(t, text, "a.go:1-3")
	assert.Contains(t, text, "b.go:5-7")
}

func TestWriteEmbedsDiffForPatternClusters(t *testing.T) {
	dir := t.TempDir()
	result := report.Result{
		Clusters: []discover.DuplicateCluster{
			{
				Kind:       discover.ClusterPattern,
				Fingerprint: fingerprint.Digest{0x2},
				LanguageID: "go",
				NodeCount:  7,
				LineCount:  3,
				Members: []discover.Member{
					{FilePath: "a.go", StartLine: 1, EndLine: 3, Name: "f", SourceText: "return a + b\n"},
					{FilePath: "b.go", StartLine: 5, EndLine: 7, Name: "g", SourceText: "return a - b\n"},
				},
			},
		},
	}

	path, err := report.Write(dir, "20260731_120000_000003", result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "diff (first two members):")
	assert.Contains(t, text, "+return a - b")
}

func TestWriteListsAppliedAndStaleSuppressions(t *testing.T) {
	dir := t.TempDir()
	result := report.Result{
		AppliedSuppressions: []report.SuppressionNote{{ClusterKey: "exact:abc", Reason: "known helper"}},
		StaleSuppressions:   []report.SuppressionNote{{ClusterKey: "pattern:def", Reason: "body changed"}},
	}

	path, err := report.Write(dir, "20260731_120000_000005", result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "applied exact:abc reason=\"known helper\"")
	assert.Contains(t, text, "stale pattern:def reason=\"body changed\"")
}

func TestWriteIncludesWarnings(t *testing.T) {
	dir := t.TempDir()
	result := report.Result{Warnings: []string{"skipped bad.go: parse_failure"}}

	path, err := report.Write(dir, "20260731_120000_000004", result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "skipped bad.go: parse_failure")
}
