// Package report renders discovery results to a timestamped text artifact
// (spec §4.7). The metadata-directory-under-repo-root convention follows
// internal/writer/staging.go's ".morfx" staging directory; the unified-diff
// embedding follows internal/util/util.go's UnifiedDiff helper.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oxhq/astrograph/discover"
)

// MetadataDirName is the default index/report storage directory (spec §6).
const MetadataDirName = ".metadata_astrograph"

// ToolVersion is stamped into the report header. Overridable by callers
// that embed a build-time version string.
var ToolVersion = "astrograph/dev"

// SuppressionNote is one line of the report's suppression audit section:
// a cluster key and its reason. Whether it applied this run or was skipped
// as stale is given by which Result slice holds it (SPEC_FULL.md §4).
type SuppressionNote struct {
	ClusterKey string
	Reason     string
}

// Result is the summary produced by an analysis run, passed to Write
// alongside the discovered clusters.
type Result struct {
	Clusters            []discover.DuplicateCluster
	Warnings            []string
	AppliedSuppressions []SuppressionNote
	StaleSuppressions   []SuppressionNote
}

// Write renders result to a new timestamped report file under dir (spec
// §4.7) and returns its absolute path. stamp must already be formatted as
// YYYYMMDD_HHMMSS_microseconds; callers derive it from time.Now() since
// this package stays free of wall-clock state, keeping render's output a
// pure function of its arguments and so testable without a fixed clock.
func Write(dir string, stamp string, result Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create directory: %w", err)
	}

	name := fmt.Sprintf("analysis_report_%s.txt", stamp)
	path := filepath.Join(dir, name)

	body := render(stamp, result)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("report: write artifact: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		return abs, nil
	}
	return path, nil
}

func render(stamp string, result Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "astrograph analysis report\nversion: %s\nrun: %s\n", ToolVersion, stamp)

	if len(result.Warnings) > 0 {
		sb.WriteString("\nwarnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}

	if len(result.AppliedSuppressions) > 0 || len(result.StaleSuppressions) > 0 {
		sb.WriteString("\nsuppressions:\n")
		for _, s := range result.AppliedSuppressions {
			fmt.Fprintf(&sb, "  - applied %s reason=%q\n", s.ClusterKey, s.Reason)
		}
		for _, s := range result.StaleSuppressions {
			fmt.Fprintf(&sb, "  - stale %s reason=%q\n", s.ClusterKey, s.Reason)
		}
	}

	byKind := groupByKind(result.Clusters)
	kinds := []discover.ClusterKind{discover.ClusterExact, discover.ClusterPattern, discover.ClusterBlock}
	for _, kind := range kinds {
		clusters := byKind[kind]
		if len(clusters) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n== %s duplicates (%d) ==\n", kind, len(clusters))
		for _, c := range clusters {
			renderCluster(&sb, c)
		}
	}

	return sb.String()
}

func groupByKind(clusters []discover.DuplicateCluster) map[discover.ClusterKind][]discover.DuplicateCluster {
	grouped := make(map[discover.ClusterKind][]discover.DuplicateCluster)
	for _, c := range clusters {
		grouped[c.Kind] = append(grouped[c.Kind], c)
	}
	return grouped
}

func renderCluster(sb *strings.Builder, c discover.DuplicateCluster) {
	fmt.Fprintf(sb, "\nfingerprint %s  kind=%s  language=%s  node_count=%d  line_count=%d\n",
		c.Fingerprint.String(), c.Kind, c.LanguageID, c.NodeCount, c.LineCount)
	for _, m := range c.Members {
		fmt.Fprintf(sb, "  %s:%d-%d  %s\n", m.FilePath, m.StartLine, m.EndLine, m.Name)
	}

	if c.Kind == discover.ClusterPattern && len(c.Members) >= 2 {
		if diff := diffBetween(c.Members[0], c.Members[1]); diff != "" {
			sb.WriteString("  diff (first two members):\n")
			for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
				fmt.Fprintf(sb, "    %s\n", line)
			}
		}
	}
}

// diffBetween renders a unified diff between two members' source text. Pair
// text is embedded only for pattern clusters (spec SPEC_FULL.md §3); exact
// cluster members share operators and structure and differ at most in
// identifier and literal text, and get no diff.
func diffBetween(a, b discover.Member) string {
	if a.SourceText == "" && b.SourceText == "" {
		return ""
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a.SourceText),
		B:        difflib.SplitLines(b.SourceText),
		FromFile: fmt.Sprintf("%s:%d", a.FilePath, a.StartLine),
		ToFile:   fmt.Sprintf("%s:%d", b.FilePath, b.StartLine),
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return ""
	}
	return text
}
