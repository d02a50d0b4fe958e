// Package engine orchestrates the analysis pipeline described in spec §2's
// data flow and §5's concurrency model: parse+extract and fingerprinting
// run in parallel across files, clustering is a single-threaded reduction,
// and index writes are serialized behind the store's writer lock. The
// worker-pool shape is grounded on internal/cli/runner.go's Runner.run
// (jobs channel + sync.WaitGroup + runtime.NumCPU fallback).
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/oxhq/astrograph/discover"
	"github.com/oxhq/astrograph/fingerprint"
	"github.com/oxhq/astrograph/index"
	"github.com/oxhq/astrograph/plugin"
	"github.com/oxhq/astrograph/plugin/registry"
	"github.com/oxhq/astrograph/report"
)

// ErrKind tags the error taxonomy of spec §7.
type ErrKind string

const (
	ErrKindParseFailure         ErrKind = "parse_failure"
	ErrKindUnsupportedLanguage  ErrKind = "unsupported_language"
	ErrKindIO                   ErrKind = "io_error"
	ErrKindIndexCorruption      ErrKind = "index_corruption"
	ErrKindConcurrentRunRefused ErrKind = "concurrent_run_refused"
)

// Error wraps an underlying error with its ErrKind, so callers can switch
// on Kind without string matching.
type Error struct {
	Kind ErrKind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Options enumerate the analyze() parameters of spec §6.
type Options struct {
	Languages    []string // empty means all registered languages
	Thresholds   discover.Thresholds
	IncludeGlobs []string
	ExcludeGlobs []string
	Workers      int // 0 selects runtime.NumCPU(), per Runner.Workers
}

// Summary is the non-report-path half of analyze's return value.
type Summary struct {
	FilesScanned  int
	FilesSkipped  int
	UnitsFound    int
	ClustersFound int
	Warnings      []string
}

// Engine ties the plugin registry and index store to the discovery
// pipeline. Construct one per process (spec §9: "the registry ... must be
// initialized before any analyze call"); tests construct their own
// isolated instance rather than touching a process singleton.
type Engine struct {
	Registry *registry.Registry
	Store    *index.Store
}

// New builds an Engine over reg and store.
func New(reg *registry.Registry, store *index.Store) *Engine {
	return &Engine{Registry: reg, Store: store}
}

// fileResult holds one file's fingerprinted discover.Units, or a warning
// if the file could not be read or parsed.
type fileResult struct {
	units   []discover.Unit
	warning string
}

// Analyze runs one full pipeline pass over rootPath (spec §4's data flow,
// §5's stage structure). A canceled ctx must not mutate the index or emit
// a report artifact (spec §5); this is enforced by checking ctx.Err()
// before the index write and report stages.
func (e *Engine) Analyze(ctx context.Context, rootPath string, opts Options) (string, Summary, error) {
	unlock, err := e.Store.Lock()
	if err != nil {
		return "", Summary{}, &Error{Kind: ErrKindConcurrentRunRefused, Err: err}
	}
	defer unlock()

	files, err := walkTree(ctx, rootPath, e.Registry, ScanOptions{IncludeGlobs: opts.IncludeGlobs, ExcludeGlobs: opts.ExcludeGlobs})
	if err != nil {
		if ctx.Err() != nil {
			return "", Summary{}, ctx.Err()
		}
		return "", Summary{}, &Error{Kind: ErrKindIO, Err: err}
	}

	results, warnings := e.extractAndFingerprint(ctx, files, opts.Languages, opts.Workers)
	if ctx.Err() != nil {
		return "", Summary{}, ctx.Err()
	}

	var allUnits []discover.Unit
	perFile := make(map[string][]discover.Unit)
	for i, r := range results {
		allUnits = append(allUnits, r.units...)
		perFile[files[i]] = r.units
	}

	clusters := discover.Discover(allUnits, opts.Thresholds, e.Store)

	if ctx.Err() != nil {
		return "", Summary{}, ctx.Err()
	}

	previousFiles, err := e.indexedFilePaths()
	if err != nil {
		return "", Summary{}, &Error{Kind: ErrKindIO, Err: err}
	}

	for filePath, units := range perFile {
		if err := e.Store.Upsert(filePath, toEntries(units)); err != nil {
			return "", Summary{}, &Error{Kind: ErrKindIO, Err: err}
		}
		delete(previousFiles, filePath)
	}

	// Files indexed by a prior run that no longer exist in this walk have
	// vanished from the tree; drop their entries so any suppression that
	// only covers them goes stale on the next query (spec §4.6).
	for filePath := range previousFiles {
		if err := e.Store.Remove(filePath); err != nil {
			return "", Summary{}, &Error{Kind: ErrKindIO, Err: err}
		}
	}

	if ctx.Err() != nil {
		return "", Summary{}, ctx.Err()
	}

	suppressionStatus, err := e.Store.ListSuppressionStatus()
	if err != nil {
		return "", Summary{}, &Error{Kind: ErrKindIO, Err: err}
	}

	stamp := time.Now().UTC().Format("20060102_150405") + fmt.Sprintf("_%06d", time.Now().UTC().Nanosecond()/1000)
	metadataDir := filepath.Join(rootPath, report.MetadataDirName)
	reportPath, err := report.Write(metadataDir, stamp, report.Result{
		Clusters:            clusters,
		Warnings:            warnings,
		AppliedSuppressions: toSuppressionNotes(suppressionStatus.Active),
		StaleSuppressions:   toSuppressionNotes(suppressionStatus.Stale),
	})
	if err != nil {
		return "", Summary{}, &Error{Kind: ErrKindIO, Err: err}
	}

	summary := Summary{
		FilesScanned:  len(files),
		UnitsFound:    len(allUnits),
		ClustersFound: len(clusters),
		Warnings:      warnings,
	}
	return reportPath, summary, nil
}

// PreCreateCheck runs the write/edit pre-create duplicate check of spec
// §4.5 step 3 / §6: it fingerprints the units drawn from content and
// clusters them among themselves at threshold 10, without writing the
// index. Entries already in the index are not compared against, so a
// single unit in content never yields a cluster.
func (e *Engine) PreCreateCheck(languageID string, content []byte) ([]discover.DuplicateCluster, error) {
	p, err := e.Registry.Get(languageID)
	if err != nil {
		return nil, &Error{Kind: ErrKindUnsupportedLanguage, Err: err}
	}

	units, err := e.fingerprintFile(p, content, "<pending>")
	if err != nil {
		return nil, err
	}

	thresholds := discover.Thresholds{MinNodeCountExact: discover.PreCreateThreshold}
	return discover.Discover(units, thresholds, e.Store), nil
}

func (e *Engine) extractAndFingerprint(ctx context.Context, files []string, languages []string, workers int) ([]fileResult, []string) {
	allowed := toSet(languages)
	results := make([]fileResult, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				results[i] = e.processFile(files[i], allowed)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var warnings []string
	for _, r := range results {
		if r.warning != "" {
			warnings = append(warnings, r.warning)
		}
	}
	return results, warnings
}

func (e *Engine) processFile(filePath string, allowed map[string]bool) fileResult {
	p, err := e.Registry.GetForFile(filePath)
	if err != nil {
		return fileResult{} // unsupported_language: skipped silently
	}
	if len(allowed) > 0 && !allowed[p.LanguageID()] {
		return fileResult{}
	}

	source, err := readFile(filePath)
	if err != nil {
		return fileResult{warning: fmt.Sprintf("skipped %s: io_error: %v", filePath, err)}
	}

	units, err := e.fingerprintFile(p, source, filePath)
	if err != nil {
		return fileResult{warning: fmt.Sprintf("skipped %s: parse_failure: %v", filePath, err)}
	}
	return fileResult{units: units}
}

func (e *Engine) fingerprintFile(p plugin.LanguagePlugin, source []byte, filePath string) ([]discover.Unit, error) {
	codeUnits, err := p.ExtractCodeUnits(source, filePath)
	if err != nil {
		return nil, &Error{Kind: ErrKindParseFailure, Err: err}
	}

	units := make([]discover.Unit, 0, len(codeUnits))
	for _, cu := range codeUnits {
		exactGraph, err := p.CodeUnitToASTGraph(cu, false)
		if err != nil {
			continue
		}
		patternGraph, err := p.CodeUnitToASTGraph(cu, true)
		if err != nil {
			continue
		}
		units = append(units, discover.Unit{
			CodeUnit:    cu,
			Fingerprint: fingerprint.Of(exactGraph, patternGraph),
		})
	}
	return units, nil
}

// indexedFilePaths returns the distinct file paths currently persisted in
// the index, used to detect files that disappeared from the tree between
// runs (spec §4.6's IndexEntry lifecycle: "removed when the file
// disappears").
func (e *Engine) indexedFilePaths() (map[string]bool, error) {
	entries, err := e.Store.AllEntries()
	if err != nil {
		return nil, err
	}
	paths := make(map[string]bool, len(entries))
	for _, entry := range entries {
		paths[entry.FilePath] = true
	}
	return paths, nil
}

func toEntries(units []discover.Unit) []index.Entry {
	entries := make([]index.Entry, 0, len(units))
	for _, u := range units {
		entries = append(entries, index.Entry{
			StartLine:      u.StartLine,
			EndLine:        u.EndLine,
			Kind:           string(u.Kind),
			LanguageID:     u.LanguageID,
			Name:           u.Name,
			ExactHash:      u.Fingerprint.Exact.String(),
			PatternHash:    u.Fingerprint.Pattern.String(),
			NodeCount:      u.NodeCount,
			EvidenceDigest: fingerprint.EvidenceDigest([]byte(u.SourceText)),
		})
	}
	return entries
}

func toSuppressionNotes(suppressions []index.Suppression) []report.SuppressionNote {
	notes := make([]report.SuppressionNote, len(suppressions))
	for i, s := range suppressions {
		notes[i] = report.SuppressionNote{ClusterKey: s.ClusterKey, Reason: s.Reason}
	}
	return notes
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}
