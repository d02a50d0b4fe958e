// Package plugin defines the language-plugin abstraction: the capability
// set that turns source bytes into a labeled graph and enumerates code
// units. Concrete plugins (package golang, python, javascript, lspunits)
// implement LanguagePlugin; package tsbase supplies a generic
// tree-sitter-backed implementation that concrete plugins configure via a
// small hook set rather than reimplementing.
package plugin

import (
	"errors"
	"fmt"

	"github.com/oxhq/astrograph/graph"
)

// Kind classifies the region of source a CodeUnit represents.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindBlock    Kind = "block"
)

// AnonymousName is used for CodeUnits the plugin could not attach an
// identifier to.
const AnonymousName = "<anonymous>"

// CodeUnit is a semantic region of source: a function, class, or
// (optionally) a control-flow block.
type CodeUnit struct {
	Kind          Kind
	Name          string
	LanguageID    string
	FilePath      string
	StartLine     int
	EndLine       int
	NodeCount     int
	SourceText    string
	ExtractedCode string

	// BlockType is populated only when Kind == KindBlock (e.g. "for",
	// "while", "if"), per the CodeUnit invariant in the data model.
	BlockType string
}

// LineCount returns the inclusive line span of the unit.
func (u CodeUnit) LineCount() int {
	return u.EndLine - u.StartLine + 1
}

// Validate checks the CodeUnit invariants from the data model: start <= end,
// node_count >= 1, and block kind requires a block type tag.
func (u CodeUnit) Validate() error {
	if u.StartLine > u.EndLine {
		return fmt.Errorf("plugin: code unit %q has start_line %d after end_line %d", u.Name, u.StartLine, u.EndLine)
	}
	if u.NodeCount < 1 {
		return fmt.Errorf("plugin: code unit %q has node_count %d, want >= 1", u.Name, u.NodeCount)
	}
	if u.Kind == KindBlock && u.BlockType == "" {
		return fmt.Errorf("plugin: block code unit %q missing block type tag", u.Name)
	}
	return nil
}

// Sentinel error kinds from spec §4.1/§7. Plugins and the engine wrap these
// with fmt.Errorf("...: %w", ErrX) so callers can classify failures with
// errors.Is while still getting a descriptive message.
var (
	// ErrParseFailure means the grammar could not produce any tree for the
	// given bytes. Recovered at the file level: discovery proceeds and the
	// file is reported as skipped.
	ErrParseFailure = errors.New("plugin: parse failure")

	// ErrUnsupportedEncoding means the bytes are not valid UTF-8 and the
	// grammar requires it.
	ErrUnsupportedEncoding = errors.New("plugin: unsupported encoding")

	// ErrUnsupportedLanguage means no plugin claims the file's extension or
	// explicit language id. Not counted as a failure; the file is skipped
	// silently per spec §7.
	ErrUnsupportedLanguage = errors.New("plugin: unsupported language")
)

// LanguagePlugin is the capability set every language plugin implements.
// The registry resolves instances by language id or file extension; the
// core engine never knows about a concrete language beyond this interface.
type LanguagePlugin interface {
	// LanguageID returns a unique, stable identifier (e.g. "go", "python").
	LanguageID() string

	// FileExtensions returns the dot-prefixed, lowercase extensions this
	// plugin claims (e.g. [".go"]).
	FileExtensions() []string

	// SkipDirs returns directory names to prune during tree walks (e.g.
	// ecosystem build artifacts for this language).
	SkipDirs() []string

	// SourceToGraph parses bytes and returns the labeled CST-derived graph
	// for the whole file. normalizeOps controls whether operator nodes
	// collapse to a generic class (pattern fingerprinting) or keep their
	// operator identity (exact fingerprinting); see the labeling discipline
	// in spec §4.2.
	SourceToGraph(source []byte, normalizeOps bool) (*graph.LabeledGraph, error)

	// ExtractCodeUnits enumerates functions, classes, and (optionally)
	// blocks from the given bytes.
	ExtractCodeUnits(source []byte, filePath string) ([]CodeUnit, error)

	// CodeUnitToASTGraph produces a unit's subgraph. normalizeOps has the
	// same meaning as in SourceToGraph; the fingerprinter calls this twice
	// per unit (false then true) to obtain the exact and pattern graphs.
	CodeUnitToASTGraph(unit CodeUnit, normalizeOps bool) (*graph.LabeledGraph, error)
}
