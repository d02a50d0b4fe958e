// Package lspunits adapts an external language-server symbol source into
// plugin.CodeUnits, the alternative code-unit source described by the
// external analyze/write/edit contract (see plugin.LanguagePlugin). It
// mirrors plugin/tsbase's extraction discipline (import-only filtering,
// dedup by (kind, start, end, name)) without owning a tree-sitter grammar.
package lspunits

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/oxhq/astrograph/graph"
	"github.com/oxhq/astrograph/plugin"
)

// Symbol is one (symbol_kind, name, start_line, end_line) tuple as returned
// by an external symbol server, 1-based inclusive lines.
type Symbol struct {
	Kind      string
	Name      string
	StartLine int
	EndLine   int
}

// SymbolSource is the external collaborator contract: given a file path, it
// returns the symbols a language server currently knows about. Symbol
// quality is advisory; callers get no guarantee of completeness or of a
// byte-accurate range.
type SymbolSource interface {
	Symbols(ctx context.Context, filePath string) ([]Symbol, error)
}

// kindFor maps a language-server symbol kind string onto plugin.Kind. Any
// kind not recognized as function-like or class-like degrades to KindBlock,
// since an unrecognized LSP symbol is still a region worth fingerprinting.
func kindFor(lspKind string) plugin.Kind {
	switch strings.ToLower(lspKind) {
	case "function", "method", "constructor":
		return plugin.KindFunction
	case "class", "struct", "interface", "enum":
		return plugin.KindClass
	default:
		return plugin.KindBlock
	}
}

// Plugin wraps a SymbolSource as a plugin.LanguagePlugin. Unlike the
// tree-sitter plugins it has no grammar of its own: SourceToGraph and
// CodeUnitToASTGraph build the trivial depth-1 graph the specification
// describes for LSP-sourced units rather than a real CST.
type Plugin struct {
	languageID string
	extensions []string
	source     SymbolSource
}

// New creates an LSP-backed plugin for the given language id, claiming the
// given file extensions, backed by source.
func New(languageID string, extensions []string, source SymbolSource) *Plugin {
	return &Plugin{languageID: languageID, extensions: extensions, source: source}
}

func (p *Plugin) LanguageID() string      { return p.languageID }
func (p *Plugin) FileExtensions() []string { return p.extensions }
func (p *Plugin) SkipDirs() []string       { return nil }

// SourceToGraph builds a single-root graph with one child per line of
// source, labeled "line". It exists only to satisfy plugin.LanguagePlugin;
// callers that want real structure should use ExtractCodeUnits plus
// CodeUnitToASTGraph on the resulting units.
func (p *Plugin) SourceToGraph(source []byte, normalizeOps bool) (*graph.LabeledGraph, error) {
	g := graph.New()
	root := g.AddNode("file")
	scanner := bufio.NewScanner(bytes.NewReader(source))
	for scanner.Scan() {
		line := g.AddNode("line")
		g.AddChild(root, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lspunits: %w: %v", plugin.ErrParseFailure, err)
	}
	return g, nil
}

// ExtractCodeUnits queries the symbol source and converts each returned
// symbol into a CodeUnit, applying the same dedup and import-only rules as
// the CST-derived plugins (spec §4.3).
func (p *Plugin) ExtractCodeUnits(source []byte, filePath string) ([]plugin.CodeUnit, error) {
	symbols, err := p.source.Symbols(context.Background(), filePath)
	if err != nil {
		return nil, fmt.Errorf("lspunits: %w: %v", plugin.ErrParseFailure, err)
	}

	lines := splitLines(source)
	seen := make(map[string]bool, len(symbols))
	units := make([]plugin.CodeUnit, 0, len(symbols))

	for _, sym := range symbols {
		if sym.StartLine < 1 || sym.EndLine < sym.StartLine {
			continue
		}
		name := sym.Name
		if name == "" {
			name = plugin.AnonymousName
		}
		kind := kindFor(sym.Kind)
		key := fmt.Sprintf("%s|%d|%d|%s", kind, sym.StartLine, sym.EndLine, name)
		if seen[key] {
			continue
		}

		text := sliceLines(lines, sym.StartLine, sym.EndLine)
		extracted := strings.TrimLeft(text, " \t\r\n")
		if strings.HasPrefix(extracted, "import ") || strings.HasPrefix(extracted, "from ") {
			continue
		}

		unit := plugin.CodeUnit{
			Kind:          kind,
			Name:          name,
			LanguageID:    p.languageID,
			FilePath:      filePath,
			StartLine:     sym.StartLine,
			EndLine:       sym.EndLine,
			NodeCount:     sym.EndLine - sym.StartLine + 2, // root + one child per line
			SourceText:    text,
			ExtractedCode: extracted,
		}
		if kind == plugin.KindBlock {
			unit.BlockType = sym.Kind
		}
		if err := unit.Validate(); err != nil {
			continue
		}
		seen[key] = true
		units = append(units, unit)
	}
	return units, nil
}

// CodeUnitToASTGraph builds the depth-1 graph the specification mandates
// for LSP-sourced units: a root labeled by the unit's symbol kind with one
// child per line of its source text. normalizeOps has no effect here since
// LSP units carry no operator nodes.
func (p *Plugin) CodeUnitToASTGraph(unit plugin.CodeUnit, normalizeOps bool) (*graph.LabeledGraph, error) {
	g := graph.New()
	rootLabel := string(unit.Kind)
	if unit.BlockType != "" {
		rootLabel = unit.BlockType
	}
	root := g.AddNode(rootLabel)
	for i := unit.StartLine; i <= unit.EndLine; i++ {
		child := g.AddNode("line")
		g.AddChild(root, child)
	}
	return g, nil
}

func splitLines(source []byte) []string {
	text := string(source)
	return strings.Split(text, "\n")
}

func sliceLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
