// Package tsbase is the generic tree-sitter-backed plugin implementation
// from spec §4.2. Concrete language plugins supply a small Hooks
// implementation (grammar binding, node classification, name extraction);
// Base does the rest: parsing, the labeling discipline that makes
// fingerprints rename-invariant, code-unit extraction, and import-only
// filtering. Grounded on termfx-morfx/providers/base.Provider, generalized
// from a single Query/Transform capability to the graph + code-unit
// capability the spec calls for.
package tsbase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/astrograph/graph"
	"github.com/oxhq/astrograph/plugin"
)

// Hooks is the required capability set a concrete plugin must supply.
type Hooks interface {
	// Language returns the canonical language identifier.
	Language() string

	// Extensions returns the dot-prefixed, lowercase extensions claimed by
	// this language.
	Extensions() []string

	// TreeSitterLanguage binds the grammar.
	TreeSitterLanguage() *sitter.Language

	// NodeLabel returns a structural label for node. Identifier nodes MUST
	// label to a fixed token; literal nodes MUST label to a fixed token;
	// operator nodes MUST collapse to a single generic class when
	// normalizeOps is true. This is the labeling discipline spec §4.2
	// requires of every plugin.
	NodeLabel(node *sitter.Node, normalizeOps bool) string

	// IsFunctionNode reports whether node roots a function-kind code unit.
	IsFunctionNode(node *sitter.Node) bool

	// IsClassNode reports whether node roots a class-kind code unit.
	IsClassNode(node *sitter.Node) bool

	// GetName extracts the identifier or name bound to node, given the
	// full source. Returns "" when the node is anonymous.
	GetName(node *sitter.Node, source []byte) string
}

// OptionalHooks groups the hooks Base falls back to sane defaults for when
// a concrete plugin does not implement them.
type OptionalHooks interface {
	// IsBlockNode reports whether node roots a block-kind code unit
	// (for, while, if, ...). Defaults to false.
	IsBlockNode(node *sitter.Node) bool

	// ShouldSkipNode reports whether node should be excluded from the
	// structural graph entirely (e.g. punctuation). Defaults to skipping
	// unnamed single-character punctuation nodes.
	ShouldSkipNode(node *sitter.Node) bool

	// GetBlockType returns the block type tag for a block-kind node (e.g.
	// "for", "while"). Defaults to node.Type().
	GetBlockType(node *sitter.Node) string
}

// Base implements plugin.LanguagePlugin generically over any tree-sitter
// grammar, given a Hooks implementation.
type Base struct {
	hooks  Hooks
	parser *sitter.Parser
}

// New creates a Base plugin bound to the grammar and hooks the concrete
// plugin supplies. Panics if the grammar fails to bind, mirroring the
// teacher's providers/base.New (a plugin with no working grammar cannot be
// registered at all).
func New(hooks Hooks) *Base {
	lang := hooks.TreeSitterLanguage()
	if lang == nil {
		panic(fmt.Sprintf("tsbase: failed to load tree-sitter grammar for %s", hooks.Language()))
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	return &Base{hooks: hooks, parser: parser}
}

func (b *Base) LanguageID() string       { return b.hooks.Language() }
func (b *Base) FileExtensions() []string { return b.hooks.Extensions() }

// SkipDirs returns no directory names by default. Concrete plugins that
// need ecosystem-specific pruning (vendor/, node_modules/, __pycache__/)
// implement their own SkipDirs and shadow this one by embedding Base and
// overriding the method, matching how providers/golang embeds
// providers/base in the teacher.
func (b *Base) SkipDirs() []string { return nil }

func (b *Base) parse(source []byte) (*sitter.Tree, error) {
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("tsbase: %w", plugin.ErrUnsupportedEncoding)
	}
	tree, err := b.parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("tsbase: %w: %v", plugin.ErrParseFailure, err)
	}
	return tree, nil
}

// SourceToGraph parses bytes and builds the whole-file labeled graph.
func (b *Base) SourceToGraph(source []byte, normalizeOps bool) (*graph.LabeledGraph, error) {
	tree, err := b.parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return b.nodeToGraph(tree.RootNode(), source, normalizeOps), nil
}

// nodeToGraph converts a tree-sitter subtree rooted at node into a
// LabeledGraph, applying the skip/label hooks along the way. Children are
// added in the same order the grammar exposes them in, which is the
// canonical traversal order the fingerprinter relies on.
func (b *Base) nodeToGraph(node *sitter.Node, source []byte, normalizeOps bool) *graph.LabeledGraph {
	g := graph.New()
	var add func(n *sitter.Node) (graph.NodeID, bool)
	add = func(n *sitter.Node) (graph.NodeID, bool) {
		if b.shouldSkip(n) {
			return 0, false
		}
		label := b.hooks.NodeLabel(n, normalizeOps)
		id := g.AddNode(label)
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if childID, ok := add(child); ok {
				g.AddChild(id, childID)
			}
		}
		return id, true
	}
	add(node)
	return g
}

func (b *Base) shouldSkip(node *sitter.Node) bool {
	if opt, ok := b.hooks.(OptionalHooks); ok {
		return opt.ShouldSkipNode(node)
	}
	// Default: skip unnamed single-character punctuation nodes, the
	// teacher-grounded default from spec §4.2.
	if node.IsNamed() {
		return false
	}
	return len([]rune(node.Type())) == 1
}

func (b *Base) isBlockNode(node *sitter.Node) bool {
	if opt, ok := b.hooks.(OptionalHooks); ok {
		return opt.IsBlockNode(node)
	}
	return false
}

func (b *Base) blockType(node *sitter.Node) string {
	if opt, ok := b.hooks.(OptionalHooks); ok {
		if bt := opt.GetBlockType(node); bt != "" {
			return bt
		}
	}
	return node.Type()
}

// ExtractCodeUnits walks the parse tree and emits a CodeUnit whenever the
// plugin classifies a node as function, class, or block, per spec §4.3.
func (b *Base) ExtractCodeUnits(source []byte, filePath string) ([]plugin.CodeUnit, error) {
	tree, err := b.parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var units []plugin.CodeUnit
	seen := make(map[string]bool)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		kind, ok := b.classify(n)
		if ok {
			if u, ok := b.buildUnit(n, source, filePath, kind); ok {
				key := fmt.Sprintf("%s|%d|%d|%s", u.Kind, u.StartLine, u.EndLine, u.Name)
				if !seen[key] {
					seen[key] = true
					units = append(units, u)
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return units, nil
}

func (b *Base) classify(n *sitter.Node) (plugin.Kind, bool) {
	switch {
	case b.hooks.IsFunctionNode(n):
		return plugin.KindFunction, true
	case b.hooks.IsClassNode(n):
		return plugin.KindClass, true
	case b.isBlockNode(n):
		return plugin.KindBlock, true
	default:
		return "", false
	}
}

func (b *Base) buildUnit(n *sitter.Node, source []byte, filePath string, kind plugin.Kind) (plugin.CodeUnit, bool) {
	start := int(n.StartPoint().Row) + 1
	end := int(n.EndPoint().Row) + 1
	text := string(source[n.StartByte():n.EndByte()])

	name := b.hooks.GetName(n, source)
	if name == "" {
		name = plugin.AnonymousName
	}

	extracted := normalizeWhitespace(text)
	if isImportOnly(extracted) {
		return plugin.CodeUnit{}, false
	}

	u := plugin.CodeUnit{
		Kind:          kind,
		Name:          name,
		LanguageID:    b.hooks.Language(),
		FilePath:      filePath,
		StartLine:     start,
		EndLine:       end,
		NodeCount:     countNodes(n, b),
		SourceText:    text,
		ExtractedCode: extracted,
	}
	if kind == plugin.KindBlock {
		u.BlockType = b.blockType(n)
	}
	return u, true
}

func countNodes(n *sitter.Node, b *Base) int {
	count := 0
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if b.shouldSkip(n) {
			return
		}
		count++
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return count
}

// CodeUnitToASTGraph re-parses the unit's own source text in isolation and
// returns its subgraph. Re-parsing (rather than caching the sitter.Node
// pointer on CodeUnit) keeps CodeUnit a plain value type that can cross
// goroutine boundaries freely, matching spec §3's "fingerprints are value
// types that flow freely" ownership note.
func (b *Base) CodeUnitToASTGraph(unit plugin.CodeUnit, normalizeOps bool) (*graph.LabeledGraph, error) {
	tree, err := b.parse([]byte(unit.SourceText))
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return b.nodeToGraph(tree.RootNode(), []byte(unit.SourceText), normalizeOps), nil
}

// normalizeWhitespace trims leading whitespace (spaces, tabs, CR, LF);
// whitespace inside the text is kept as is. Used both for the
// extracted_code field and the import-only check in spec §4.3.
func normalizeWhitespace(s string) string {
	return strings.TrimLeft(s, " \t\r\n")
}

// isImportOnly implements the §4.3 rule: a unit is discarded if its
// extracted code begins (after leading whitespace) with "import " or
// "from ".
func isImportOnly(extracted string) bool {
	return strings.HasPrefix(extracted, "import ") || strings.HasPrefix(extracted, "from ")
}
