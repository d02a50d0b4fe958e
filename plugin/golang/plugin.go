// Package golang is the Go language plugin, grounded on
// termfx-morfx/providers/golang (and its Config in config.go): a thin hook
// set bound to the tree-sitter Go grammar, all the mechanical work done by
// package tsbase.
package golang

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsgo "github.com/smacker/go-tree-sitter/golang"

	"github.com/oxhq/astrograph/plugin/tsbase"
)

var (
	identifierTypes = map[string]bool{
		"identifier":       true,
		"field_identifier": true,
		"type_identifier":  true,
		"package_identifier": true,
	}
	literalTypes = map[string]bool{
		"interpreted_string_literal": true,
		"raw_string_literal":        true,
		"int_literal":               true,
		"float_literal":             true,
		"imaginary_literal":         true,
		"rune_literal":              true,
		"true":                      true,
		"false":                     true,
		"nil":                       true,
	}
	operatorTypes = map[string]bool{
		"+": true, "-": true, "*": true, "/": true, "%": true,
		"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
		"&&": true, "||": true, "&": true, "|": true, "^": true, "<<": true, ">>": true,
	}
	skipDirs = []string{"vendor", ".git", "node_modules", "testdata"}
)

// hooks implements tsbase.Hooks and tsbase.OptionalHooks for Go.
type hooks struct{}

func (hooks) Language() string                    { return "go" }
func (hooks) Extensions() []string                { return []string{".go"} }
func (hooks) TreeSitterLanguage() *sitter.Language { return tsgo.GetLanguage() }

func (hooks) IsFunctionNode(n *sitter.Node) bool {
	switch n.Type() {
	case "function_declaration", "method_declaration", "func_literal":
		return true
	default:
		return false
	}
}

func (hooks) IsClassNode(n *sitter.Node) bool {
	// Go has no classes; struct and interface type specs play the role,
	// matching providers/golang's "struct"/"interface" aliasing onto
	// type_spec.
	return n.Type() == "type_spec"
}

func (hooks) IsBlockNode(n *sitter.Node) bool {
	switch n.Type() {
	case "for_statement", "if_statement", "expression_switch_statement",
		"type_switch_statement", "select_statement":
		return true
	default:
		return false
	}
}

func (hooks) GetBlockType(n *sitter.Node) string {
	switch n.Type() {
	case "for_statement":
		return "for"
	case "if_statement":
		return "if"
	case "expression_switch_statement", "type_switch_statement":
		return "switch"
	case "select_statement":
		return "select"
	default:
		return n.Type()
	}
}

func (hooks) ShouldSkipNode(n *sitter.Node) bool {
	if n.IsNamed() {
		return false
	}
	if operatorTypes[n.Type()] {
		return false
	}
	return len([]rune(n.Type())) <= 2
}

func (hooks) GetName(n *sitter.Node, source []byte) string {
	switch n.Type() {
	case "function_declaration", "method_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			return string(source[name.StartByte():name.EndByte()])
		}
	case "type_spec":
		if name := n.ChildByFieldName("name"); name != nil {
			return string(source[name.StartByte():name.EndByte()])
		}
	}
	return ""
}

func (hooks) NodeLabel(n *sitter.Node, normalizeOps bool) string {
	t := n.Type()
	switch {
	case identifierTypes[t]:
		return "identifier"
	case literalTypes[t]:
		return "literal"
	case normalizeOps && operatorTypes[t]:
		return "binary_op"
	default:
		return t
	}
}

// IsExported reports whether a Go identifier is exported (starts with an
// uppercase letter). Exposed so the discovery engine's consumers can weigh
// findings touching exported API more heavily, the way
// providers/base.calculateConfidence does for transforms.
func IsExported(name string) bool {
	if name == "" {
		return false
	}
	return name[0] >= 'A' && name[0] <= 'Z'
}

type plugin struct {
	*tsbase.Base
}

// New creates the Go language plugin.
func New() *plugin {
	return &plugin{Base: tsbase.New(hooks{})}
}

// SkipDirs overrides tsbase.Base's empty default with Go-specific ecosystem
// directories to prune during a tree walk.
func (p *plugin) SkipDirs() []string { return skipDirs }
