// Package javascript is the JavaScript language plugin, grounded on
// termfx-morfx/providers/javascript (config.go's aliasMap and
// ExtractNodeName).
package javascript

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsjs "github.com/smacker/go-tree-sitter/javascript"

	"github.com/oxhq/astrograph/plugin/tsbase"
)

var (
	identifierTypes = map[string]bool{
		"identifier":         true,
		"property_identifier": true,
		"shorthand_property_identifier": true,
	}
	literalTypes = map[string]bool{
		"string": true, "template_string": true, "number": true,
		"true": true, "false": true, "null": true, "undefined": true,
	}
	operatorTypes = map[string]bool{
		"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
		"==": true, "===": true, "!=": true, "!==": true,
		"<": true, ">": true, "<=": true, ">=": true,
		"&&": true, "||": true, "??": true,
	}
	skipDirs = []string{"node_modules", ".git", "dist", "build"}
)

type hooks struct{}

func (hooks) Language() string                    { return "javascript" }
func (hooks) Extensions() []string                { return []string{".js", ".jsx", ".mjs", ".cjs"} }
func (hooks) TreeSitterLanguage() *sitter.Language { return tsjs.GetLanguage() }

func (hooks) IsFunctionNode(n *sitter.Node) bool {
	switch n.Type() {
	case "function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration":
		return true
	default:
		return false
	}
}

func (hooks) IsClassNode(n *sitter.Node) bool {
	switch n.Type() {
	case "class_declaration", "class_expression":
		return true
	default:
		return false
	}
}

func (hooks) IsBlockNode(n *sitter.Node) bool {
	switch n.Type() {
	case "for_statement", "for_in_statement", "while_statement", "if_statement", "switch_statement", "try_statement":
		return true
	default:
		return false
	}
}

func (hooks) GetBlockType(n *sitter.Node) string {
	switch n.Type() {
	case "for_statement", "for_in_statement":
		return "for"
	case "while_statement":
		return "while"
	case "if_statement":
		return "if"
	case "switch_statement":
		return "switch"
	case "try_statement":
		return "try"
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
	case "function_declaration", "generator_function_declaration", "class_declaration", "class_expression":
		if name := n.ChildByFieldName("name"); name != nil {
			return string(source[name.StartByte():name.EndByte()])
		}
	case "method_definition":
		if key := n.ChildByFieldName("key"); key != nil {
			return string(source[key.StartByte():key.EndByte()])
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

type plugin struct {
	*tsbase.Base
}

// New creates the JavaScript language plugin.
func New() *plugin {
	return &plugin{Base: tsbase.New(hooks{})}
}

// SkipDirs overrides tsbase.Base's empty default with JavaScript ecosystem
// directories to prune during a tree walk.
func (p *plugin) SkipDirs() []string { return skipDirs }
