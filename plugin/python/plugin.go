// Package python is the Python language plugin, grounded on
// termfx-morfx/providers/python (config.go's aliasMap and ExtractNodeName).
package python

import (
	sitter "github.com/smacker/go-tree-sitter"
	tspy "github.com/smacker/go-tree-sitter/python"

	"github.com/oxhq/astrograph/plugin/tsbase"
)

var (
	identifierTypes = map[string]bool{"identifier": true}
	literalTypes    = map[string]bool{
		"string": true, "integer": true, "float": true,
		"true": true, "false": true, "none": true,
	}
	operatorTypes = map[string]bool{
		"+": true, "-": true, "*": true, "/": true, "//": true, "%": true, "**": true,
		"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
		"and": true, "or": true, "&": true, "|": true, "^": true,
	}
	skipDirs = []string{"__pycache__", ".git", "venv", ".venv", "node_modules"}
)

type hooks struct{}

func (hooks) Language() string                    { return "python" }
func (hooks) Extensions() []string                { return []string{".py", ".pyw", ".pyi"} }
func (hooks) TreeSitterLanguage() *sitter.Language { return tspy.GetLanguage() }

func (hooks) IsFunctionNode(n *sitter.Node) bool {
	switch n.Type() {
	case "function_definition", "async_function_definition", "lambda":
		return true
	default:
		return false
	}
}

func (hooks) IsClassNode(n *sitter.Node) bool {
	return n.Type() == "class_definition"
}

func (hooks) IsBlockNode(n *sitter.Node) bool {
	switch n.Type() {
	case "for_statement", "while_statement", "if_statement", "with_statement", "try_statement":
		return true
	default:
		return false
	}
}

func (hooks) GetBlockType(n *sitter.Node) string {
	switch n.Type() {
	case "for_statement":
		return "for"
	case "while_statement":
		return "while"
	case "if_statement":
		return "if"
	case "with_statement":
		return "with"
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
	case "function_definition", "async_function_definition", "class_definition":
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

// IsExported reports whether a Python name is public by convention (does
// not start with an underscore), mirroring plugin/golang.IsExported's role
// for confidence-weighting consumers.
func IsExported(name string) bool {
	return name != "" && name[0] != '_'
}

type plugin struct {
	*tsbase.Base
}

// New creates the Python language plugin.
func New() *plugin {
	return &plugin{Base: tsbase.New(hooks{})}
}

// SkipDirs overrides tsbase.Base's empty default with Python ecosystem
// directories to prune during a tree walk.
func (p *plugin) SkipDirs() []string { return skipDirs }
