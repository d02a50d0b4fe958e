package tsbase_test

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	tsgo "github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/astrograph/graph"
	"github.com/oxhq/astrograph/plugin"
	"github.com/oxhq/astrograph/plugin/tsbase"
)

// goHooks is a minimal Hooks implementation used only to exercise tsbase in
// isolation, independent of the real plugin/golang package.
type goHooks struct{}

func (goHooks) Language() string                          { return "go" }
func (goHooks) Extensions() []string                      { return []string{".go"} }
func (goHooks) TreeSitterLanguage() *sitter.Language       { return tsgo.GetLanguage() }
func (goHooks) IsFunctionNode(n *sitter.Node) bool {
	switch n.Type() {
	case "function_declaration", "method_declaration", "func_literal":
		return true
	default:
		return false
	}
}
func (goHooks) IsClassNode(n *sitter.Node) bool { return n.Type() == "type_spec" }
func (goHooks) GetName(n *sitter.Node, source []byte) string {
	if n.Type() == "function_declaration" || n.Type() == "method_declaration" || n.Type() == "type_spec" {
		if name := n.ChildByFieldName("name"); name != nil {
			return string(source[name.StartByte():name.EndByte()])
		}
	}
	return ""
}
func (goHooks) NodeLabel(n *sitter.Node, normalizeOps bool) string {
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier":
		return "identifier"
	case "interpreted_string_literal", "int_literal", "raw_string_literal", "true", "false", "nil":
		return "literal"
	case "+", "-", "*", "/", "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		if normalizeOps {
			return "binary_op"
		}
		return n.Type()
	default:
		return n.Type()
	}
}

func newGoBase() *tsbase.Base {
	return tsbase.New(goHooks{})
}

func TestExtractCodeUnitsFindsFunction(t *testing.T) {
	b := newGoBase()
	src := []byte("package p\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")
	units, err := b.ExtractCodeUnits(src, "f.go")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, plugin.KindFunction, units[0].Kind)
	assert.Equal(t, "Add", units[0].Name)
	assert.GreaterOrEqual(t, units[0].NodeCount, 1)
}

func TestExtractCodeUnitsAnonymousFunction(t *testing.T) {
	b := newGoBase()
	src := []byte("package p\n\nvar f = func() int {\n\treturn 1\n}\n")
	units, err := b.ExtractCodeUnits(src, "f.go")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, plugin.AnonymousName, units[0].Name)
}

func TestExtractCodeUnitsDeduplicatesOverlappingRanges(t *testing.T) {
	b := newGoBase()
	src := []byte("package p\n\nfunc dup() int {\n\treturn 1\n}\n")
	units, err := b.ExtractCodeUnits(src, "f.go")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "dup", units[0].Name)
	assert.Equal(t, 3, units[0].StartLine)
	assert.Equal(t, 5, units[0].EndLine)
}

func TestRenameInvarianceOfGraphLabels(t *testing.T) {
	b := newGoBase()
	src1 := []byte("package p\n\nfunc f(a int) int {\n\treturn a + 1\n}\n")
	src2 := []byte("package p\n\nfunc g(x int) int {\n\treturn x + 1\n}\n")

	units1, err := b.ExtractCodeUnits(src1, "a.go")
	require.NoError(t, err)
	units2, err := b.ExtractCodeUnits(src2, "b.go")
	require.NoError(t, err)
	require.Len(t, units1, 1)
	require.Len(t, units2, 1)

	g1, err := b.CodeUnitToASTGraph(units1[0], false)
	require.NoError(t, err)
	g2, err := b.CodeUnitToASTGraph(units2[0], false)
	require.NoError(t, err)

	assert.Equal(t, g1.NodeCount(), g2.NodeCount())
	assert.Equal(t, collectLabels(g1), collectLabels(g2))
}

func collectLabels(g *graph.LabeledGraph) []string {
	var labels []string
	g.Walk(func(id graph.NodeID) bool {
		labels = append(labels, g.Label(id))
		return true
	})
	return labels
}
