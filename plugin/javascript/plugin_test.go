package javascript_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/astrograph/plugin"
	jsplugin "github.com/oxhq/astrograph/plugin/javascript"
)

func TestLanguageMetadata(t *testing.T) {
	p := jsplugin.New()
	assert.Equal(t, "javascript", p.LanguageID())
	assert.Contains(t, p.FileExtensions(), ".js")
	assert.Contains(t, p.SkipDirs(), "node_modules")
}

func TestExtractCodeUnitsFunctionAndClass(t *testing.T) {
	p := jsplugin.New()
	src := []byte("class Point {\n  constructor(x, y) {\n    this.x = x;\n    this.y = y;\n  }\n}\n\nfunction total(a, b) {\n  return a + b;\n}\n")
	units, err := p.ExtractCodeUnits(src, "sample.js")
	require.NoError(t, err)

	var names []string
	var kinds []plugin.Kind
	for _, u := range units {
		names = append(names, u.Name)
		kinds = append(kinds, u.Kind)
		require.NoError(t, u.Validate())
	}
	assert.Contains(t, names, "total")
	assert.Contains(t, names, "Point")
	assert.Contains(t, kinds, plugin.KindFunction)
	assert.Contains(t, kinds, plugin.KindClass)
}

func TestArrowFunctionIsClassifiedAsFunction(t *testing.T) {
	p := jsplugin.New()
	src := []byte("const add = (a, b) => {\n  return a + b;\n};\n")
	units, err := p.ExtractCodeUnits(src, "sample.js")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, plugin.KindFunction, units[0].Kind)
}
