package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/astrograph/fingerprint"
	"github.com/oxhq/astrograph/graph"
	golangplugin "github.com/oxhq/astrograph/plugin/golang"
)

func extractOne(t *testing.T, src string) graphPair {
	t.Helper()
	p := golangplugin.New()
	units, err := p.ExtractCodeUnits([]byte(src), "f.go")
	require.NoError(t, err)
	require.Len(t, units, 1)

	exact, err := p.CodeUnitToASTGraph(units[0], false)
	require.NoError(t, err)
	pattern, err := p.CodeUnitToASTGraph(units[0], true)
	require.NoError(t, err)

	return graphPair{exact: exact, pattern: pattern}
}

type graphPair struct {
	exact   *graph.LabeledGraph
	pattern *graph.LabeledGraph
}

func TestRenameInvariance(t *testing.T) {
	g1 := extractOne(t, "package p\n\nfunc f(a int) int {\n\treturn a + 1\n}\n")
	g2 := extractOne(t, "package p\n\nfunc g(x int) int {\n\treturn x + 1\n}\n")

	assert.Equal(t, fingerprint.Graph(g1.exact), fingerprint.Graph(g2.exact))
	assert.Equal(t, fingerprint.Graph(g1.pattern), fingerprint.Graph(g2.pattern))
}

func TestOperatorNormalization(t *testing.T) {
	g1 := extractOne(t, "package p\n\nfunc f(a, b int) int {\n\treturn a + b\n}\n")
	g2 := extractOne(t, "package p\n\nfunc f(a, b int) int {\n\treturn a - b\n}\n")

	assert.Equal(t, fingerprint.Graph(g1.pattern), fingerprint.Graph(g2.pattern))
	assert.NotEqual(t, fingerprint.Graph(g1.exact), fingerprint.Graph(g2.exact))
}

func TestOrderingSensitivity(t *testing.T) {
	g1 := extractOne(t, "package p\n\nfunc f() int {\n\ta := 1\n\tb := a * 2\n\treturn a + b\n}\n")
	g2 := extractOne(t, "package p\n\nfunc f() int {\n\tb := a * 2\n\ta := 1\n\treturn a + b\n}\n")

	assert.NotEqual(t, fingerprint.Graph(g1.exact), fingerprint.Graph(g2.exact))
	assert.NotEqual(t, fingerprint.Graph(g1.pattern), fingerprint.Graph(g2.pattern))
}

func TestDeterminismAcrossRuns(t *testing.T) {
	g1 := extractOne(t, "package p\n\nfunc f(a int) int {\n\treturn a + 1\n}\n")
	d1 := fingerprint.Graph(g1.exact)
	d2 := fingerprint.Graph(g1.exact)
	assert.Equal(t, d1, d2)
	assert.Equal(t, d1.String(), d2.String())
}

func TestEmptyGraphIsZeroDigest(t *testing.T) {
	g := graph.New()
	d := fingerprint.Graph(g)
	assert.True(t, d.IsZero())
}

func TestEvidenceDigestChangesWithContent(t *testing.T) {
	d1 := fingerprint.EvidenceDigest([]byte("func f() {}"))
	d2 := fingerprint.EvidenceDigest([]byte("func g() {}"))
	assert.NotEqual(t, d1, d2)
	assert.Equal(t, d1, fingerprint.EvidenceDigest([]byte("func f() {}")))
}
