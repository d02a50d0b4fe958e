// Package fingerprint computes structural digests over graph.LabeledGraph
// values. Hashing is grounded on providers/golang/cache.go's
// sha256.Sum256-over-bytes discipline (used there to key parsed ASTs), bent
// here into a bottom-up Merkle hash over a graph instead of a flat byte
// slice.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/oxhq/astrograph/graph"
)

// Digest is a fixed-width structural fingerprint: the first 16 bytes of a
// SHA-256 hash, acceptable per the truncated-256-bit allowance.
type Digest [16]byte

// String renders the digest as lowercase hex, suitable for use as a map key
// or a persisted column value.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest, the value returned for an
// empty graph.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Fingerprint is the pair of digests the specification requires per
// CodeUnit: Exact preserves operator identity, Pattern normalizes operators
// to a generic class.
type Fingerprint struct {
	Exact   Digest
	Pattern Digest
}

// Of computes both fingerprints of a unit from its two separately-built
// graphs (one per normalizeOps value, as
// plugin.LanguagePlugin.CodeUnitToASTGraph produces): Exact is Graph of
// exactGraph and Pattern is Graph of patternGraph.
func Of(exactGraph, patternGraph *graph.LabeledGraph) Fingerprint {
	return Fingerprint{
		Exact:   Graph(exactGraph),
		Pattern: Graph(patternGraph),
	}
}

// Graph computes the bottom-up structural digest of g: for each node n with
// children c1..ck in insertion order, h(n) = H(label(n) || h(c1) || ... ||
// h(ck)). Node ids never enter the hash input, only labels and child
// structure, so isomorphic graphs under any node-id renumbering (e.g. after
// identifier renaming collapses distinct source trees onto the same
// skeleton) hash identically. An empty graph hashes to the zero digest.
func Graph(g *graph.LabeledGraph) Digest {
	root, ok := g.Root()
	if !ok {
		return Digest{}
	}
	memo := make(map[graph.NodeID]Digest, g.NodeCount())
	return nodeDigest(g, root, memo)
}

func nodeDigest(g *graph.LabeledGraph, id graph.NodeID, memo map[graph.NodeID]Digest) Digest {
	if d, ok := memo[id]; ok {
		return d
	}

	h := sha256.New()
	writeString(h, g.Label(id))

	for _, child := range g.Children(id) {
		cd := nodeDigest(g, child, memo)
		h.Write(cd[:])
	}

	sum := h.Sum(nil)
	var d Digest
	copy(d[:], sum[:16])
	memo[id] = d
	return d
}

// EvidenceDigest hashes a CodeUnit's raw source bytes, grounded directly on
// providers/golang/cache.go's ASTCache.hash: full SHA-256 hex of the bytes,
// used by the index to detect when a unit's content has changed and by
// Suppression staleness checks (spec §4.6).
func EvidenceDigest(sourceText []byte) string {
	sum := sha256.Sum256(sourceText)
	return hex.EncodeToString(sum[:])
}

// writeString writes a length-prefixed string into h so that concatenation
// of a short label followed by a child digest can never be confused with a
// different split of the same bytes (length-extension ambiguity), keeping
// the digest a faithful function of (label, ordered child digests) alone.
func writeString(h interface{ Write([]byte) (int, error) }, s string) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
	h.Write(lenBuf[:])
	h.Write([]byte(s))
}
