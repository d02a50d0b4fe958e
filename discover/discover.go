// Package discover clusters CodeUnits by fingerprint, applies significance
// thresholds, and emits DuplicateCluster records (spec §4.5). The
// map-then-threshold-then-sort shape is grounded on
// other_examples' standardbeagle-lci DuplicateDetector (exact/structural
// hash maps keyed by a computed digest, filtered by minLines/minTokens),
// adapted onto this module's Fingerprint/CodeUnit/LabeledGraph types.
package discover

import (
	"sort"
	"strconv"

	"github.com/oxhq/astrograph/fingerprint"
	"github.com/oxhq/astrograph/plugin"
)

// ClusterKind classifies a DuplicateCluster (spec §3).
type ClusterKind string

const (
	ClusterExact   ClusterKind = "exact"
	ClusterPattern ClusterKind = "pattern"
	ClusterBlock   ClusterKind = "block"
)

// MixedLanguage is the language_id tag applied to a cluster whose members
// span more than one language (spec §4.5's "Clusters crossing languages").
const MixedLanguage = "mixed"

// Thresholds configures the significance filters of spec §4.5 step 3.
// Zero-valued numeric fields are replaced by DefaultThresholds at Discover
// time; IncludeBlocks is used as given, so the zero value leaves block
// clusters out.
type Thresholds struct {
	MinNodeCountExact int
	MinNodeCountBlock int
	MinBlockLines     int
	IncludeBlocks     bool
}

// DefaultThresholds mirrors spec §4.5's stated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinNodeCountExact: 5,
		MinNodeCountBlock: 10,
		MinBlockLines:     3,
		IncludeBlocks:     true,
	}
}

// PreCreateThreshold is the min_node_count used by the write/edit pre-create
// check (spec §4.5 step 3, §6).
const PreCreateThreshold = 10

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MinNodeCountExact <= 0 {
		t.MinNodeCountExact = d.MinNodeCountExact
	}
	if t.MinNodeCountBlock <= 0 {
		t.MinNodeCountBlock = d.MinNodeCountBlock
	}
	if t.MinBlockLines <= 0 {
		t.MinBlockLines = d.MinBlockLines
	}
	return t
}

// Unit is a fingerprinted CodeUnit, the input to Discover. Callers compute
// this by extracting units per file and fingerprinting each unit's exact
// and pattern graphs (fingerprint.Graph).
type Unit struct {
	plugin.CodeUnit
	Fingerprint fingerprint.Fingerprint
}

// Member is one CodeUnit location within a DuplicateCluster.
type Member struct {
	LanguageID string
	FilePath   string
	StartLine  int
	EndLine    int
	Name       string
	SourceText string
}

// DuplicateCluster is a set of >=2 CodeUnits sharing a fingerprint (spec §3).
type DuplicateCluster struct {
	Kind        ClusterKind
	Fingerprint fingerprint.Digest
	LanguageID  string
	NodeCount   int
	LineCount   int
	Members     []Member
}

// SuppressionChecker reports whether a candidate cluster (identified by its
// cluster key and the evidence digests of its members) is currently covered
// by an active suppression (spec §4.5 step 4). Implemented by the index
// package; kept as an interface here so discover has no storage dependency.
type SuppressionChecker interface {
	IsSuppressed(clusterKey string, evidenceDigests []string) bool
}

// Discover implements spec §4.5: partition by (kind, fingerprint_type),
// group by fingerprint value, drop groups under 2 members, apply
// thresholds, drop suppressed groups, then order deterministically.
func Discover(units []Unit, thresholds Thresholds, suppressions SuppressionChecker) []DuplicateCluster {
	thresholds = thresholds.withDefaults()

	exactGroups := groupBy(units, false, func(u Unit) fingerprint.Digest { return u.Fingerprint.Exact })
	patternGroups := groupBy(units, false, func(u Unit) fingerprint.Digest { return u.Fingerprint.Pattern })

	var clusters []DuplicateCluster
	clusters = append(clusters, buildClusters(exactGroups, ClusterExact, thresholds, suppressions)...)
	patternClusters := buildClusters(patternGroups, ClusterPattern, thresholds, suppressions)
	patternClusters = dropPatternSupersetsOfExact(patternClusters, clusters)
	clusters = append(clusters, patternClusters...)

	if thresholds.IncludeBlocks {
		blockUnits := filterKind(units, plugin.KindBlock)
		blockGroups := groupBy(blockUnits, true, func(u Unit) fingerprint.Digest { return u.Fingerprint.Exact })
		clusters = append(clusters, buildClusters(blockGroups, ClusterBlock, thresholds, suppressions)...)
	}

	sortClusters(clusters)
	return clusters
}

func filterKind(units []Unit, kind plugin.Kind) []Unit {
	var out []Unit
	for _, u := range units {
		if u.Kind == kind {
			out = append(out, u)
		}
	}
	return out
}

func groupBy(units []Unit, blocks bool, key func(Unit) fingerprint.Digest) map[fingerprint.Digest][]Unit {
	groups := make(map[fingerprint.Digest][]Unit)
	for _, u := range units {
		if (u.Kind == plugin.KindBlock) != blocks {
			continue // block clusters are built separately, always from Exact
		}
		d := key(u)
		if d.IsZero() {
			continue
		}
		groups[d] = append(groups[d], u)
	}
	return groups
}

func buildClusters(groups map[fingerprint.Digest][]Unit, kind ClusterKind, thresholds Thresholds, suppressions SuppressionChecker) []DuplicateCluster {
	var clusters []DuplicateCluster
	for digest, members := range groups {
		if len(members) < 2 {
			continue
		}
		if !passesThreshold(members, kind, thresholds) {
			continue
		}

		clusterKey := string(kind) + ":" + digest.String()
		if suppressions != nil {
			digests := make([]string, len(members))
			for i, m := range members {
				digests[i] = fingerprint.EvidenceDigest([]byte(m.SourceText))
			}
			if suppressions.IsSuppressed(clusterKey, digests) {
				continue
			}
		}

		clusters = append(clusters, toCluster(kind, digest, members))
	}
	return clusters
}

func passesThreshold(members []Unit, kind ClusterKind, thresholds Thresholds) bool {
	for _, m := range members {
		switch kind {
		case ClusterBlock:
			if m.NodeCount < thresholds.MinNodeCountBlock || m.LineCount() < thresholds.MinBlockLines {
				return false
			}
		default:
			if m.NodeCount < thresholds.MinNodeCountExact {
				return false
			}
		}
	}
	return true
}

func toCluster(kind ClusterKind, digest fingerprint.Digest, members []Unit) DuplicateCluster {
	languageID := members[0].LanguageID
	for _, m := range members[1:] {
		if m.LanguageID != languageID {
			languageID = MixedLanguage
			break
		}
	}

	memberList := make([]Member, len(members))
	for i, m := range members {
		memberList[i] = Member{
			LanguageID: m.LanguageID,
			FilePath:   m.FilePath,
			StartLine:  m.StartLine,
			EndLine:    m.EndLine,
			Name:       m.Name,
			SourceText: string(m.SourceText),
		}
	}
	sort.Slice(memberList, func(i, j int) bool {
		if memberList[i].FilePath != memberList[j].FilePath {
			return memberList[i].FilePath < memberList[j].FilePath
		}
		return memberList[i].StartLine < memberList[j].StartLine
	})

	return DuplicateCluster{
		Kind:        kind,
		Fingerprint: digest,
		LanguageID:  languageID,
		NodeCount:   members[0].NodeCount,
		LineCount:   members[0].LineCount(),
		Members:     memberList,
	}
}

// dropPatternSupersetsOfExact implements spec §4.5's tie-break: when a
// pattern cluster has identical membership to an already-reported exact
// cluster, drop the pattern cluster to avoid double-counting.
func dropPatternSupersetsOfExact(patternClusters, exactClusters []DuplicateCluster) []DuplicateCluster {
	exactMemberSets := make([]string, 0, len(exactClusters))
	for _, c := range exactClusters {
		exactMemberSets = append(exactMemberSets, membershipKey(c.Members))
	}

	var out []DuplicateCluster
	for _, c := range patternClusters {
		key := membershipKey(c.Members)
		redundant := false
		for _, ek := range exactMemberSets {
			if ek == key {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, c)
		}
	}
	return out
}

func membershipKey(members []Member) string {
	key := ""
	for _, m := range members {
		key += m.FilePath + ":" + strconv.Itoa(m.StartLine) + "-" + strconv.Itoa(m.EndLine) + "|"
	}
	return key
}

// sortClusters orders clusters deterministically by (kind, descending
// node_count, first file_path, first start_line) per spec §4.5 step 5.
func sortClusters(clusters []DuplicateCluster) {
	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.NodeCount != b.NodeCount {
			return a.NodeCount > b.NodeCount
		}
		if len(a.Members) == 0 || len(b.Members) == 0 {
			return len(a.Members) > len(b.Members)
		}
		if a.Members[0].FilePath != b.Members[0].FilePath {
			return a.Members[0].FilePath < b.Members[0].FilePath
		}
		return a.Members[0].StartLine < b.Members[0].StartLine
	})
}
