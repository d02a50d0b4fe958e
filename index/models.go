// Package index is the durable store of fingerprints, suppression state,
// and staleness invalidation (spec §4.6). Models follow models/models.go's
// GORM tagging conventions (sized varchar columns, jsonb-backed
// datatypes.JSON columns, explicit TableName methods); primary keys are
// autoincrement integers.
package index

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Entry is the persisted form of a CodeUnit (spec §3's IndexEntry).
type Entry struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	FilePath       string `gorm:"type:varchar(1024);index:idx_entries_file"`
	StartLine      int    `gorm:"not null"`
	EndLine        int    `gorm:"not null"`
	Kind           string `gorm:"type:varchar(20);not null"`
	LanguageID     string `gorm:"type:varchar(50);not null"`
	Name           string `gorm:"type:varchar(255)"`
	ExactHash      string `gorm:"type:varchar(32);index:idx_entries_exact"`
	PatternHash    string `gorm:"type:varchar(32);index:idx_entries_pattern"`
	NodeCount      int    `gorm:"not null"`
	EvidenceDigest string `gorm:"type:varchar(64);not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Entry) TableName() string { return "index_entries" }

// Suppression is a user-declared tolerance for a cluster (spec §3). It is
// active iff every digest in EvidenceDigests still matches a current
// Entry.EvidenceDigest (spec §4.6's invariant).
type Suppression struct {
	ID              uint           `gorm:"primaryKey;autoIncrement"`
	ClusterKey      string         `gorm:"type:varchar(128);uniqueIndex"`
	EvidenceDigests datatypes.JSON `gorm:"type:jsonb;not null"`
	Reason          string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (Suppression) TableName() string { return "suppressions" }

// evidenceDigestList unmarshals Suppression.EvidenceDigests into a []string.
func (s Suppression) evidenceDigestList() ([]string, error) {
	var digests []string
	if len(s.EvidenceDigests) == 0 {
		return digests, nil
	}
	if err := json.Unmarshal(s.EvidenceDigests, &digests); err != nil {
		return nil, err
	}
	return digests, nil
}
