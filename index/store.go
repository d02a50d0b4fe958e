package index

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrKind tags the kinds of errors this package returns. It mirrors
// engine.ErrKind's vocabulary for the subset relevant to index operations
// (spec §7): io_error, index_corruption, concurrent_run_refused.
type ErrKind string

const (
	ErrKindIO                   ErrKind = "io_error"
	ErrKindIndexCorruption      ErrKind = "index_corruption"
	ErrKindConcurrentRunRefused ErrKind = "concurrent_run_refused"
)

// Error wraps an underlying error with its ErrKind.
type Error struct {
	Kind ErrKind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Store is the persistent index of fingerprints with suppression state
// (spec §4.6). Connect follows db/sqlite.go's Connect: non-URL DSNs get
// their parent directory created and open via a local SQLite dialector;
// URL DSNs (Turso/libSQL) open through a libsql connector wrapped in the
// same dialector type. The SQLite driver is glebarez/sqlite (cgo-free)
// instead of the teacher's mattn-backed gorm.io/driver/sqlite; see
// DESIGN.md for why.
type Store struct {
	db *gorm.DB

	writeMu   sync.Mutex
	writeHeld bool
}

// Open connects to dsn and runs migrations, mirroring db/sqlite.go's
// Connect(dsn, debug).
func Open(dsn string, debug bool) (*Store, error) {
	if !isURL(dsn) {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &Error{Kind: ErrKindIO, Err: fmt.Errorf("create index directory: %w", err)}
			}
		}
	}

	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	if isURL(dsn) {
		token := os.Getenv("ASTROGRAPH_LIBSQL_AUTH_TOKEN")
		var (
			connector driver.Connector
			err       error
		)
		if token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, &Error{Kind: ErrKindIO, Err: fmt.Errorf("create libsql connector: %w", err)}
		}
		conn := sql.OpenDB(connector)
		dialector = sqlite.Dialector{DriverName: "libsql", Conn: conn, DSN: dsn}
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, &Error{Kind: ErrKindIO, Err: fmt.Errorf("connect: %w", err)}
	}

	if err := db.AutoMigrate(&Entry{}, &Suppression{}); err != nil {
		return nil, &Error{Kind: ErrKindIndexCorruption, Err: fmt.Errorf("migrate: %w", err)}
	}

	return &Store{db: db}, nil
}

func isURL(dsn string) bool {
	return len(dsn) > 7 && (dsn[:7] == "http://" || (len(dsn) > 8 && dsn[:8] == "https://") || (len(dsn) > 6 && dsn[:6] == "libsql"))
}

// Lock acquires the single-writer lock for the duration of an analysis run
// (spec §5's "Index writes: serialized behind a single writer"). A second
// concurrent Lock call fails fast with concurrent_run_refused per spec §7.
func (s *Store) Lock() (func(), error) {
	if !s.writeMu.TryLock() {
		return nil, &Error{Kind: ErrKindConcurrentRunRefused, Err: fmt.Errorf("another writer holds the index lock")}
	}
	s.writeHeld = true
	return func() {
		s.writeHeld = false
		s.writeMu.Unlock()
	}, nil
}

// Upsert atomically replaces file's entries (spec §4.6's upsert).
func (s *Store) Upsert(filePath string, entries []Entry) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_path = ?", filePath).Delete(&Entry{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].ID = 0
			entries[i].FilePath = filePath
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Remove deletes all entries for a file, e.g. when the file disappears.
func (s *Store) Remove(filePath string) error {
	return s.db.Where("file_path = ?", filePath).Delete(&Entry{}).Error
}

// AllEntries returns every IndexEntry currently persisted, used by the
// engine to find files that vanished between runs and by the suppression
// checks to collect current evidence digests.
func (s *Store) AllEntries() ([]Entry, error) {
	var entries []Entry
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// AddSuppression records a user-declared tolerance (spec §4.6).
func (s *Store) AddSuppression(clusterKey string, evidenceDigests []string, reason string) error {
	payload, err := json.Marshal(evidenceDigests)
	if err != nil {
		return err
	}
	suppression := Suppression{
		ClusterKey:      clusterKey,
		EvidenceDigests: payload,
		Reason:          reason,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cluster_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"evidence_digests", "reason", "created_at"}),
	}).Create(&suppression).Error
}

// ListActiveSuppressions returns suppressions whose every evidence digest
// still matches a current Entry.EvidenceDigest (spec §4.6).
func (s *Store) ListActiveSuppressions() ([]Suppression, error) {
	all, err := s.allSuppressions()
	if err != nil {
		return nil, err
	}
	currentDigests, err := s.currentEvidenceDigestSet()
	if err != nil {
		return nil, err
	}

	var active []Suppression
	for _, sup := range all {
		if s.isActive(sup, currentDigests) {
			active = append(active, sup)
		}
	}
	return active, nil
}

// SuppressionStatus partitions every stored suppression into active and
// stale groups in a single pass, used by the reporter to surface which
// suppressions applied to a run and which were skipped for staleness
// (spec §4.6, SPEC_FULL.md §4's "suppression reasons surfaced in the
// report").
type SuppressionStatus struct {
	Active []Suppression
	Stale  []Suppression
}

// ListSuppressionStatus reports every suppression's active/stale state
// against the current set of index entries.
func (s *Store) ListSuppressionStatus() (SuppressionStatus, error) {
	all, err := s.allSuppressions()
	if err != nil {
		return SuppressionStatus{}, err
	}
	currentDigests, err := s.currentEvidenceDigestSet()
	if err != nil {
		return SuppressionStatus{}, err
	}

	var status SuppressionStatus
	for _, sup := range all {
		if s.isActive(sup, currentDigests) {
			status.Active = append(status.Active, sup)
		} else {
			status.Stale = append(status.Stale, sup)
		}
	}
	return status, nil
}

// PruneStaleSuppressions removes every suppression that is not active, that
// is, one with at least one evidence digest no current entry carries (spec
// §4.6).
func (s *Store) PruneStaleSuppressions() (int, error) {
	all, err := s.allSuppressions()
	if err != nil {
		return 0, err
	}
	currentDigests, err := s.currentEvidenceDigestSet()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, sup := range all {
		if !s.isActive(sup, currentDigests) {
			if err := s.db.Delete(&Suppression{}, sup.ID).Error; err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}

// IsSuppressed implements discover.SuppressionChecker: a candidate cluster
// is suppressed if an active suppression exists for its cluster key whose
// evidence digest set exactly matches the candidate's.
func (s *Store) IsSuppressed(clusterKey string, evidenceDigests []string) bool {
	var sup Suppression
	if err := s.db.Where("cluster_key = ?", clusterKey).First(&sup).Error; err != nil {
		return false
	}
	digests, err := sup.evidenceDigestList()
	if err != nil {
		return false
	}
	return sameSet(digests, evidenceDigests)
}

func (s *Store) allSuppressions() ([]Suppression, error) {
	var all []Suppression
	if err := s.db.Find(&all).Error; err != nil {
		return nil, err
	}
	return all, nil
}

func (s *Store) currentEvidenceDigestSet() (map[string]bool, error) {
	entries, err := s.AllEntries()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e.EvidenceDigest] = true
	}
	return set, nil
}

func (s *Store) isActive(sup Suppression, currentDigests map[string]bool) bool {
	digests, err := sup.evidenceDigestList()
	if err != nil || len(digests) == 0 {
		return false
	}
	for _, d := range digests {
		if !currentDigests[d] {
			return false
		}
	}
	return true
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, v := range a {
		set[v]++
	}
	for _, v := range b {
		set[v]--
	}
	for _, n := range set {
		if n != 0 {
			return false
		}
	}
	return true
}
