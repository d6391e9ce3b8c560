package cachesnap

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/goforj/cachesnap/snapcore"
	"github.com/goforj/cachesnap/snapfile"
)

// TestInfo identifies the currently executing test. It is the narrow input
// the session needs to derive a snapshot path and recording name; how it is
// obtained (testing.TB, a suite runner) is the caller's concern.
type TestInfo struct {
	FilePath string
	Suite    string
	Name     string
}

// NameScope deduplicates recording names when one test opens several
// sessions: repeat sessions with the same base name get ".2", ".3", …
// suffixes. Counters are kept per base name, so sessions for other tests
// interleaving in the same scope never disturb a test's own sequence.
// Record uses a process-wide scope since base names already differ across
// tests.
type NameScope struct {
	mu   sync.Mutex
	seen map[string]int
}

func (s *NameScope) next(base string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string]int)
	}
	s.seen[base]++
	if n := s.seen[base]; n > 1 {
		return fmt.Sprintf("%s.%d", base, n)
	}
	return base
}

var defaultNameScope = &NameScope{}

// Option configures a recording session.
type Option func(*sessionConfig)

type sessionConfig struct {
	path  string
	name  string
	scope *NameScope
	info  *TestInfo
}

// WithSnapshotPath sets the snapshot file path explicitly.
func WithSnapshotPath(path string) Option {
	return func(cfg *sessionConfig) { cfg.path = path }
}

// WithRecordName sets the recording name explicitly, bypassing both
// derivation from TestInfo and duplicate-name suffixing.
func WithRecordName(name string) Option {
	return func(cfg *sessionConfig) { cfg.name = name }
}

// WithNameScope sets the scope used for duplicate-name suffixing.
func WithNameScope(scope *NameScope) Option {
	return func(cfg *sessionConfig) { cfg.scope = scope }
}

// WithTestInfo supplies test identity used to derive defaults for the
// snapshot path and recording name.
func WithTestInfo(info TestInfo) Option {
	return func(cfg *sessionConfig) { cfg.info = &info }
}

// MismatchError reports that a recorded operation sequence differs from the
// stored snapshot. The stored snapshot is left untouched.
type MismatchError struct {
	Name string
	Diff string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("cache operations did not match for %s", e.Name)
	if e.Diff != "" {
		msg += "\n" + e.Diff
	}
	return msg
}

// Session records cache operations across all backends of a registry for
// the duration of one test, then compares the captured sequence against the
// stored snapshot (or persists it on first run).
type Session struct {
	path   string
	name   string
	file   *snapfile.KVFile
	rec    *Recorder
	record snapcore.Recording
	done   bool
}

// Begin opens a recording session: loads the snapshot file, attaches
// interceptors to every backend in reg, and starts accumulating events.
// Callers must finish the session with Close (test body succeeded) or Abort
// (test body failed).
func Begin(reg *Registry, opts ...Option) (*Session, error) {
	var cfg sessionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	name := cfg.name
	if name == "" {
		if cfg.info == nil || cfg.info.Name == "" {
			return nil, errors.New("cachesnap: a recording name or test info is required")
		}
		base := cfg.info.Name
		if cfg.info.Suite != "" {
			base = cfg.info.Suite + "." + cfg.info.Name
		}
		scope := cfg.scope
		if scope == nil {
			scope = defaultNameScope
		}
		name = scope.next(base)
	}

	path := cfg.path
	if path == "" {
		if cfg.info == nil || cfg.info.FilePath == "" {
			return nil, errors.New("cachesnap: a snapshot path or test file path is required")
		}
		path = SnapshotPath(cfg.info.FilePath)
	}

	file, err := snapfile.Load(path)
	if err != nil {
		return nil, err
	}

	s := &Session{
		path: path,
		name: name,
		file: file,
	}
	rec, err := InterceptAll(reg, s.append)
	if err != nil {
		return nil, err
	}
	s.rec = rec
	return s, nil
}

// SnapshotPath derives the snapshot file name for a test source file:
// "foo_test.go" becomes "foo_test.snap.yml".
func SnapshotPath(testFile string) string {
	return strings.TrimSuffix(testFile, ".go") + ".snap.yml"
}

// Name returns the resolved recording name.
func (s *Session) Name() string { return s.name }

// Path returns the resolved snapshot file path.
func (s *Session) Path() string { return s.path }

func (s *Session) append(ev Event) {
	s.record = append(s.record, ev)
}

// Close finishes a session whose test body completed normally. Interceptors
// detach first, so instrumentation is removed even when the comparison
// fails. A first run persists the captured recording; later runs compare
// against the stored one and return a *MismatchError on difference, leaving
// the snapshot untouched.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.rec.Detach()

	stored, ok := s.file.Get(s.name)
	if !ok {
		return s.file.SetAndSave(s.name, s.record)
	}
	if !stored.Equal(s.record) {
		return &MismatchError{Name: s.name, Diff: recordingDiff(s.name, stored, s.record)}
	}
	return nil
}

// Abort finishes a session whose test body failed. Interceptors detach, but
// nothing is compared or persisted: an unrelated test failure must not
// corrupt or create snapshots.
func (s *Session) Abort() {
	if s.done {
		return
	}
	s.done = true
	s.rec.Detach()
}

func recordingDiff(name string, stored, captured snapcore.Recording) string {
	want, err := snapfile.Render(stored)
	if err != nil {
		return ""
	}
	got, err := snapfile.Render(captured)
	if err != nil {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(name), want, got)
	return fmt.Sprint(gotextdiff.ToUnified("stored", "recorded", want, edits))
}
