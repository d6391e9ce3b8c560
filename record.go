package cachesnap

import (
	"runtime"
	"testing"
)

// Record opens a recording session scoped to the calling test. The session
// closes automatically when the test finishes: a failed test only detaches
// instrumentation, a passing test compares against (or creates) the stored
// snapshot and reports a mismatch as a test failure.
//
//	func TestUserLookup(t *testing.T) {
//		cachesnap.Record(t, registry)
//		// code under test; its cache traffic is captured
//	}
//
// The snapshot file defaults to the caller's source file with the ".go"
// suffix replaced by ".snap.yml"; the recording name defaults to t.Name().
func Record(t testing.TB, reg *Registry, opts ...Option) *Session {
	t.Helper()

	info := TestInfo{Name: t.Name()}
	if _, file, _, ok := runtime.Caller(1); ok {
		info.FilePath = file
	}
	opts = append([]Option{WithTestInfo(info)}, opts...)

	sess, err := Begin(reg, opts...)
	if err != nil {
		t.Fatalf("cachesnap: begin recording: %v", err)
	}
	t.Cleanup(func() {
		if t.Failed() {
			sess.Abort()
			return
		}
		if err := sess.Close(); err != nil {
			t.Errorf("%v", err)
		}
	})
	return sess
}
