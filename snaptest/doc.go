// Package snaptest provides reusable store contract tests for snapcore.Store
// implementations.
//
// Backend implementations can use this package from their own tests without
// importing root test helpers.
//
// Example pattern:
//
//	func TestRedisStoreContract(t *testing.T) {
//		client := newTestRedisClient(t)
//		store := cachesnap.NewRedisStore(context.Background(), client, cachesnap.WithPrefix("test"))
//
//		// Namespace keys per test and tune TTL waits for backend semantics as needed.
//		snaptest.RunStoreContract(t, store, snaptest.Options{
//			CaseName: t.Name(),
//			TTL:      time.Second,
//			TTLWait:  1500 * time.Millisecond,
//		})
//	}
package snaptest
