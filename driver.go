package cachesnap

import "github.com/goforj/cachesnap/snapcore"

// Store is the cache backend contract the recorder instruments.
type Store = snapcore.Store

// Driver identifies cache backend.
type Driver = snapcore.Driver

const (
	DriverNull   = snapcore.DriverNull
	DriverFile   = snapcore.DriverFile
	DriverMemory = snapcore.DriverMemory
	DriverSQL    = snapcore.DriverSQL
	DriverRedis  = snapcore.DriverRedis
)

// Op and Event re-export the recorded-operation types for callers that only
// import the root package.
type (
	Op    = snapcore.Op
	Event = snapcore.Event
)

// DefaultAlias is the conventional name of the primary cache backend.
const DefaultAlias = snapcore.DefaultAlias

// CleanKey strips volatile fragments (hashes, UUIDs, numeric ids) from a
// cache key so recordings stay stable across runs.
func CleanKey(key string) string { return snapcore.CleanKey(key) }
