package config

// Default paths for the store
const (
	// DefaultDatabasePath is the default directory for the on-device store.
	DefaultDatabasePath = "./bookreader-store"

	// DefaultDemoDatabasePath is where the demo generator writes its store.
	DefaultDemoDatabasePath = "./demo/bookreader-store"
)
