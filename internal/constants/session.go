package constants

import "time"

const (
	// SessionCookieName identifies the dashboard session of a browser.
	SessionCookieName = "hydro_session"

	// DefaultSessionTTL is how long an idle session survives before teardown.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultReapInterval is how often idle sessions are looked for.
	DefaultReapInterval = time.Minute

	DefaultListenAddr = ":8080"

	// DefaultMetricsInterval is how often host metrics are sampled.
	DefaultMetricsInterval = 10 * time.Second
)

// Storage drivers.
const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)
