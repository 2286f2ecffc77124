package store

import "time"

// Config groups backend settings
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures the warehouse pool
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures the stream sink
type CHConfig struct {
	Enabled bool
	URL     string
	LogSQL  bool

	// ClientName and ClientTag end up in system.query_log client info
	ClientName string
	ClientTag  string
}
