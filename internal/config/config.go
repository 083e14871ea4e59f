// Package config holds the harness's runtime configuration, adapted
// from the teacher's flag-based Config/Load into the shape the
// urfave/cli front end in cmd/rammbock populates (SPEC_FULL.md §2
// Configuration).
package config

// Config is the set of values a harness run needs outside of the
// protocol/message scripts themselves.
type Config struct {
	// ListenAddr is the address a transport.Server binds, e.g. ":8282".
	ListenAddr string
	// LogLevel is passed straight to internal/logging.New.
	LogLevel string
	// Network is the transport kind new clients/servers default to when a
	// script doesn't say otherwise: "tcp", or "udp" for clients only
	// (transport.Listen rejects "udp").
	Network string
	// RegistrySize bounds the session's protocol/message/client/server
	// caches (internal/registry), mirroring registry.DefaultSize.
	RegistrySize int
}

// Default returns the harness's baseline configuration; cmd/rammbock's
// CLI flags override individual fields on top of this.
func Default() *Config {
	return &Config{
		ListenAddr:   ":8282",
		LogLevel:     "info",
		Network:      "tcp",
		RegistrySize: 128,
	}
}
