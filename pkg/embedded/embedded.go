// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
// - Seed data (seed/instruments.json) - the default instrument
//   catalogue loaded by the mock reference-data server when no --seed
//   file is given
//
//go:embed seed
var Files embed.FS

// SeedPath is the embedded default catalogue location within Files.
const SeedPath = "seed/instruments.json"
