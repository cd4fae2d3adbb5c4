// Package fav provides embedded assets for the fav command.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. `fav init` writes this file into the data directory
// so first-time users get a commented config to edit.
package fav

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time and regenerated by cmd/genconfig.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
