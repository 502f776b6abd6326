// Package config provides configuration for keypad.
//
// Configuration is resolved in layers, each overriding the one below:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← KEYPAD_RECOVERY_INTERVAL=10s
//	├─────────────────────────────┤
//	│  2. Config File (TOML)      │  ← ~/.config/keypad/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// Settings are addressed by dot-separated paths such as "files.eol".
// Typed section accessors (Files, Recovery, Session, Search, Logging)
// return snapshot structs and fall back to defaults for missing or
// mistyped values; mistyped values are recorded and reported by
// ConfigErrors.
//
// # Basic Usage
//
//	cfg := config.New(config.WithConfigFile(path))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	interval := cfg.Recovery().Interval
//
// # Example Configuration
//
//	[files]
//	encoding = "utf-8"
//	eol = "crlf"
//	trimTrailingWhitespace = true
//
//	[recovery]
//	interval = "15s"
//
//	[search]
//	wrapAround = false
package config
