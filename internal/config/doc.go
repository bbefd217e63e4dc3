// Package config loads, normalizes, and validates docshelf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DOCSHELF_STATE_DIR
// environment fallback. Routing thresholds, collaborator tool names, and the
// state-file locations are all resolved here so the queue, router, and
// executor receive one flat, validated options structure.
//
// Every error returned by Load wraps services.ErrConfiguration, which callers
// treat as fatal before any queue entry is touched.
package config
