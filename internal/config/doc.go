// Package config loads, validates, and normalizes the catalog configuration.
//
// Configuration lives in a TOML file (default ~/.config/catalog/config.toml)
// with one section per subsystem: paths, transcription, llm, embeddings,
// search, workflow, and logging. Load applies defaults first, then the file,
// then normalization (path expansion) and validation, so a missing file
// yields a fully usable default configuration.
package config
