// Package config loads, normalizes, and validates facestage configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FACESTAGE_S3_BUCKET. The Config type centralizes every knob the kiosk and
// CLI need, from the asset manifest to the share backend.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
