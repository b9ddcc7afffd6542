// Package services defines shared utilities consumed by the kiosk components.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs and experience states for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into process exit codes and retry decisions.
//
// Use these helpers when wiring new components so failure handling and
// observability stay uniform across the kiosk.
package services
