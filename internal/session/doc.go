// Package session persists one row per kiosk visitor in SQLite. A session is
// opened when capture starts and advances through captured, completed and
// shared timestamps as the experience moves on. Sessions left open by a
// crash are marked abandoned on the next start.
package session
