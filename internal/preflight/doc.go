// Package preflight provides readiness checks for the files, directories,
// devices and binaries a kiosk run depends on.
//
// These checks run in two contexts:
//   - The kiosk calls RunAll before loading assets and refuses to start when
//     a required check fails.
//   - The CLI "facestage preflight" command prints every result as a table.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
