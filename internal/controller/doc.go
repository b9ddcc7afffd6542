// Package controller defines the per-tick units that write scene transforms
// and the ordered set that drives them.
//
// Controllers are registered once and never removed; the experience toggles
// them on state transitions. A Set snapshots the enabled flags at the start
// of each tick, so toggles made by side effects during a tick apply from the
// next tick on.
package controller
