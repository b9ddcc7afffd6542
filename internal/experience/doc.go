// Package experience is the kiosk's composition root. It owns the state
// machine, the clock, the controller set and the scene, and turns load
// completion, capture completion, playback completion and the share dwell
// into state transitions.
//
// The lifecycle is explicit: New wires the state machine, HandleLoad builds
// the scene and controllers from loaded assets and enters the first session,
// Tick advances one frame, and Close releases playback, capture and the
// background recorder. All methods except Close's recorder drain must be
// called from the single loop goroutine.
package experience
