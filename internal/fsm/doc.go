// Package fsm implements the experience state machine.
//
// States and events form a fixed transition table, validated when the
// machine is built: every event is legal from exactly one state, every state
// referenced by the table is declared, and every state is reachable from the
// initial one. Fire changes state exactly once and runs the destination's
// enter hooks before returning. An event fired from inside a hook is queued
// and processed after the running transition finishes, so transitions never
// overlap.
//
// The machine is not safe for concurrent use. It is driven from the single
// experience loop.
package fsm
