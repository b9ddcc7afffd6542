// Package clock turns wall time or a media position into the frame number
// every tick consumes.
//
// A Clock starts free-running from the session start and is locked exactly
// once to an external media clock (the audio playback) when capture
// completes. After locking, the free-running source is never consulted again.
package clock
