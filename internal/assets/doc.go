// Package assets loads the kiosk's asset manifest before the tick loop
// starts: the keyframe document, the soundtrack, and an optional capture
// recording. Loading is a one-shot asynchronous gate with bounded retries.
package assets
