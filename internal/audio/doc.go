// Package audio holds the soundtrack asset and the playback handle whose
// position locks the experience clock. Decoding is left to an optional
// external player process; the kiosk only needs a trustworthy position.
package audio
