// Package capture provides the face capture collaborators: a replay source
// for recorded tracking sessions, a synthetic source for unattended runs, and
// a udev monitor that reports webcam hotplug events.
//
// Landmark detection itself happens outside the kiosk; sources only hand over
// per-tick samples and raise a one-shot completion signal.
package capture
