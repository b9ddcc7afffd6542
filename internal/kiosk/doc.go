// Package kiosk assembles a facestage process: single-instance lock,
// preflight, logging, session history, snapshot sharing, metrics and webcam
// hotplug monitoring around one experience. It drives the experience either
// full-screen on a terminal or headless from a ticker.
package kiosk
