// Package main hosts the facestage CLI entrypoint and command graph.
//
// The Cobra-based command tree starts the kiosk, inspects keyframe exports
// and session history, runs preflight checks and scaffolds configuration.
// It centralizes configuration resolution so subcommands can focus on their
// output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
