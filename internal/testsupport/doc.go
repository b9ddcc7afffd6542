// Package testsupport holds fixtures shared by package tests: temp-dir
// configs, keyframe documents and fake collaborators.
package testsupport
