// Package face implements the deformable face mesh. While capture runs the
// mesh follows live feature points; once captured it is frozen as the morph
// base and driven by per-frame vertex offsets from the keyframe document.
package face
