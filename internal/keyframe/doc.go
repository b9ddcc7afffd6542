// Package keyframe holds the frame-indexed property tables that drive the
// camera and face animation.
//
// A Track stores each property as a flat slice of numbers with a fixed
// stride (1 for scalars, 3 for positions and scales, 4 for quaternions, the
// inner length for nested per-frame vectors). Sampling clamps the requested
// frame to the track's [in_frame, out_frame] window and returns the stride
// sized slice for that frame. There is no interpolation between frames.
//
// Document is the decoded keyframe asset: the camera, user, and i_extra
// tracks exported by the authoring tool.
package keyframe
