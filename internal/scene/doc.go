// Package scene holds the transforms the controllers write each tick: small
// vector/quaternion/matrix math, scene nodes, and the perspective camera.
//
// Matrices are column-major 4x4 arrays, matching the layout of the
// exported rigid transforms and keyframe data.
package scene
