// Package render draws the scene once per tick. Rendering is a point
// projector: node vertices are projected through the perspective camera and
// plotted onto a character grid for the terminal or a pixel buffer for PNG
// snapshots. The debug overlay renders tick statistics as a text table.
package render
