// Package rectify flattens a document quadrilateral into an upright image.
//
// The four corners are mapped onto an axis-aligned rectangle whose sides
// match the longer of each pair of opposite edges, a projective transform is
// solved from the four correspondences, and every output pixel is sampled
// from the source through the inverse transform with bilinear interpolation.
//
// Corners may come from package detection or from a user who dragged them
// by hand; both are validated before any pixels are touched.
package rectify
