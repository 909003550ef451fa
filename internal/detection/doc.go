// Package detection locates a document quadrilateral in a frame.
//
// Detection runs in two stages. The contour extractor turns the frame into a
// clean binary edge map (resize, grayscale, blur, morphology, Canny) and
// traces the borders of its connected components, ranking them by enclosed
// area. The corner selector then walks the ranking and accepts the first
// contour that simplifies to four vertices forming a plausible, roughly
// upright page.
//
// # Selection Rules
//
// With W the working width and minimumSize = W / Params.MinSizeDivisor, a
// simplified quadrilateral with canonical corners TL, TR, BR, BL is accepted
// when:
//
//   - the four canonical slots resolve to four different vertices
//   - no side is parallel to the wrong axis (TL.x != TR.x and so on)
//   - every side spans at least minimumSize
//   - the left, right, top and bottom sides are each within minimumSize of
//     axis aligned
//
// Selection is greedy. The largest acceptable contour wins and no further
// candidates are scored.
//
// # Coordinate Spaces
//
// Contours and selections live in the working grid. Detect maps the accepted
// corners back to the input frame, so its results can be passed straight to
// rectification.
//
// # Concurrency
//
// All functions are safe for concurrent use on different frames. Label grids
// used by the border tracer are pooled and returned before each call ends.
package detection
