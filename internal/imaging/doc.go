// Package imaging provides the raster layer of the document scanner.
//
// It owns the Frame type handed through the pipeline, decoding and caching of
// image files, the per-pixel filter stages used before contour tracing
// (resize, grayscale, blur, morphology, Canny), adaptive-threshold
// enhancement, overlay rendering and result encoding. Coordinates use (0,0)
// at the top-left corner, X increasing rightward and Y increasing downward.
//
// # Frames and Channel Order
//
// Go images are nominally RGBA, but frames captured from camera pipelines
// often carry BGR data in the same containers. A Frame records which order
// its pixels use so that grayscale conversion weights the right slots:
//
//	f, err := imaging.NewFrame(img, imaging.OrderBGRA)
//
// Frames are never mutated. Filter stages return new rasters whose origin is
// always (0,0), regardless of the input bounds.
//
// # Filter Stages
//
// Grayscale, blur and morphology are delegated to anthonynsimon/bild and
// resizing to disintegration/imaging. Canny is implemented here because it
// needs non-maximum suppression and hysteresis with explicit thresholds,
// which neither library exposes.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and may be called concurrently on different frames.
package imaging
