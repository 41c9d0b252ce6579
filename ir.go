package voc2yolo

// The intermediate annotation representation between the VOC input and the YOLO output.

// ImageSize is the declared size of an annotated image. Depth is the channel count and is not used
// for conversion.
type ImageSize struct {
	Width  int
	Height int
	Depth  int
}

// BoundingBox is an axis-aligned box in absolute pixel coordinates of the source image.
type BoundingBox struct {
	XMin, YMin, XMax, YMax float64
}

// Width is the box width. It is negative for inverted boxes.
func (b BoundingBox) Width() float64 {
	return b.XMax - b.XMin
}

// Height is the box height. It is negative for inverted boxes.
func (b BoundingBox) Height() float64 {
	return b.YMax - b.YMin
}

// Inverted reports whether a min coordinate exceeds its max coordinate.
func (b BoundingBox) Inverted() bool {
	return b.XMin > b.XMax || b.YMin > b.YMax
}

// AnnotatedObject is one labelled object within an image.
type AnnotatedObject struct {
	Name string
	Box  BoundingBox
}

// AnnotationRecord is everything read from one annotation file. Objects are in file order.
type AnnotationRecord struct {
	Path    string // The annotation file, empty when parsed from a reader.
	Size    ImageSize
	Objects []AnnotatedObject
}
