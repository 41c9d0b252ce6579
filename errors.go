package voc2yolo

import "errors"

// Errors reported by the conversion pipeline. They are wrapped with the offending path or class
// name, so compare with errors.Is.
var (
	// Run-aborting.
	ErrMissingDirectory  = errors.New("directory does not exist")
	ErrMissingLabelMap   = errors.New("no label map found")
	ErrMalformedRegistry = errors.New("malformed label map")

	// Per-file.
	ErrMalformedAnnotation = errors.New("malformed annotation")
	ErrEmptyAnnotation     = errors.New("annotation has no objects")
	ErrUnknownClass        = errors.New("class not in label map")
	ErrInvalidImageSize    = errors.New("image width and height must be positive")
	ErrInvertedBox         = errors.New("bounding box min exceeds max")
	ErrLabelPathConflict   = errors.New("label path already used by another annotation")

	// Either, depending on which resource it refers to.
	ErrUnsupportedResource = errors.New("unsupported file type")
)
