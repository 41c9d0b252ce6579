package voc2yolo

// Pascal VOC specific functionality.

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// VOCExt is the file extension of Pascal VOC annotation files.
const VOCExt = ".xml"

// vocAnnotation mirrors the parts of a VOC annotation file that are converted. Pointers tell
// missing elements apart from empty ones.
type vocAnnotation struct {
	XMLName xml.Name `xml:"annotation"`
	Size    *struct {
		Width  *string `xml:"width"`
		Height *string `xml:"height"`
		Depth  *string `xml:"depth"`
	} `xml:"size"`
	Objects []struct {
		Name   *string `xml:"name"`
		BndBox *struct {
			XMin *string `xml:"xmin"`
			YMin *string `xml:"ymin"`
			XMax *string `xml:"xmax"`
			YMax *string `xml:"ymax"`
		} `xml:"bndbox"`
	} `xml:"object"`
}

// FromVOC reads and parses the VOC annotation file at path.
func FromVOC(path string) (rec AnnotationRecord, err error) {
	if !hasExt(path, VOCExt) {
		return rec, fmt.Errorf("%w: annotation %q must have extension %s",
			ErrUnsupportedResource, path, VOCExt)
	}

	file, err := os.Open(path)
	if err != nil {
		return rec, fmt.Errorf("cannot read annotation %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	rec, err = ParseVOC(file)
	if err != nil {
		return AnnotationRecord{}, fmt.Errorf("%q: %w", path, err)
	}
	rec.Path = path

	return rec, nil
}

// ParseVOC parses a single VOC annotation document from r.
//
// The size element and at least one object are required. Bounding box coordinates are read as
// floats even if the file stores integers.
func ParseVOC(r io.Reader) (AnnotationRecord, error) {
	var doc vocAnnotation
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return AnnotationRecord{}, fmt.Errorf("%w: %v", ErrMalformedAnnotation, err)
	}

	// Image size.
	if doc.Size == nil {
		return AnnotationRecord{}, fmt.Errorf("%w: missing size", ErrMalformedAnnotation)
	}
	var size ImageSize
	dims := []struct {
		name  string
		value *string
		dst   *int
	}{
		{"width", doc.Size.Width, &size.Width},
		{"height", doc.Size.Height, &size.Height},
		{"depth", doc.Size.Depth, &size.Depth},
	}
	for _, d := range dims {
		if d.value == nil {
			return AnnotationRecord{}, fmt.Errorf("%w: missing size/%s", ErrMalformedAnnotation, d.name)
		}
		v, err := strconv.Atoi(strings.TrimSpace(*d.value))
		if err != nil {
			return AnnotationRecord{}, fmt.Errorf("%w: size/%s: %v", ErrMalformedAnnotation, d.name, err)
		}
		*d.dst = v
	}

	// Objects.
	if len(doc.Objects) == 0 {
		return AnnotationRecord{}, ErrEmptyAnnotation
	}
	rec := AnnotationRecord{
		Size:    size,
		Objects: make([]AnnotatedObject, 0, len(doc.Objects)),
	}
	for i, o := range doc.Objects {
		if o.Name == nil || strings.TrimSpace(*o.Name) == "" {
			return AnnotationRecord{}, fmt.Errorf("%w: object %d has no name", ErrMalformedAnnotation, i)
		}
		name := strings.TrimSpace(*o.Name)
		if o.BndBox == nil {
			return AnnotationRecord{}, fmt.Errorf("%w: object %d (%q) has no bndbox",
				ErrMalformedAnnotation, i, name)
		}

		var box BoundingBox
		bounds := []struct {
			name  string
			value *string
			dst   *float64
		}{
			{"xmin", o.BndBox.XMin, &box.XMin},
			{"ymin", o.BndBox.YMin, &box.YMin},
			{"xmax", o.BndBox.XMax, &box.XMax},
			{"ymax", o.BndBox.YMax, &box.YMax},
		}
		for _, b := range bounds {
			if b.value == nil {
				return AnnotationRecord{}, fmt.Errorf("%w: object %d (%q) is missing bndbox/%s",
					ErrMalformedAnnotation, i, name, b.name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(*b.value), 64)
			if err != nil {
				return AnnotationRecord{}, fmt.Errorf("%w: object %d (%q) bndbox/%s: %v",
					ErrMalformedAnnotation, i, name, b.name, err)
			}
			*b.dst = v
		}

		rec.Objects = append(rec.Objects, AnnotatedObject{Name: name, Box: box})
	}

	return rec, nil
}
