package voc2yolo

// YOLO specific functionality.

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// YOLOExt is the file extension of YOLO label files.
const YOLOExt = ".txt"

// NormalizedBox is a bounding box in YOLO form: center and extent as fractions of the image width
// and height, rounded to 3 decimal places. Boxes reaching outside the image are not clamped.
type NormalizedBox struct {
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// Normalize converts box, in absolute pixel coordinates of an image of the given size, to YOLO
// form.
func Normalize(size ImageSize, box BoundingBox) (NormalizedBox, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return NormalizedBox{}, fmt.Errorf("%w: got %dx%d", ErrInvalidImageSize,
			size.Width, size.Height)
	}

	dw := 1 / float64(size.Width)
	dh := 1 / float64(size.Height)

	return NormalizedBox{
		XCenter: round3(((box.XMin + box.XMax) / 2) * dw),
		YCenter: round3(((box.YMin + box.YMax) / 2) * dh),
		Width:   round3((box.XMax - box.XMin) * dw),
		Height:  round3((box.YMax - box.YMin) * dh),
	}, nil
}

// round3 rounds half to even at the third decimal place.
func round3(v float64) float64 {
	r := math.RoundToEven(v*1000) / 1000
	if r == 0 {
		return 0 // No "-0" in the output.
	}
	return r
}

// YOLOLabel is a single line of a YOLO label file.
type YOLOLabel struct {
	ClassID int
	Box     NormalizedBox
}

// String formats l as "<class> <x_center> <y_center> <width> <height>".
//
// Values use the shortest decimal form, so whole numbers print without a fraction: "1", not "1.0".
func (l YOLOLabel) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return strings.Join([]string{strconv.Itoa(l.ClassID),
		f(l.Box.XCenter), f(l.Box.YCenter), f(l.Box.Width), f(l.Box.Height)}, " ")
}

// ToYOLO converts all objects in rec, in order, to YOLO labels with class ids from reg.
//
// It fails on the first object whose class is not in reg, or if the record's image size cannot be
// used for normalization.
func ToYOLO(rec AnnotationRecord, reg *Registry) ([]YOLOLabel, error) {
	labels := make([]YOLOLabel, 0, len(rec.Objects))
	for _, o := range rec.Objects {
		id, ok := reg.IndexOf(o.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownClass, o.Name)
		}
		box, err := Normalize(rec.Size, o.Box)
		if err != nil {
			return nil, err
		}
		labels = append(labels, YOLOLabel{ClassID: id, Box: box})
	}

	return labels, nil
}

// WriteYOLO writes labels to the file at path, one line each.
//
// The data goes to a temporary file in the same directory first, which is renamed to path once
// complete. No file is left at path if writing fails.
func WriteYOLO(path string, labels []YOLOLabel) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return fmt.Errorf("cannot create label file for %q: %v", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, l := range labels {
		if _, err := fmt.Fprintln(w, l.String()); err != nil {
			return fmt.Errorf("cannot write labels to %q: %v", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("cannot write labels to %q: %v", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fmt.Errorf("cannot write labels to %q: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot write labels to %q: %v", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot write labels to %q: %v", path, err)
	}
	return nil
}

// ReadYOLO reads and parses the YOLO label file at path. Blank lines are ignored.
func ReadYOLO(path string) ([]YOLOLabel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read labels from %q: %v", path, err)
	}
	lines := strings.Split(string(data), "\n")

	labels := make([]YOLOLabel, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		l, err := parseYOLOLabel(line)
		if err != nil {
			return nil, fmt.Errorf("%q line %d: %v", path, i+1, err)
		}
		labels = append(labels, l)
	}

	return labels, nil
}

// parseYOLOLabel parses the values of a single label line.
func parseYOLOLabel(line string) (YOLOLabel, error) {
	l := YOLOLabel{}

	tokens := strings.Fields(line)
	if len(tokens) != 5 {
		return l, fmt.Errorf("expected 5 values in %q, got %d", line, len(tokens))
	}

	var err error
	if l.ClassID, err = strconv.Atoi(tokens[0]); err != nil {
		return l, fmt.Errorf("unexpected class id in %q: %v", line, err)
	}
	values := []*float64{&l.Box.XCenter, &l.Box.YCenter, &l.Box.Width, &l.Box.Height}
	for i := 0; i < 4 && err == nil; i++ {
		*values[i], err = strconv.ParseFloat(tokens[i+1], 64)
	}
	if err != nil {
		return l, fmt.Errorf("unexpected values in %q: %v", line, err)
	}

	return l, nil
}

// labelPath returns the YOLO label file path in labelDir for the annotation file at sourcePath. The
// suffix is appended to the base name before the extension.
func labelPath(labelDir, sourcePath, suffix string) string {
	base := filepath.Base(sourcePath)
	baseNoExt := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(labelDir, baseNoExt+suffix+YOLOExt)
}
