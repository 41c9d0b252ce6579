package voc2yolo

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// A trimmed down VoTT 2.x Pascal VOC export.
const vottAnnotation = `<annotation verified="yes">
    <folder>Annotation</folder>
    <filename>hansen.mp4#t=0.033333.jpg</filename>
    <path>PascalVOC-export/Annotations/hansen.mp4#t=0.033333.jpg</path>
    <source>
        <database>Unknown</database>
    </source>
    <size>
        <width>1000</width>
        <height>800</height>
        <depth>3</depth>
    </size>
    <segmented>0</segmented>
    <object>
        <name>dog</name>
        <pose>Unspecified</pose>
        <truncated>0</truncated>
        <difficult>0</difficult>
        <bndbox>
            <xmin>100</xmin>
            <ymin>160</ymin>
            <xmax>300</xmax>
            <ymax>480</ymax>
        </bndbox>
    </object>
    <object>
        <name>cat</name>
        <pose>Unspecified</pose>
        <truncated>0</truncated>
        <difficult>0</difficult>
        <bndbox>
            <xmin>12.5</xmin>
            <ymin> 40.25 </ymin>
            <xmax>512.75</xmax>
            <ymax>799</ymax>
        </bndbox>
    </object>
</annotation>
`

func TestParseVOC(t *testing.T) {
	rec, err := ParseVOC(strings.NewReader(vottAnnotation))
	if err != nil {
		t.Fatalf("ParseVOC failed: %v", err)
	}

	want := AnnotationRecord{
		Size: ImageSize{Width: 1000, Height: 800, Depth: 3},
		Objects: []AnnotatedObject{
			{Name: "dog", Box: BoundingBox{XMin: 100, YMin: 160, XMax: 300, YMax: 480}},
			{Name: "cat", Box: BoundingBox{XMin: 12.5, YMin: 40.25, XMax: 512.75, YMax: 799}},
		},
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("ParseVOC = %+v, want %+v", rec, want)
	}
}

func TestParseVOCErrors(t *testing.T) {
	const size = `<size><width>10</width><height>10</height><depth>3</depth></size>`
	const box = `<bndbox><xmin>1</xmin><ymin>1</ymin><xmax>2</xmax><ymax>2</ymax></bndbox>`

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"no objects", `<annotation>` + size + `</annotation>`, ErrEmptyAnnotation},
		{"not xml", `item { id: 1 }`, ErrMalformedAnnotation},
		{"truncated", `<annotation>` + size + `<object><name>a</name>`, ErrMalformedAnnotation},
		{"wrong root", `<labels>` + size + `</labels>`, ErrMalformedAnnotation},
		{"no size", `<annotation><object><name>a</name>` + box + `</object></annotation>`,
			ErrMalformedAnnotation},
		{"no size and no objects", `<annotation></annotation>`, ErrMalformedAnnotation},
		{"missing depth", `<annotation><size><width>10</width><height>10</height></size>` +
			`<object><name>a</name>` + box + `</object></annotation>`, ErrMalformedAnnotation},
		{"non-integer width", `<annotation><size><width>10.5</width><height>10</height>` +
			`<depth>3</depth></size><object><name>a</name>` + box + `</object></annotation>`,
			ErrMalformedAnnotation},
		{"object without name", `<annotation>` + size + `<object>` + box + `</object></annotation>`,
			ErrMalformedAnnotation},
		{"object without bndbox", `<annotation>` + size + `<object><name>a</name></object></annotation>`,
			ErrMalformedAnnotation},
		{"bndbox missing ymax", `<annotation>` + size + `<object><name>a</name><bndbox><xmin>1</xmin>` +
			`<ymin>1</ymin><xmax>2</xmax></bndbox></object></annotation>`, ErrMalformedAnnotation},
		{"non-numeric bound", `<annotation>` + size + `<object><name>a</name><bndbox><xmin>one</xmin>` +
			`<ymin>1</ymin><xmax>2</xmax><ymax>2</ymax></bndbox></object></annotation>`,
			ErrMalformedAnnotation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVOC(strings.NewReader(tt.doc)); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFromVOC(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "frame.XML")
	if err := os.WriteFile(path, []byte(vottAnnotation), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	rec, err := FromVOC(path)
	if err != nil {
		t.Fatalf("FromVOC failed: %v", err)
	}
	if rec.Path != path || len(rec.Objects) != 2 {
		t.Errorf("FromVOC = %+v, want 2 objects from %q", rec, path)
	}

	jsonPath := filepath.Join(dir, "frame.json")
	if err := os.WriteFile(jsonPath, []byte(vottAnnotation), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := FromVOC(jsonPath); !errors.Is(err, ErrUnsupportedResource) {
		t.Errorf("FromVOC(.json) error = %v, want ErrUnsupportedResource", err)
	}

	if _, err := FromVOC(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("FromVOC(missing): expected an error")
	}
}
