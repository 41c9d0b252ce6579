package voc2yolo

// Conversion of a VOC annotation directory into a YOLO dataset.

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for the layout of a VoTT Pascal VOC export and the YOLO output.
const (
	DefaultAnnotationDir = "Annotations"            // Relative to the export directory.
	DefaultLabelMap      = "pascal_label_map.pbtxt" // Relative to the export directory.
	DefaultDatasetName   = "data"
	LabelDir             = "labels" // Relative to the output directory.
)

// Inputs are the resolved input locations of a VOC export.
type Inputs struct {
	AnnotationDir string
	LabelMapPath  string
}

// ResolveInputs finds the annotation directory and label map of the VOC export in targetDir.
//
// Non-empty annotationDir and labelMapPath override the defaults and are returned as given. By
// default the annotations are expected in targetDir/Annotations and the label map is
// targetDir/pascal_label_map.pbtxt, or else the first *.pbtxt file in targetDir.
func ResolveInputs(targetDir, annotationDir, labelMapPath string) (Inputs, error) {
	if !isDir(targetDir) {
		return Inputs{}, fmt.Errorf("%w: target directory %q", ErrMissingDirectory, targetDir)
	}

	in := Inputs{AnnotationDir: annotationDir, LabelMapPath: labelMapPath}
	if in.AnnotationDir == "" {
		in.AnnotationDir = filepath.Join(targetDir, DefaultAnnotationDir)
	}
	if in.LabelMapPath == "" {
		if p := filepath.Join(targetDir, DefaultLabelMap); isFile(p) {
			in.LabelMapPath = p
		} else {
			candidates, err := filesByExtInDir(targetDir, LabelMapExt, false)
			if err != nil {
				return Inputs{}, err
			}
			if len(candidates) == 0 {
				return Inputs{}, fmt.Errorf("%w: no %s file in %q", ErrMissingLabelMap, LabelMapExt,
					targetDir)
			}
			in.LabelMapPath = candidates[0]
		}
	}

	return in, nil
}

// Options configure a conversion run.
type Options struct {
	AnnotationDir string // The directory with the VOC .xml files.
	LabelMapPath  string // The .pbtxt label map.
	OutDir        string // Must exist. Labels go to OutDir/labels.
	DatasetName   string // The dataset root in the description and the stem of its file name.
	LabelSuffix   string // Appended to the base name of every label file.
	Recursive     bool   // Also search subdirectories of AnnotationDir.
	StrictBoxes   bool   // Skip files with inverted boxes instead of converting them as they are.
	Workers       int    // The number of files converted concurrently.
}

// FileResult is the outcome of converting one annotation file.
type FileResult struct {
	Source  string // The annotation file.
	Label   string // The label file written, empty if skipped.
	Objects int    // The number of labels written.
	Err     error  // Why the file was skipped.
}

// Report summarises a conversion run. Results are in discovery order.
type Report struct {
	Descriptor string // The dataset description file.
	Converted  []FileResult
	Skipped    []FileResult
}

// Converter converts a VOC annotation directory into YOLO label files and a dataset description.
type Converter struct {
	opts   Options
	logger *zap.Logger
}

// NewConverter returns a Converter for opts that logs to logger (which may be nil).
func NewConverter(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.DatasetName == "" {
		opts.DatasetName = DefaultDatasetName
	}
	return &Converter{opts: opts, logger: logger}
}

// Run performs the conversion.
//
// A missing output or annotation directory, an unusable label map or a failure to write the
// dataset description aborts the run with an error. Any other failure only skips the affected
// annotation file: it is logged, listed in Report.Skipped, and no label file is written for it.
func (c *Converter) Run() (Report, error) {
	opts := c.opts
	if !isDir(opts.OutDir) {
		return Report{}, fmt.Errorf("%w: output directory %q", ErrMissingDirectory, opts.OutDir)
	}

	// Load the class registry.
	reg, err := LoadRegistry(opts.LabelMapPath)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load the label map: %w", err)
	}
	for _, name := range reg.Duplicates() {
		c.logger.Warn("Duplicate class in label map, keeping the first",
			zap.String("class", name), zap.String("path", opts.LabelMapPath))
	}
	c.logger.Info("Label map loaded",
		zap.String("path", opts.LabelMapPath), zap.Strings("classes", reg.Names()))

	// Find the annotation files.
	sources, err := filesByExtInDir(opts.AnnotationDir, VOCExt, opts.Recursive)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list annotations: %w", err)
	}
	labelDir := filepath.Join(opts.OutDir, LabelDir)
	if err := os.MkdirAll(labelDir, 0755); err != nil {
		return Report{}, fmt.Errorf("failed to create the label directory: %w", err)
	}

	// Write the dataset description once every input has been checked.
	descPath := filepath.Join(opts.OutDir, opts.DatasetName+".yaml")
	if err := WriteDescriptor(descPath, BuildDescriptor(opts.DatasetName, reg)); err != nil {
		return Report{}, fmt.Errorf("failed to write the dataset description: %w", err)
	}
	c.logger.Info("Dataset description written", zap.String("path", descPath))

	c.logger.Info("Converting annotations",
		zap.Int("files", len(sources)), zap.String("labels", labelDir), zap.Int("workers", opts.Workers))

	// Assign label paths. Only the first of several sources with the same base name gets one.
	results := make([]FileResult, len(sources))
	used := make(map[string]string, len(sources))
	for i, src := range sources {
		results[i].Source = src
		dst := labelPath(labelDir, src, opts.LabelSuffix)
		if first, ok := used[dst]; ok {
			results[i].Err = fmt.Errorf("%w: %q is the label file for %q", ErrLabelPathConflict, dst, first)
			continue
		}
		used[dst] = src
		results[i].Label = dst
	}

	// Convert. Each goroutine only touches its own result.
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			continue
		}
		g.Go(func() error {
			r.Objects, r.Err = c.convertFile(r.Source, r.Label, reg)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Descriptor: descPath}
	for _, r := range results {
		if r.Err != nil {
			r.Label = ""
			c.logger.Error("Error while converting, skipping", zap.String("file", r.Source), zap.Error(r.Err))
			report.Skipped = append(report.Skipped, r)
			continue
		}
		report.Converted = append(report.Converted, r)
	}

	c.logger.Info("Conversion finished",
		zap.Int("converted", len(report.Converted)), zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// convertFile converts the VOC file at src to the YOLO label file at dst and returns the number of
// labels written.
func (c *Converter) convertFile(src, dst string, reg *Registry) (int, error) {
	rec, err := FromVOC(src)
	if err != nil {
		return 0, err
	}

	for i, o := range rec.Objects {
		if !o.Box.Inverted() {
			continue
		}
		if c.opts.StrictBoxes {
			return 0, fmt.Errorf("%w: object %d (%q)", ErrInvertedBox, i, o.Name)
		}
		c.logger.Warn("Inverted bounding box, converting as is",
			zap.String("file", src), zap.Int("object", i), zap.String("class", o.Name))
	}

	labels, err := ToYOLO(rec, reg)
	if err != nil {
		return 0, err
	}
	if err := WriteYOLO(dst, labels); err != nil {
		return 0, err
	}

	c.logger.Debug("Converted", zap.String("file", src), zap.String("labels", dst),
		zap.Int("objects", len(labels)))
	return len(labels), nil
}
