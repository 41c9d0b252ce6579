// Converts a Pascal VOC export (as written by VoTT 2.x) to YOLO label files and a YOLO dataset
// description.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sensorable/voc2yolo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	targetDirPath     string // The VOC export directory.
	outDirPath        string // The output directory, must exist.
	datasetName       string // The stem of the dataset description file and the dataset root.
	annotationDirPath string // Overrides <target>/Annotations.
	labelMapFilePath  string // Overrides the label map found in the target directory.
	labelSuffix       string // Appended to every label file base name.

	recursive   bool // Search the annotation directory recursively.
	strictBoxes bool // Skip files with inverted bounding boxes.
	workers     int  // The number of files converted concurrently.

	logFormat string // "console" or "json".
	logLevel  string // The minimum log level.
)

// envDefaults returns the flag defaults, which may be overridden by VOC2YOLO_* environment
// variables, e.g. VOC2YOLO_YAML_NAME for -yaml-name.
func envDefaults() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("voc2yolo")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("target", "./PascalVOC-export")
	v.SetDefault("out", "./yolo_out")
	v.SetDefault("yaml-name", voc2yolo.DefaultDatasetName)
	v.SetDefault("annotations", "")
	v.SetDefault("label-map", "")
	v.SetDefault("label-suffix", "")
	v.SetDefault("recursive", false)
	v.SetDefault("strict-boxes", false)
	v.SetDefault("workers", 1)
	v.SetDefault("log-format", "console")
	v.SetDefault("log-level", "info")

	return v
}

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  Converts the Pascal VOC *.xml files exported by VoTT 2.x to YOLO *.txt"+
			" label files.")
		_, _ = fmt.Fprintln(os.Stderr, "  Flag defaults can be set with VOC2YOLO_<FLAG> environment variables"+
			" or a .env file.")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	// A missing .env file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Print("Failed to load .env: ", err)
	}
	env := envDefaults()

	// Path arguments.
	flag.StringVar(&targetDirPath, "target", env.GetString("target"),
		"The `path` to the Pascal VOC export directory")
	flag.StringVar(&outDirPath, "out", env.GetString("out"),
		"The `path` to the output directory (must exist); labels are written to its labels/"+
			" subdirectory")
	flag.StringVar(&datasetName, "yaml-name", env.GetString("yaml-name"),
		"The `name` (stem only) of the dataset description file, also used as the dataset root in it")
	flag.StringVar(&annotationDirPath, "annotations", env.GetString("annotations"),
		"The `path` to the *.xml annotation directory (default <target>/"+
			voc2yolo.DefaultAnnotationDir+")")
	flag.StringVar(&labelMapFilePath, "label-map", env.GetString("label-map"),
		"The `path` to the *.pbtxt label map (default <target>/"+voc2yolo.DefaultLabelMap+
			" or the first *.pbtxt in <target>)")
	flag.StringVar(&labelSuffix, "label-suffix", env.GetString("label-suffix"),
		"A `suffix` appended to the base name of every label file")

	// Conversion arguments.
	flag.BoolVar(&recursive, "recursive", env.GetBool("recursive"),
		"Also search subdirectories of the annotation directory")
	flag.BoolVar(&strictBoxes, "strict-boxes", env.GetBool("strict-boxes"),
		"Skip annotation files with inverted bounding boxes (min > max) instead of converting them")
	flag.IntVar(&workers, "workers", env.GetInt("workers"),
		"The `number` of annotation files to convert concurrently")

	// Logging arguments.
	flag.StringVar(&logFormat, "log-format", env.GetString("log-format"),
		"The log `format` {console, json}")
	flag.StringVar(&logLevel, "log-level", env.GetString("log-level"),
		"The minimum log `level` {debug, info, warn, error}")

	// Parse and validate flags.
	flag.Parse()

	if flag.NArg() > 0 {
		printUsageAndExit("Unexpected arguments: ", strings.Join(flag.Args(), " "))
	}
	if targetDirPath == "" || outDirPath == "" {
		printUsageAndExit("Missing target or output directory path argument")
	}
	if datasetName == "" || strings.ContainsAny(datasetName, `/\`) {
		printUsageAndExit("Invalid -yaml-name, must be a file name stem: ", datasetName)
	}
	if strings.ContainsAny(labelSuffix, `/\`) {
		printUsageAndExit("Invalid -label-suffix: ", labelSuffix)
	}
	if workers < 1 {
		printUsageAndExit("Invalid -workers, must be at least 1: ", workers)
	}
	if logFormat != "console" && logFormat != "json" {
		printUsageAndExit("Unsupported log format: ", logFormat)
	}
	if _, err := zapcore.ParseLevel(logLevel); err != nil {
		printUsageAndExit("Unsupported log level: ", logLevel)
	}

	// Clean path arguments.
	targetDirPath = filepath.Clean(targetDirPath)
	outDirPath = filepath.Clean(outDirPath)
	if annotationDirPath != "" {
		annotationDirPath = filepath.Clean(annotationDirPath)
	}
	if labelMapFilePath != "" {
		labelMapFilePath = filepath.Clean(labelMapFilePath)
	}
}

// newLogger builds the logger for the given format and level.
func newLogger(format, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.TimeKey = "timestamp"
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl

	return cfg.Build()
}

func main() {
	logger, err := newLogger(logFormat, logLevel)
	if err != nil {
		log.Fatal("Failed to initialize the logger: ", err)
	}
	logger = logger.With(zap.String("run", uuid.NewString()))

	os.Exit(run(logger))
}

// run converts the dataset and returns the process exit code.
func run(logger *zap.Logger) int {
	defer func() { _ = logger.Sync() }()

	inputs, err := voc2yolo.ResolveInputs(targetDirPath, annotationDirPath, labelMapFilePath)
	if err != nil {
		logger.Error("Cannot resolve the inputs", zap.Error(err))
		return 1
	}

	logger.Info("Starting conversion",
		zap.String("target", targetDirPath),
		zap.String("annotations", inputs.AnnotationDir),
		zap.String("label_map", inputs.LabelMapPath),
		zap.String("out", outDirPath),
		zap.String("yaml_name", datasetName))

	converter := voc2yolo.NewConverter(voc2yolo.Options{
		AnnotationDir: inputs.AnnotationDir,
		LabelMapPath:  inputs.LabelMapPath,
		OutDir:        outDirPath,
		DatasetName:   datasetName,
		LabelSuffix:   labelSuffix,
		Recursive:     recursive,
		StrictBoxes:   strictBoxes,
		Workers:       workers,
	}, logger)

	report, err := converter.Run()
	if err != nil {
		logger.Error("Conversion failed", zap.Error(err))
		return 1
	}

	logger.Info("Successfully wrote labels",
		zap.Int("files", len(report.Converted)),
		zap.String("dir", filepath.Join(outDirPath, voc2yolo.LabelDir)),
		zap.String("description", report.Descriptor))
	if len(report.Skipped) > 0 {
		logger.Warn("Some annotation files were skipped", zap.Int("files", len(report.Skipped)))
	}

	return 0
}
