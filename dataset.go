package voc2yolo

// YOLO dataset description (data.yaml) functionality.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DatasetDescriptor is the YOLO dataset description. Field order is the key order in the file.
type DatasetDescriptor struct {
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// BuildDescriptor describes a dataset rooted at directory name with the classes in reg.
func BuildDescriptor(name string, reg *Registry) DatasetDescriptor {
	return DatasetDescriptor{
		Train: name + "/train/images",
		Val:   name + "/valid/images",
		NC:    reg.Len(),
		Names: reg.Names(),
	}
}

// WriteDescriptor writes d as YAML to path.
func WriteDescriptor(path string, d DatasetDescriptor) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %v", path, err)
	}
	return nil
}

// ReadDescriptor reads a YAML dataset description from path.
func ReadDescriptor(path string) (DatasetDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DatasetDescriptor{}, err
	}

	var d DatasetDescriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return DatasetDescriptor{}, fmt.Errorf("failed to parse dataset description %q: %v", path, err)
	}

	return d, nil
}
