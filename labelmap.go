package voc2yolo

// Label map (class registry) specific functionality.

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/protobuf/proto"
	protos "github.com/sensorable/voc2yolo/protos"
)

// LabelMapExt is the file extension of label map files.
const LabelMapExt = ".pbtxt"

// Registry is the ordered list of class names read from a label map. The position of a name in the
// list is the class id used in YOLO labels. The id declared in the label map is kept for reference
// only.
//
// A Registry is never modified after loading and may be shared between goroutines.
type Registry struct {
	names       []string
	index       map[string]int
	declaredIDs map[string]int32
	duplicates  []string
}

// Names returns the class names in label map order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len is the number of distinct classes.
func (r *Registry) Len() int {
	return len(r.names)
}

// IndexOf returns the YOLO class id for name.
func (r *Registry) IndexOf(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// DeclaredID returns the id that the label map declared for name.
func (r *Registry) DeclaredID(name string) (int32, bool) {
	id, ok := r.declaredIDs[name]
	return id, ok
}

// Duplicates lists names that appeared more than once in the label map, once per repeated item.
// Only the first item for each name is used.
func (r *Registry) Duplicates() []string {
	return r.duplicates
}

// LoadRegistry reads and parses the label map at path.
func LoadRegistry(path string) (*Registry, error) {
	if !hasExt(path, LabelMapExt) {
		return nil, fmt.Errorf("%w: label map %q must have extension %s",
			ErrUnsupportedResource, path, LabelMapExt)
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %q: %v", ErrMissingLabelMap, path, err)
	}

	r, err := ParseRegistry(string(text))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return r, nil
}

// ParseRegistry parses a label map in protobuf text format, e.g.
//
//	item {
//	  id: 1
//	  name: 'cat'
//	}
func ParseRegistry(text string) (*Registry, error) {
	var labelMap protos.StringIntLabelMap
	if err := proto.UnmarshalText(text, &labelMap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRegistry, err)
	}
	if len(labelMap.Item) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrMalformedRegistry)
	}

	r := &Registry{
		names:       make([]string, 0, len(labelMap.Item)),
		index:       make(map[string]int, len(labelMap.Item)),
		declaredIDs: make(map[string]int32, len(labelMap.Item)),
	}
	for i, item := range labelMap.Item {
		switch {
		case item.Name == nil && item.Id == nil:
			return nil, fmt.Errorf("%w: item %d is empty", ErrMalformedRegistry, i)
		case item.Name == nil:
			return nil, fmt.Errorf("%w: item %d (id %d) has no name", ErrMalformedRegistry, i,
				item.GetId())
		case item.Id == nil:
			return nil, fmt.Errorf("%w: item %d (%q) has no id", ErrMalformedRegistry, i,
				item.GetName())
		}

		name := strings.TrimSpace(item.GetName())
		if name == "" {
			return nil, fmt.Errorf("%w: item %d has an empty name", ErrMalformedRegistry, i)
		}
		if _, seen := r.index[name]; seen {
			r.duplicates = append(r.duplicates, name)
			continue
		}

		r.index[name] = len(r.names)
		r.declaredIDs[name] = item.GetId()
		r.names = append(r.names, name)
	}

	return r, nil
}
