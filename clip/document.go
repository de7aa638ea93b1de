package clip

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"nightsky/fault"
)

// Extension is the canonical suffix of a Nightsky clip file.
const Extension = ".nsc"

// Document is the persisted form of a clip.
type Document struct {
	CurrentFrame int      `json:"currentFrame" yaml:"currentFrame"`
	Frames       [][]bool `json:"frames" yaml:"frames"`
}

// Document returns the persisted form of c.
func (c *Clip) Document() Document {
	doc := Document{
		CurrentFrame: c.active,
		Frames:       make([][]bool, len(c.frames)),
	}
	for i, f := range c.frames {
		doc.Frames[i] = f.States()
	}
	return doc
}

// FromDocument builds a clip from its persisted form.
func FromDocument(doc Document) (*Clip, error) {
	c := New()
	for i, states := range doc.Frames {
		f, err := FrameFromStates(states)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		c.frames = append(c.frames, f)
	}

	switch {
	case len(c.frames) == 0 && doc.CurrentFrame == -1:
	case doc.CurrentFrame >= 0 && doc.CurrentFrame < len(c.frames):
	default:
		return nil, fmt.Errorf("currentFrame %d invalid for %d frames", doc.CurrentFrame, len(c.frames))
	}
	c.active = doc.CurrentFrame
	return c, nil
}

// Load reads a clip file. YAML is used for .yaml/.yml paths, JSON for
// everything else.
func Load(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if isYAML(path) {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	c.path = path
	return c, nil
}

// Save writes the clip. An empty path saves to the clip's current path;
// if there is none, Save returns a MissingDestination error. A non-empty
// path becomes the clip's new path.
func (c *Clip) Save(path string) error {
	if path == "" {
		path = c.path
	}
	if path == "" {
		return fault.NoDestination("save clip")
	}

	var (
		data []byte
		err  error
	)
	doc := c.Document()
	if isYAML(path) {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encode clip: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	c.path = path
	return nil
}

// EnsureExtension appends ".nsc" to path unless it already names a clip
// file (.nsc, .yaml or .yml).
func EnsureExtension(path string) string {
	if path == "" {
		return path
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == Extension || ext == ".yaml" || ext == ".yml" {
		return path
	}
	return path + Extension
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
