// Package layerio saves the layers of a viewer to a folder and loads them
// back. The folder holds one file per layer and a config.yml manifest.
package layerio

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"naparij/internal/models"
)

// ManifestName is the manifest file inside a layer folder
const ManifestName = "config.yml"

// ErrUnsupportedLayerType marks a layer the folder format has no writer or
// reader for
var ErrUnsupportedLayerType = errors.New("unsupported layer type")

// Manifest is the content of config.yml
type Manifest struct {
	Calibration models.Calibration `yaml:"calibration"`
	Unit        string             `yaml:"unit,omitempty"`
	Layers      []Entry            `yaml:"layers"`
}

// Entry describes one saved layer
type Entry struct {
	Name     string `yaml:"name"`
	Filename string `yaml:"filename"`
	Type     string `yaml:"type"`
	Colormap string `yaml:"colormap,omitempty"`

	// Shape and DType restore image data stored as a plane mosaic
	Shape []int  `yaml:"shape,omitempty"`
	DType string `yaml:"dtype,omitempty"`

	// Range maps 16-bit samples back onto float values
	Range []float64 `yaml:"range,omitempty"`
}

// ReadManifest loads config.yml from dir
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, errors.Wrap(err, "reading layer manifest")
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "parsing layer manifest")
	}
	return m, nil
}

// WriteManifest writes m to dir/config.yml
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshaling layer manifest")
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return errors.Wrap(err, "writing layer manifest")
	}
	return nil
}
