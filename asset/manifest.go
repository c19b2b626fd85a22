package asset

import (
	"context"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/critter/constant"
)

// DefaultManifestName is looked up at the asset root
const DefaultManifestName = "critter.yaml"

// FramePatterns names the frame pool stems per state
type FramePatterns struct {
	Resting  string `yaml:"resting"`
	Reacting string `yaml:"reacting"`
}

// Manifest describes the asset set of one critter
type Manifest struct {
	Name     string            `yaml:"name"`
	Sounds   map[string]string `yaml:"sounds"` // key -> base path without extension
	Frames   FramePatterns     `yaml:"frames"`
	Formats  []string          `yaml:"formats"`
	PoolSize int               `yaml:"pool_size"`
}

// DefaultManifest is used when the asset root carries no manifest
const DefaultManifest = `
name: critter
formats: [mp3, wav]
pool_size: 6
frames:
  resting: images/resting
  reacting: images/reacting
sounds:
  soft_01: sounds/soft_01
  soft_02: sounds/soft_02
  soft_03: sounds/soft_03
  react_01: sounds/react_01
  react_02: sounds/react_02
  react_03: sounds/react_03
`

// ParseManifest decodes yaml and fills unset fields with defaults
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if len(m.Formats) == 0 {
		m.Formats = slices.Clone(constant.DefaultFormats)
	}
	if m.PoolSize <= 0 {
		m.PoolSize = constant.FramePoolSize
	}
	if m.Sounds == nil {
		m.Sounds = map[string]string{}
	}
}

// Validate checks the fields the stage depends on
func (m *Manifest) Validate() error {
	if m.Frames.Resting == "" {
		return fmt.Errorf("manifest: frames.resting is required")
	}
	if m.Frames.Reacting == "" {
		return fmt.Errorf("manifest: frames.reacting is required")
	}
	for key, base := range m.Sounds {
		if base == "" {
			return fmt.Errorf("manifest: sound %q has empty path", key)
		}
	}
	return nil
}

// LoadManifest reads name from src, falling back to DefaultManifest when
// the source has no such file
func LoadManifest(ctx context.Context, src Source, name string) (*Manifest, bool, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		m, perr := ParseManifest(stringsReader(DefaultManifest))
		return m, false, perr
	}
	defer rc.Close()
	m, err := ParseManifest(rc)
	return m, true, err
}
