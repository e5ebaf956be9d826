// Package config loads and saves the tool settings.
package config

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/Faultbox/pivot-painter/pkg/export"
	"github.com/Faultbox/pivot-painter/pkg/hierarchy"
	"github.com/Faultbox/pivot-painter/pkg/meshops"
	"github.com/Faultbox/pivot-painter/pkg/packing"
	"github.com/Faultbox/pivot-painter/pkg/pivot"
)

// Config holds all settings.
type Config struct {
	Logging        LoggingConfig         `yaml:"logging"`
	Textures       TexturesConfig        `yaml:"textures"`
	Pivot          pivot.PivotOptions    `yaml:"pivot"`
	Rotation       pivot.RotationOptions `yaml:"rotation"`
	Hierarchy      HierarchyConfig       `yaml:"hierarchy"`
	SelectionOrder SelectionOrderConfig  `yaml:"selection_order"`
	CopyUVs        CopyUVsConfig         `yaml:"copy_uvs"`
	// Workers bounds parallel geometry work; 0 uses every CPU.
	Workers int `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
}

// TexturesConfig holds texture generation settings.
type TexturesConfig struct {
	UVMapName string `yaml:"uv_map_name"`
	Save      bool   `yaml:"save"`
	Folder    string `yaml:"folder"`
	// LDRFormat is png or tiff.
	LDRFormat export.Format `yaml:"ldr_format"`
	// Seed feeds the random packers; 0 picks a new seed every run.
	Seed uint64                `yaml:"seed"`
	List []packing.TextureSpec `yaml:"list"`
}

// Hierarchy inference modes.
const (
	HierarchyOverlap = "overlap"
	HierarchyNearest = "nearest"
)

// HierarchyConfig holds hierarchy inference settings.
type HierarchyConfig struct {
	Mode     string   `yaml:"mode"`
	Epsilon  float32  `yaml:"epsilon"`
	MaxDepth int      `yaml:"max_depth"`
	Bases    []string `yaml:"bases"`
}

// SelectionOrderConfig holds SelectionOrder tag authoring settings.
type SelectionOrderConfig struct {
	Start      int  `yaml:"start"`
	SameNumber bool `yaml:"same_number"`
}

// CopyUVsConfig holds UV transfer settings.
type CopyUVsConfig struct {
	Target    string `yaml:"target"`
	Precision int    `yaml:"precision"`
	Retry     bool   `yaml:"retry"`
}

// Default returns a Config with the standard settings.
func Default() *Config {
	solver := pivot.DefaultOptions()
	inference := hierarchy.DefaultOptions()
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Textures: TexturesConfig{
			UVMapName: "PivotPainterMap",
			LDRFormat: export.FormatPNG,
			List: []packing.TextureSpec{
				{RGB: "pivot_point", Alpha: "index", HDR: true},
			},
		},
		Pivot:    solver.Pivot,
		Rotation: solver.Rotation,
		Hierarchy: HierarchyConfig{
			Mode:     HierarchyOverlap,
			Epsilon:  inference.Epsilon,
			MaxDepth: inference.MaxDepth,
		},
		SelectionOrder: SelectionOrderConfig{
			Start: 1,
		},
		CopyUVs: CopyUVsConfig{
			Precision: 4,
		},
	}
}

// SolverOptions returns the pivot solver settings.
func (c *Config) SolverOptions() pivot.Options {
	return pivot.Options{
		Pivot:    c.Pivot,
		Rotation: c.Rotation,
		MaxDepth: c.Hierarchy.MaxDepth,
		Workers:  c.Workers,
	}
}

// InferenceOptions returns the hierarchy inference settings.
func (c *Config) InferenceOptions() hierarchy.Options {
	return hierarchy.Options{
		Epsilon:  c.Hierarchy.Epsilon,
		MaxDepth: c.Hierarchy.MaxDepth,
		Workers:  c.Workers,
	}
}

// CopyOptions returns the UV transfer settings.
func (c *Config) CopyOptions() meshops.CopyOptions {
	return meshops.CopyOptions{
		Layer:     c.Textures.UVMapName,
		Precision: c.CopyUVs.Precision,
		Retry:     c.CopyUVs.Retry,
	}
}

// Validate reports every invalid setting that does not depend on a scene.
func (c *Config) Validate() error {
	var err error
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		err = multierr.Append(err, fmt.Errorf("config: unknown logging level %q", c.Logging.Level))
	}
	if c.Textures.UVMapName == "" {
		err = multierr.Append(err, errors.New("config: textures.uv_map_name is empty"))
	}
	switch c.Textures.LDRFormat {
	case export.FormatPNG, export.FormatTIFF:
	default:
		err = multierr.Append(err, fmt.Errorf("config: unknown ldr_format %q", c.Textures.LDRFormat))
	}
	switch c.Hierarchy.Mode {
	case HierarchyOverlap, HierarchyNearest:
	default:
		err = multierr.Append(err, fmt.Errorf("config: unknown hierarchy mode %q", c.Hierarchy.Mode))
	}
	if c.SelectionOrder.Start < 1 {
		err = multierr.Append(err, errors.New("config: selection_order.start must be at least 1"))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, errors.New("config: workers must not be negative"))
	}
	return multierr.Append(err, c.SolverOptions().Validate())
}
