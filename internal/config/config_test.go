package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/pivot-painter/pkg/export"
	"github.com/Faultbox/pivot-painter/pkg/packing"
	"github.com/Faultbox/pivot-painter/pkg/pivot"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Textures.UVMapName != "PivotPainterMap" {
		t.Errorf("expected uv map 'PivotPainterMap', got %s", cfg.Textures.UVMapName)
	}
	if cfg.Textures.LDRFormat != export.FormatPNG {
		t.Errorf("expected png, got %s", cfg.Textures.LDRFormat)
	}
	want := packing.TextureSpec{RGB: "pivot_point", Alpha: "index", HDR: true}
	if len(cfg.Textures.List) != 1 || cfg.Textures.List[0] != want {
		t.Errorf("unexpected default textures %+v", cfg.Textures.List)
	}
	if cfg.Pivot.ItemType != pivot.ItemOverlap || cfg.Pivot.Calculation != pivot.Mean {
		t.Errorf("unexpected pivot defaults %+v", cfg.Pivot)
	}
	if cfg.Hierarchy.MaxDepth != 4 {
		t.Errorf("expected max depth 4, got %d", cfg.Hierarchy.MaxDepth)
	}
	if cfg.CopyUVs.Precision != 4 {
		t.Errorf("expected precision 4, got %d", cfg.CopyUVs.Precision)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `
logging:
  level: warn
  format: json
textures:
  uv_map_name: WindUV
  save: true
  folder: out
  ldr_format: tiff
  seed: 99
  list:
    - {rgb: pivot_point, alpha: index, hdr: true}
    - {rgb: x_axis, alpha: x_extent}
pivot:
  item_type: vertex
  calculation: closest
  parentless: axis
  axis: z_pos
rotation:
  enabled: false
hierarchy:
  mode: nearest
  bases: [trunk]
workers: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Textures.UVMapName != "WindUV" || !cfg.Textures.Save || cfg.Textures.Folder != "out" {
		t.Errorf("unexpected textures %+v", cfg.Textures)
	}
	if cfg.Textures.LDRFormat != export.FormatTIFF || cfg.Textures.Seed != 99 {
		t.Errorf("unexpected textures %+v", cfg.Textures)
	}
	if len(cfg.Textures.List) != 2 || cfg.Textures.List[1].RGB != "x_axis" || cfg.Textures.List[1].HDR {
		t.Errorf("unexpected texture list %+v", cfg.Textures.List)
	}
	if cfg.Pivot.ItemType != pivot.ItemVertex || cfg.Pivot.Parentless != pivot.ParentlessAxis || cfg.Pivot.Axis != pivot.AxisZPos {
		t.Errorf("unexpected pivot %+v", cfg.Pivot)
	}
	// Untouched keys keep their defaults.
	if cfg.Pivot.MaxDistance != 0.01 || !cfg.Pivot.Enabled {
		t.Errorf("pivot defaults lost: %+v", cfg.Pivot)
	}
	if cfg.Rotation.Enabled {
		t.Error("expected rotation disabled")
	}
	if cfg.Hierarchy.Mode != HierarchyNearest || len(cfg.Hierarchy.Bases) != 1 {
		t.Errorf("unexpected hierarchy %+v", cfg.Hierarchy)
	}
	if cfg.Workers != 3 || cfg.SolverOptions().Workers != 3 || cfg.InferenceOptions().Workers != 3 {
		t.Errorf("workers not propagated: %d", cfg.Workers)
	}
	if got := cfg.CopyOptions(); got.Layer != "WindUV" || got.Precision != 4 {
		t.Errorf("unexpected copy options %+v", got)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":      "textures:\n  list: [\n",
		"unknown key": "graphics:\n  width: 800\n",
		"wrong type":  "workers: many\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Textures.UVMapName != "PivotPainterMap" {
		t.Error("empty file changed defaults")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	cfg.Textures.LDRFormat = "exr"
	cfg.Hierarchy.Mode = "magic"
	cfg.Pivot.Calculation = "median"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("expected 4 errors, got %d: %v", n, err)
	}
	if !strings.Contains(err.Error(), "exr") {
		t.Errorf("error does not name the format: %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Fatal("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(FileName, []byte("workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config in current directory")
	}
}

func TestFlags(t *testing.T) {
	var flags Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.Register(fs)
	if err := fs.Parse([]string{"-debug", "-log-file", "run.log", "-workers", "8"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := Default()
	flags.apply(cfg)
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "run.log" {
		t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Workers)
	}
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := "logging:\n  level: error\nworkers: 2\ncopy_uvs:\n  precision: 6\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(Flags{Config: path, Debug: true})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	// The flag wins over the file, the file over the defaults.
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug from flag, got %s", cfg.Logging.Level)
	}
	if cfg.Workers != 2 {
		t.Errorf("expected workers 2 from file, got %d", cfg.Workers)
	}
	if cfg.CopyUVs.Precision != 6 {
		t.Errorf("expected precision 6 from file, got %d", cfg.CopyUVs.Precision)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Textures.List = append(cfg.Textures.List, packing.TextureSpec{RGB: "quaternion", HDR: false})
	cfg.Hierarchy.Bases = []string{"trunk", "rock"}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := Load(Flags{Config: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Textures.List) != 2 || loaded.Textures.List[1].RGB != "quaternion" {
		t.Errorf("textures lost: %+v", loaded.Textures.List)
	}
	if len(loaded.Hierarchy.Bases) != 2 {
		t.Errorf("bases lost: %+v", loaded.Hierarchy.Bases)
	}
}
