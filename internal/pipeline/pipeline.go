// Package pipeline runs the texture bake over a scene: validate, infer the
// hierarchy, solve pivots, pack and export. Every step and warning is logged.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/pivot-painter/internal/config"
	"github.com/Faultbox/pivot-painter/pkg/export"
	"github.com/Faultbox/pivot-painter/pkg/hierarchy"
	"github.com/Faultbox/pivot-painter/pkg/layout"
	"github.com/Faultbox/pivot-painter/pkg/packing"
	"github.com/Faultbox/pivot-painter/pkg/pivot"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// ErrNoBases is returned when hierarchy inference has no base meshes.
var ErrNoBases = errors.New("pipeline: no base meshes configured")

// Pipeline runs the bake steps with one configuration.
type Pipeline struct {
	cfg *config.Config
	log *zap.Logger
}

// New creates a pipeline. A nil logger discards output.
func New(cfg *config.Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, log: log}
}

// Result collects what a full run produced.
type Result struct {
	Hierarchy *hierarchy.Result
	Pivots    *pivot.Report
	Size      layout.Size
	Textures  []*packing.Texture
	Files     []string
	Warnings  []packing.Warning
}

// Select resolves names to a selection. With no names every mesh of the
// scene is selected in file order.
func Select(s *scene.Scene, names []string) (*scene.Selection, error) {
	if len(names) == 0 {
		return scene.NewSelection(s.Meshes())
	}
	objects, err := s.Lookup(names)
	if err != nil {
		return nil, err
	}
	return scene.NewSelection(objects)
}

// Validate checks the scene, the textures and the output folder. Nothing is
// changed; bound box warnings are logged and returned.
func (p *Pipeline) Validate(s *scene.Scene, sel *scene.Selection) ([]packing.Warning, error) {
	warnings, err := packing.Validate(sel, s.Units, p.cfg.Textures.List)
	if p.cfg.Textures.Save {
		if ferr := export.CheckFolder(p.cfg.Textures.Folder); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: %w", packing.ErrConfiguration, ferr))
		}
	}
	if err != nil {
		var missing *packing.MissingAttributeError
		if errors.As(err, &missing) {
			p.log.Warn("Objects missing a property",
				zap.String("property", missing.Attribute),
				zap.Strings("objects", missing.Objects))
		}
		return nil, err
	}
	for _, w := range warnings {
		p.log.Warn("Ambiguous bound box",
			zap.String("object", w.Object.Name),
			zap.String("option", w.Option),
			zap.String("reason", w.Message))
	}
	return warnings, nil
}

// InferHierarchy parents the selection under the configured base meshes and
// applies the result. A result deeper than the limit is returned unapplied
// together with the depth error.
func (p *Pipeline) InferHierarchy(ctx context.Context, s *scene.Scene, sel *scene.Selection) (*hierarchy.Result, error) {
	if len(p.cfg.Hierarchy.Bases) == 0 {
		return nil, ErrNoBases
	}
	bases, err := s.Lookup(p.cfg.Hierarchy.Bases)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	infer := hierarchy.Infer
	if p.cfg.Hierarchy.Mode == config.HierarchyNearest {
		infer = hierarchy.NearestBase
	}
	result, err := infer(ctx, bases, sel.Objects(), p.cfg.InferenceOptions())
	if err != nil {
		var depthErr *hierarchy.DepthExceededError
		if errors.As(err, &depthErr) {
			p.log.Error("Hierarchy too deep",
				zap.Int("depth", depthErr.Depth),
				zap.Int("max", depthErr.Max))
		}
		return result, err
	}

	for _, a := range result.Ambiguities {
		p.log.Warn("Object touches several possible parents",
			zap.String("object", a.Child.Name),
			zap.String("parent", a.Parent.Name),
			zap.Strings("candidates", names(a.Candidates)))
	}
	if len(result.Unassigned) > 0 {
		p.log.Warn("Objects not reached from any base",
			zap.Strings("objects", names(result.Unassigned)))
	}
	if err := result.Apply(); err != nil {
		return result, err
	}

	p.log.Info("Hierarchy created",
		zap.String("mode", p.cfg.Hierarchy.Mode),
		zap.Int("links", len(result.Assignments)),
		zap.Int("levels", result.Depth()),
		zap.Int("ambiguous", len(result.Ambiguities)),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

// SolvePivots moves the pivot and rotation of every selected mesh, level by
// level from the roots down.
func (p *Pipeline) SolvePivots(ctx context.Context, sel *scene.Selection) (*pivot.Report, error) {
	solver, err := pivot.NewSolver(p.cfg.SolverOptions())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := solver.Solve(ctx, sel.Objects())
	if err != nil {
		return report, err
	}
	for _, w := range report.Warnings {
		p.log.Warn("Pivot warning",
			zap.String("object", w.Object.Name),
			zap.String("reason", w.Message))
	}
	for _, sol := range report.Solutions {
		p.log.Debug("Pivot set",
			zap.String("object", sol.Object.Name),
			zap.String("source", sol.Source),
			zap.Bool("rotated", sol.Rotated))
	}
	p.log.Info("Pivots solved",
		zap.Int("objects", len(report.Solutions)),
		zap.Int("levels", report.Levels),
		zap.Duration("took", time.Since(start)))
	return report, nil
}

// Textures writes the texel UVs, packs every configured texture and saves
// them when saving is enabled.
func (p *Pipeline) Textures(sel *scene.Selection) ([]*packing.Texture, []string, error) {
	size, err := layout.Dimensions(sel.Len())
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	textures, err := packing.Build(sel, p.cfg.Textures.List, packing.Options{Seed: p.cfg.Textures.Seed})
	if err != nil {
		return nil, nil, err
	}
	packing.AssignUVs(sel, size, p.cfg.Textures.UVMapName)
	p.log.Info("Textures packed",
		zap.Int("textures", len(textures)),
		zap.Stringer("size", size),
		zap.String("uv_map", p.cfg.Textures.UVMapName),
		zap.Duration("took", time.Since(start)))

	if !p.cfg.Textures.Save {
		return textures, nil, nil
	}
	w, err := export.NewWriter(p.cfg.Textures.Folder, p.cfg.Textures.LDRFormat)
	if err != nil {
		return textures, nil, err
	}
	var files []string
	for _, tex := range textures {
		written, err := w.Write(tex)
		if err != nil {
			return textures, files, fmt.Errorf("saving %s: %w", tex.Name, err)
		}
		for _, f := range written {
			p.log.Info("Texture saved", zap.String("file", f))
		}
		files = append(files, written...)
	}
	return textures, files, nil
}

// Run validates, optionally infers the hierarchy, solves pivots and packs.
// Inference runs when base meshes are configured.
func (p *Pipeline) Run(ctx context.Context, s *scene.Scene, sel *scene.Selection) (*Result, error) {
	p.log.Info("Starting bake",
		zap.Int("objects", sel.Len()),
		zap.Int("textures", len(p.cfg.Textures.List)))

	warnings, err := p.Validate(s, sel)
	if err != nil {
		return nil, err
	}
	if _, err := pivot.NewSolver(p.cfg.SolverOptions()); err != nil {
		return nil, err
	}
	res := &Result{Warnings: warnings}

	if len(p.cfg.Hierarchy.Bases) > 0 {
		if res.Hierarchy, err = p.InferHierarchy(ctx, s, sel); err != nil {
			return res, err
		}
	}
	if res.Pivots, err = p.SolvePivots(ctx, sel); err != nil {
		return res, err
	}
	if res.Size, err = layout.Dimensions(sel.Len()); err != nil {
		return res, err
	}
	if res.Textures, res.Files, err = p.Textures(sel); err != nil {
		return res, err
	}
	return res, nil
}

func names(objects []*scene.Object) []string {
	out := make([]string, len(objects))
	for i, o := range objects {
		out[i] = o.Name
	}
	return out
}
