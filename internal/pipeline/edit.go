package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/pivot-painter/pkg/meshops"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// Order writes the SelectionOrder tag onto the selection, in order.
func (p *Pipeline) Order(sel *scene.Selection) error {
	so := p.cfg.SelectionOrder
	if err := scene.AssignSelectionOrder(sel.Objects(), so.Start, so.SameNumber); err != nil {
		return err
	}
	p.log.Info("Selection order assigned",
		zap.Int("objects", sel.Len()),
		zap.Int("start", so.Start),
		zap.Bool("same_number", so.SameNumber))
	return nil
}

// Split replaces every selected mesh by its loose parts. The first part takes
// over the children of the original. The new objects are returned in order.
func (p *Pipeline) Split(s *scene.Scene, sel *scene.Selection) ([]*scene.Object, error) {
	var created []*scene.Object
	for _, o := range sel.Objects() {
		if !o.IsMesh() {
			continue
		}
		parts := meshops.Split(o)
		for _, c := range append([]*scene.Object(nil), o.Children...) {
			if err := c.SetParent(parts[0]); err != nil {
				return created, fmt.Errorf("moving %q to %q: %w", c.Name, parts[0].Name, err)
			}
		}
		if err := s.Remove(o); err != nil {
			return created, err
		}
		for _, part := range parts {
			part.Name = s.UniqueName(part.Name)
			if err := s.Add(part); err != nil {
				return created, err
			}
		}
		p.log.Info("Mesh split",
			zap.String("object", o.Name),
			zap.Int("parts", len(parts)))
		created = append(created, parts...)
	}
	return created, nil
}

// CopyUVs copies the configured UV layer from sources onto the target named
// in the config.
func (p *Pipeline) CopyUVs(s *scene.Scene, sources []*scene.Object) (meshops.CopyResult, error) {
	target := s.Object(p.cfg.CopyUVs.Target)
	if target == nil {
		return meshops.CopyResult{}, fmt.Errorf("%w: %q", scene.ErrUnknownObject, p.cfg.CopyUVs.Target)
	}
	opts := p.cfg.CopyOptions()
	result, err := meshops.CopyUVs(sources, target, opts)
	if err != nil {
		return result, err
	}
	fields := []zap.Field{
		zap.String("target", target.Name),
		zap.String("layer", opts.Layer),
		zap.Int("matched", result.Matched),
		zap.Int("retried", result.Retried),
		zap.Int("unmatched", result.Unmatched),
	}
	if result.OK() {
		p.log.Info("UVs copied", fields...)
	} else {
		p.log.Warn("Some loops got no UV", fields...)
	}
	return result, nil
}
