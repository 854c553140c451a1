package engine

import (
	"github.com/sanonone/kektorspace/pkg/core/projection"
	"github.com/sanonone/kektorspace/pkg/visibility"
)

// Runtime setters. Click and proximity radii apply to the next query,
// neighbor parameters on RecalculateNeighbors, projection parameters on
// Reproject, and visibility parameters on the next visibility run.

func (e *Engine) SetClickRadius(r float32) {
	e.opts.ClickRadius = r
	e.selector.SetConfig(e.opts.selectionConfig())
}

func (e *Engine) SetProximityRadius(r float32) {
	e.opts.ProximityRadius = r
	e.selector.SetConfig(e.opts.selectionConfig())
}

// SetNeighborRadius clamps r to [0, 2].
func (e *Engine) SetNeighborRadius(r float64) {
	e.opts.NeighborRadius = min(max(r, 0), MaxNeighborRadius)
	e.selector.SetConfig(e.opts.selectionConfig())
}

func (e *Engine) SetIncludeNeighbors(on bool) {
	e.opts.IncludeNeighbors = on
	e.selector.SetConfig(e.opts.selectionConfig())
}

func (e *Engine) SetPointCount(n int) {
	e.opts.PointCount = max(n, 0)
}

func (e *Engine) SetProjection(p projection.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.opts.Projection = p
	return nil
}

func (e *Engine) SetRandomizeEmbeddings(on bool) { e.opts.RandomizeEmbeddings = on }

func (e *Engine) SetRandomizePoints(on bool) { e.opts.RandomizePoints = on }

func (e *Engine) SetMaxInViewLabels(n int) {
	e.opts.MaxInViewLabels = max(n, 0)
	e.scheduler.SetConfig(e.opts.visibilityConfig())
}

func (e *Engine) SetUpdateEveryFrames(n uint64) { e.opts.UpdateEveryFrames = n }

func (e *Engine) SetCone(c visibility.Cone) {
	e.opts.Cone = c
	e.scheduler.SetConfig(e.opts.visibilityConfig())
}
