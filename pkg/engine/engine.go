// Package engine provides the visualization context: the owner of one
// projected item set together with its spatial index, selection state and
// label visibility.
//
// An Engine is driven from a single frame loop. It is not safe for
// concurrent use; every method is expected to run between frames.
//
// Basic usage:
//
//	pool, err := embedcache.Load("genres.kec")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng, err := engine.New(engine.DefaultOptions(), pool, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng.Reproject(false)
//	for {
//	    out := eng.Tick(engine.FrameInput{Viewpoint: pos, Heading: dir, Camera: cam})
//	    if out.Emitted {
//	        consume(out.Weights)
//	    }
//	}
package engine

import (
	"log/slog"
	"maps"
	"time"

	"cogentcore.org/core/math32"
	"github.com/google/uuid"

	"github.com/sanonone/kektorspace/pkg/core/projection"
	"github.com/sanonone/kektorspace/pkg/core/spatial"
	"github.com/sanonone/kektorspace/pkg/core/types"
	"github.com/sanonone/kektorspace/pkg/metrics"
	"github.com/sanonone/kektorspace/pkg/selection"
	"github.com/sanonone/kektorspace/pkg/visibility"
)

// Engine is one visualization context.
type Engine struct {
	opts Options
	pool []projection.Entry

	// Current projection generation.
	generation uuid.UUID
	items      []types.Item
	labels     []string
	positions  []math32.Vector3
	grid       *spatial.Grid

	selector  *selection.Selector
	scheduler *visibility.Scheduler

	tick uint64
	// forceNext makes the next Tick run the throttled stages regardless of
	// the interval, after any event that changes what they would compute.
	forceNext bool

	// lastWeights is the previous emission; an empty map counts as emitted.
	lastWeights map[string]float32

	now func() time.Time
}

// New validates opts and returns an engine over pool with no item set yet.
// Queries before the first Reproject return empty results. A nil picker
// defaults to a selection.BoxPicker sized by opts.MarkerSize.
func New(opts Options, pool []projection.Entry, picker selection.Picker) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if picker == nil {
		picker = selection.BoxPicker{Size: opts.MarkerSize}
	}
	e := &Engine{
		opts:        opts,
		pool:        pool,
		grid:        spatial.NewGrid(),
		selector:    selection.New(opts.selectionConfig(), picker),
		scheduler:   visibility.NewScheduler(opts.visibilityConfig()),
		lastWeights: map[string]float32{},
		now:         time.Now,
	}
	return e, nil
}

// Generation identifies the current item set, or is uuid.Nil before the
// first build.
func (e *Engine) Generation() uuid.UUID { return e.generation }

// Items returns the current item arena.
func (e *Engine) Items() []types.Item { return e.items }

// Labels returns the labels of the current build in arena order.
func (e *Engine) Labels() []string { return e.labels }

// Selector exposes the selection state of the current generation.
func (e *Engine) Selector() *selection.Selector { return e.selector }

// Visible returns the arena indices whose labels are currently shown.
func (e *Engine) Visible() []int { return e.scheduler.Visible() }

// Options returns the current configuration.
func (e *Engine) Options() Options { return e.opts }

// SetPool replaces the embedding pool. It applies on the next Reproject.
func (e *Engine) SetPool(pool []projection.Entry) { e.pool = pool }

// Rebuild reports the outcome of a Reproject call.
type Rebuild struct {
	Generation uuid.UUID
	Items      int
	// Restored is the number of manual primary items carried over by label.
	Restored int
	Seed     int64
}

// Reproject destroys the current item set and builds a new one from the
// pool. With preserve set, the manual selection is carried over to the new
// items by label. The index, selection and visibility state are all
// replaced before it returns.
func (e *Engine) Reproject(preserve bool) Rebuild {
	start := time.Now()

	var snap *selection.Snapshot
	if preserve {
		snap = e.selector.Preserve()
	}

	params := e.opts.Projection
	previous := e.labels
	switch {
	case e.opts.RandomizePoints:
		params.Seed = e.now().UnixNano()
		previous = nil
	case params.Seed == 0:
		params.Seed = projection.DaySeed(e.now())
	}

	res := projection.Project(projection.Request{
		Pool:                e.pool,
		PointCount:          e.opts.PointCount,
		Previous:            previous,
		Params:              params,
		RandomizeEmbeddings: e.opts.RandomizeEmbeddings,
	})

	e.items = res.Items
	e.labels = res.Labels
	e.positions = types.Positions(res.Items)
	e.grid.Build(res.Items)
	e.selector.Bind(res.Items, e.grid)
	e.scheduler.Reset()

	restored := 0
	if snap != nil {
		restored = e.selector.Restore(snap)
	}
	e.generation = uuid.New()
	e.forceNext = true

	metrics.Reprojections.Inc()
	metrics.StageDuration.WithLabelValues("reproject").Observe(time.Since(start).Seconds())
	slog.Info("[Engine] Reprojected",
		"generation", e.generation,
		"items", len(res.Items),
		"method", params.Method,
		"seed", params.Seed,
		"restored", restored,
		"duration", time.Since(start))

	return Rebuild{Generation: e.generation, Items: len(res.Items), Restored: restored, Seed: params.Seed}
}

// FrameInput is the caller's per-frame state.
type FrameInput struct {
	// Viewpoint and Heading are the pilot pose. Proximity is measured from
	// Viewpoint and the viewing cone is anchored there.
	Viewpoint math32.Vector3
	Heading   math32.Vector3
	// Camera is the eye used for frustum, occlusion and label ranking.
	Camera    math32.Vector3
	Frustum   visibility.Frustum
	Occluders []visibility.Occluder
	// Force runs the throttled stages on this tick.
	Force bool
}

// FrameOutput is what the renderer and the prompt consumer receive.
type FrameOutput struct {
	Tick uint64
	// Updated reports whether the throttled stages ran.
	Updated bool
	// Styles is the full highlight classification, set only when Updated.
	Styles []selection.Styled
	// Visibility is the label diff, set only when Updated.
	Visibility visibility.Diff
	// Emitted reports a changed combined weight map, carried in Weights.
	Emitted bool
	Weights map[string]float32
}

// Tick advances the frame counter. On throttled ticks (or when forced) it
// refreshes the proximity selection, highlight styles and label visibility,
// and emits the combined weights if they differ from the last emission.
func (e *Engine) Tick(in FrameInput) FrameOutput {
	tick := e.tick
	e.tick++

	out := FrameOutput{Tick: tick}
	if !visibility.ShouldRun(tick, e.opts.UpdateEveryFrames, in.Force || e.forceNext) {
		return out
	}
	e.forceNext = false
	out.Updated = true

	start := time.Now()
	e.selector.UpdateProximity(in.Viewpoint)
	metrics.StageDuration.WithLabelValues("proximity").Observe(time.Since(start).Seconds())

	out.Styles = e.selector.HighlightSelection()

	start = time.Now()
	out.Visibility = e.scheduler.Run(visibility.Frame{
		Positions:   e.positions,
		Camera:      in.Camera,
		Viewpoint:   in.Viewpoint,
		Heading:     in.Heading,
		Frustum:     in.Frustum,
		Occluders:   in.Occluders,
		Highlighted: e.selector.Highlighted(),
	})
	metrics.StageDuration.WithLabelValues("visibility").Observe(time.Since(start).Seconds())
	metrics.VisibleLabels.Set(float64(len(e.scheduler.Visible())))

	e.emit(&out)
	if !out.Visibility.Empty() {
		slog.Debug("[Engine] Visibility changed", "tick", tick, "shown", len(out.Visibility.Shown), "hidden", len(out.Visibility.Hidden))
	}
	return out
}

// Click resolves a click ray immediately, without throttling. The returned
// output carries the new highlight styles and, if they changed, the
// combined weights. Label visibility follows on the next Tick.
func (e *Engine) Click(ray math32.Ray, origin math32.Vector3) FrameOutput {
	start := time.Now()
	e.selector.SelectByClick(ray, origin)
	metrics.StageDuration.WithLabelValues("click").Observe(time.Since(start).Seconds())
	return e.refresh()
}

// RecalculateNeighbors applies the current neighbor parameters to the
// manual selection.
func (e *Engine) RecalculateNeighbors() FrameOutput {
	e.selector.RecalculateNeighbors()
	return e.refresh()
}

func (e *Engine) refresh() FrameOutput {
	out := FrameOutput{Tick: e.tick, Styles: e.selector.HighlightSelection()}
	e.forceNext = true
	e.emit(&out)
	return out
}

// emit fills out.Weights when the combined map differs from the previous
// emission in any key or value.
func (e *Engine) emit(out *FrameOutput) {
	weights := e.selector.CombinedWeights()
	e.recordSelectionSizes()
	if maps.Equal(weights, e.lastWeights) {
		return
	}
	e.lastWeights = weights
	out.Emitted = true
	out.Weights = maps.Clone(weights)
	metrics.WeightEmissions.Inc()
	slog.Debug("[Engine] Weights changed", "labels", len(weights))
}

func (e *Engine) recordSelectionSizes() {
	prox, man, nb := 0, 0, 0
	if p := e.selector.Proximity(); p != nil {
		prox = len(p.Primary)
	}
	if m := e.selector.Manual(); m != nil {
		man = len(m.Primary)
		nb = len(m.Neighbors)
	}
	metrics.SelectionItems.WithLabelValues("proximity").Set(float64(prox))
	metrics.SelectionItems.WithLabelValues("manual").Set(float64(man))
	metrics.SelectionItems.WithLabelValues("neighbors").Set(float64(nb))
}
