package engine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sanonone/kektorspace/pkg/core/projection"
	"github.com/sanonone/kektorspace/pkg/selection"
	"github.com/sanonone/kektorspace/pkg/visibility"
)

// MaxNeighborRadius is the largest meaningful cosine distance.
const MaxNeighborRadius = 2.0

// Options configures one visualization context.
type Options struct {
	// ClickRadius is the world-space distance from the click search ray
	// within which items join the manual selection.
	ClickRadius float32 `yaml:"click_radius"`
	// ProximityRadius is the world-space distance from the viewpoint within
	// which items join the proximity selection.
	ProximityRadius float32 `yaml:"proximity_radius"`
	// NeighborRadius is the cosine-distance radius of the high-dimensional
	// neighbor search. Clamped to [0, 2].
	NeighborRadius   float64 `yaml:"neighbor_radius"`
	IncludeNeighbors bool    `yaml:"include_neighbors"`

	// PointCount is the number of items a projection build displays.
	PointCount int               `yaml:"point_count"`
	Projection projection.Params `yaml:"projection"`
	// RandomizeEmbeddings projects uniform random vectors instead of the
	// cached ones.
	RandomizeEmbeddings bool `yaml:"randomize_embeddings"`
	// RandomizePoints draws a fresh label subset on every build, ignoring
	// the previous selection of labels and the configured seed.
	RandomizePoints bool `yaml:"randomize_points"`

	MaxInViewLabels int `yaml:"max_in_view_labels"`
	// UpdateEveryFrames throttles proximity and visibility updates to every
	// Nth tick. 0 and 1 both mean every tick.
	UpdateEveryFrames uint64          `yaml:"update_every_frames"`
	Cone              visibility.Cone `yaml:"cone"`
	OcclusionEpsilon  float32         `yaml:"occlusion_epsilon"`

	// MarkerSize is the edge length of the cube used by the default picker.
	MarkerSize float32 `yaml:"marker_size"`
}

// DefaultOptions returns a configuration suitable for a few hundred labels.
//
// Defaults:
//   - Click radius 1.0, proximity radius 8.0
//   - Neighbor search on, radius 0.25
//   - 200 points projected with UMAP
//   - 40 labels in view, updated every 4 frames
func DefaultOptions() Options {
	sel := selection.DefaultConfig()
	vis := visibility.DefaultConfig()
	return Options{
		ClickRadius:       sel.ClickRadius,
		ProximityRadius:   sel.ProximityRadius,
		NeighborRadius:    sel.NeighborRadius,
		IncludeNeighbors:  sel.IncludeNeighbors,
		PointCount:        200,
		Projection:        projection.DefaultParams(),
		MaxInViewLabels:   vis.MaxInView,
		UpdateEveryFrames: 4,
		Cone:              vis.Cone,
		OcclusionEpsilon:  vis.Epsilon,
		MarkerSize:        1.0,
	}
}

// Validate clamps NeighborRadius into range and reports values the engine
// cannot work with.
func (o *Options) Validate() error {
	if o.NeighborRadius < 0 {
		o.NeighborRadius = 0
	}
	if o.NeighborRadius > MaxNeighborRadius {
		o.NeighborRadius = MaxNeighborRadius
	}
	if o.ClickRadius < 0 {
		return fmt.Errorf("click_radius must not be negative, got %v", o.ClickRadius)
	}
	if o.ProximityRadius < 0 {
		return fmt.Errorf("proximity_radius must not be negative, got %v", o.ProximityRadius)
	}
	if o.PointCount < 0 {
		return fmt.Errorf("point_count must not be negative, got %d", o.PointCount)
	}
	if o.MaxInViewLabels < 0 {
		return fmt.Errorf("max_in_view_labels must not be negative, got %d", o.MaxInViewLabels)
	}
	if o.MarkerSize <= 0 {
		return fmt.Errorf("marker_size must be positive, got %v", o.MarkerSize)
	}
	if err := o.Projection.Validate(); err != nil {
		return fmt.Errorf("invalid projection parameters: %w", err)
	}
	return nil
}

func (o Options) selectionConfig() selection.Config {
	return selection.Config{
		ClickRadius:      o.ClickRadius,
		ProximityRadius:  o.ProximityRadius,
		NeighborRadius:   o.NeighborRadius,
		IncludeNeighbors: o.IncludeNeighbors,
	}
}

func (o Options) visibilityConfig() visibility.Config {
	return visibility.Config{
		MaxInView: o.MaxInViewLabels,
		Cone:      o.Cone,
		Epsilon:   o.OcclusionEpsilon,
	}
}

// LoadOptions reads a YAML options file using strict parsing. Keys missing
// from the file keep their default values. An empty path returns the
// defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	if path == "" {
		return opts, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return opts, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	// An empty file decodes to io.EOF and leaves the defaults in place.
	if err := decoder.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return opts, fmt.Errorf("YAML syntax error in config: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return opts, nil
}
