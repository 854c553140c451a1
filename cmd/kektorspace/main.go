package main

import (
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"cogentcore.org/core/math32"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanonone/kektorspace/pkg/core/types"
	"github.com/sanonone/kektorspace/pkg/embedcache"
	"github.com/sanonone/kektorspace/pkg/engine"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML options file (defaults when empty)")
	cachePath := flag.String("cache", "embeddings.kec", "Embedding cache (.json or .kec)")
	frames := flag.Int("frames", 240, "Number of frames to simulate")
	selectionPath := flag.String("selection", "", "Selection snapshot, restored at start and saved on exit")
	metricsAddr := flag.String("metrics-addr", "", "Address for the Prometheus /metrics endpoint (e.g. :9100)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	maxPrompts := flag.Int("max-prompts", 5, "Labels reported per weight emission")
	minWeight := flag.Float64("min-weight", 0.05, "Minimum reported weight")

	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("Invalid log level %q: %v", *logLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts, err := engine.LoadOptions(*configPath)
	if err != nil {
		log.Fatalf("Failed to load options: %v", err)
	}
	pool, err := embedcache.Load(*cachePath)
	if err != nil {
		log.Fatalf("Failed to load embedding cache: %v", err)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Fatal(http.ListenAndServe(*metricsAddr, mux))
		}()
	}

	eng, err := engine.New(opts, pool, nil)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	eng.Reproject(false)

	if *selectionPath != "" {
		n, err := eng.LoadSelection(*selectionPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			log.Fatalf("Failed to load selection: %v", err)
		default:
			slog.Info("[Main] Selection restored", "items", n)
		}
	}

	report := func(frame int, out engine.FrameOutput) {
		if !out.Emitted {
			return
		}
		slog.Info("[Main] Weights", "frame", frame, "prompts", engine.RankWeights(out.Weights, *maxPrompts, float32(*minWeight)))
	}

	start, end := flightPath(eng.Items())
	heading := end.Sub(start).Normal()
	for f := 0; f < *frames; f++ {
		t := float32(f) / float32(max(*frames-1, 1))
		pos := start.Add(end.Sub(start).MulScalar(t))

		if f == *frames/2 {
			// Click straight ahead of the viewpoint, then rebuild the layout
			// keeping what was picked.
			report(f, eng.Click(math32.Ray{Origin: pos, Dir: heading}, pos))
			rb := eng.Reproject(true)
			slog.Info("[Main] Layout rebuilt", "generation", rb.Generation, "restored", rb.Restored)
		}

		out := eng.Tick(engine.FrameInput{Viewpoint: pos, Heading: heading, Camera: pos})
		report(f, out)
	}

	if *selectionPath != "" {
		if err := eng.SaveSelection(*selectionPath); err != nil {
			log.Fatalf("Failed to save selection: %v", err)
		}
	}
	slog.Info("[Main] Done", "frames", *frames, "visible", len(eng.Visible()))
}

// flightPath returns a straight line through the centroid of items, running
// along x and extending past the cloud on both sides.
func flightPath(items []types.Item) (math32.Vector3, math32.Vector3) {
	if len(items) == 0 {
		return math32.Vec3(-10, 0, 0), math32.Vec3(10, 0, 0)
	}
	var c math32.Vector3
	minX, maxX := items[0].Position.X, items[0].Position.X
	for _, it := range items {
		c = c.Add(it.Position)
		minX = min(minX, it.Position.X)
		maxX = max(maxX, it.Position.X)
	}
	c = c.MulScalar(1 / float32(len(items)))
	margin := float32(10)
	return math32.Vec3(minX-margin, c.Y, c.Z), math32.Vec3(maxX+margin, c.Y, c.Z)
}
