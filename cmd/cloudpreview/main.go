// Command cloudpreview renders stills of the face particle cloud without a window.
//
// Usage:
//
//	cloudpreview -mesh face.glb -out face.webp [-config face.toml] [-frames 360] [-count 1]
//
// The simulation is stepped at 60 Hz for -frames frames before the first still. With
// -count above one, further stills are written every -every frames as out_0001.webp and so on.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/loader"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/preview"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
)

const stepDelta = 1.0 / 60

func main() {
	meshSource := flag.String("mesh", "", "Face mesh to render: a .glb or .gltf path or http(s) URL (default: placeholder)")
	configPath := flag.String("config", "", "TOML config file")
	out := flag.String("out", "face.webp", "Output image, .webp or .png")
	size := flag.Int("size", 800, "Output width and height in pixels")
	supersample := flag.Int("supersample", 2, "Supersampling factor")
	bloom := flag.Float64("bloom", 6, "Emissive bloom radius in pixels (0 disables)")
	frames := flag.Int("frames", 360, "Frames to simulate before the first still")
	count := flag.Int("count", 1, "Number of stills to write")
	every := flag.Int("every", 30, "Frames between stills when -count > 1")
	seed := flag.Uint64("seed", 0, "Sampling seed (0 keeps the config value)")
	azimuth := flag.Float64("azimuth", 0, "Camera azimuth in radians")
	elevation := flag.Float64("elevation", 0, "Camera elevation in radians")
	timeout := flag.Duration("timeout", time.Minute, "Mesh load timeout")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := common.NewDefaultLogger("cloudpreview", *debug)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if *seed != 0 {
		cfg.Sampling.Seed = *seed
	}
	if _, err := preview.FormatFromPath(*out); err != nil {
		log.Fatal(err)
	}

	mesh, placeholder := scene.PlaceholderMesh(), true
	if *meshSource != "" {
		assets := loader.NewAssetCache(
			loader.WithLogger(logger),
			loader.WithTextureLimit(cfg.Shading.MaxTextureSize),
			loader.WithLoadTimeout(*timeout),
		)
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		res, err := assets.Load(*meshSource).Wait(ctx)
		cancel()
		if err != nil {
			log.Fatalf("load mesh: %v", err)
		}
		mesh, placeholder = res.Mesh, false
		logger.Infof("loaded %s: %d vertices, %d triangles in %s",
			res.Source, mesh.VertexCount(), mesh.TriangleCount(), res.Elapsed)
	}

	sim := scene.NewSimulation(mesh, placeholder, cfg, scene.WithSimulationLogger(logger))
	logger.Infof("%d particles (seed %d)", sim.Store().Len(), sim.Seed())

	cam := frameCamera(mesh.Bounds(), float32(*azimuth), float32(*elevation))
	rig, ok := light.Preset(cfg.Scene.LightPreset)
	if !ok {
		logger.Warnf("unknown light preset %q, using studio", cfg.Scene.LightPreset)
	}
	r := preview.NewRenderer(
		preview.WithSize(*size, *size),
		preview.WithSupersample(*supersample),
		preview.WithBloom(*bloom),
		preview.WithLogger(logger),
	)

	for range *frames {
		sim.Step(stepDelta, cfg)
	}
	for i := range max(*count, 1) {
		if i > 0 {
			for range *every {
				sim.Step(stepDelta, cfg)
			}
		}
		path := *out
		if *count > 1 {
			path = sequencePath(*out, i+1)
		}
		start := time.Now()
		img := r.Render(sim, cam, cfg, rig)
		if err := preview.WriteFile(path, img); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		stats := r.Last()
		logger.Infof("wrote %s: %d particles splatted in %s", path, stats.Splatted, time.Since(start).Round(time.Millisecond))
	}
}

// frameCamera places an orbit camera around b, matching the viewer's framing.
func frameCamera(b model.Bounds, azimuth, elevation float32) camera.Camera {
	ctrl := camera.NewCameraController()
	ctrl.FrameBounds(b)
	ctrl.SetAzimuth(azimuth)
	ctrl.SetElevation(elevation)

	extent := b.Size().Len()
	if extent <= 0 {
		extent = 1
	}
	cam := camera.NewCamera(
		camera.WithController(ctrl),
		camera.WithClipPlanes(extent*0.01, extent*50),
	)
	cam.Update()
	return cam
}

// sequencePath turns face.webp into face_0003.webp.
func sequencePath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(path, ext), n, ext)
}
