// Command facecloud opens the interactive face particle viewer.
//
// Usage:
//
//	facecloud -mesh face.glb [-config face.toml] [-panel] [-seed 42]
//
// Without -mesh the placeholder sphere is shown. With -config the file is loaded at
// start, watched for edits, and is where the panel's s key saves to.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/light"
	"github.com/Carmen-Shannon/oxy-particles/engine/loader"
	"github.com/Carmen-Shannon/oxy-particles/engine/panel"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/scene"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/gdamore/tcell/v2"
)

func main() {
	meshSource := flag.String("mesh", "", "Face mesh to load: a .glb or .gltf path or http(s) URL")
	configPath := flag.String("config", "", "TOML config file, watched for changes")
	usePanel := flag.Bool("panel", false, "Show the terminal tuning panel")
	seed := flag.Uint64("seed", 0, "Sampling seed (0 keeps the config value)")
	width := flag.Int("width", 1280, "Window width in pixels")
	height := flag.Int("height", 720, "Window height in pixels")
	fps := flag.Float64("fps", 0, "Frame rate cap (0 = uncapped)")
	profile := flag.Bool("profile", false, "Log frame and memory stats every second")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logPath := flag.String("log", "facecloud.log", "Log file used while the panel owns the terminal")
	flag.Parse()

	logger := common.NewDefaultLogger("facecloud", *debug)
	if *usePanel {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
			logger.Infof("config %s does not exist yet, using defaults", *configPath)
		default:
			logger.Warnf("using default config: %v", err)
		}
	}
	if *seed != 0 {
		cfg.Sampling.Seed = *seed
	}
	store := config.NewStore(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, store, config.WithWatcherLogger(logger))
		if err != nil {
			logger.Warnf("config changes on disk will not be picked up: %v", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	win := window.NewWindow(window.WithTitle("facecloud"), window.WithSize(*width, *height))
	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win, renderer.WithLogger(logger))

	cam := camera.NewCamera(
		camera.WithAspect(float32(win.Width())/float32(max(win.Height(), 1))),
		camera.WithController(camera.NewCameraController(
			camera.WithOrbitSensitivity(cfg.Interaction.OrbitSensitivity),
			camera.WithZoomSpeed(cfg.Interaction.ZoomSpeed),
		)),
	)

	assets := loader.NewAssetCache(
		loader.WithLogger(logger),
		loader.WithTextureLimit(cfg.Shading.MaxTextureSize),
	)

	sc, err := scene.NewScene("face", cam, r, store.Snapshot(),
		scene.WithLogger(logger),
		scene.WithAssetCache(assets),
	)
	if err != nil {
		logger.Errorf("create scene: %v", err)
		os.Exit(1)
	}
	defer sc.Release()
	for key, err := range sc.DisabledDraws() {
		logger.Warnf("%s draw disabled: %v", key, err)
	}
	if *meshSource != "" {
		sc.Load(*meshSource)
	}

	eng := engine.NewEngine(win, sc, store,
		engine.WithLogger(logger),
		engine.WithProfiling(*profile),
		engine.WithRenderFrameLimit(*fps),
	)
	// window calls stay on the main thread; the frame loop notices the signal
	eng.SetFrameCallback(func(float32) {
		if ctx.Err() != nil {
			eng.Quit()
		}
	})

	if *usePanel {
		screen, err := tcell.NewScreen()
		if err != nil {
			logger.Errorf("panel disabled: %v", err)
		} else if err := screen.Init(); err != nil {
			logger.Errorf("panel disabled: %v", err)
		} else {
			defer screen.Fini()
			reg := panel.NewRegistry(store)
			reg.Register(panel.Defaults(light.Presets(), scene.Environments())...)
			p := panel.NewPanel(screen, reg,
				panel.WithLogger(logger),
				panel.WithConfigPath(*configPath),
				panel.WithResetCallback(eng.RequestReset),
			)
			go func() {
				// quitting the panel closes the viewer
				p.Run(ctx)
				cancel()
			}()
		}
	}

	eng.Run()
	cancel()
}
