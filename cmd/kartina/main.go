package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/kartina/config"
	"github.com/Carmen-Shannon/kartina/engine"
	"github.com/Carmen-Shannon/kartina/engine/audio"
	"github.com/Carmen-Shannon/kartina/engine/camera"
	"github.com/Carmen-Shannon/kartina/engine/mesh"
	"github.com/Carmen-Shannon/kartina/engine/palette"
	"github.com/Carmen-Shannon/kartina/engine/renderer"
	"github.com/Carmen-Shannon/kartina/engine/window"
)

// GLFW and the WebGPU surface must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		log.Printf("[Kartina] %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	src, err := audio.Open(cfg.Audio.Path, nil)
	if err != nil {
		return fmt.Errorf("opening audio: %w", err)
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		src.Close()
		return err
	}
	defer win.Close()

	mode := renderer.PresentModeVSync
	if cfg.Render.PresentMode == "uncapped" {
		mode = renderer.PresentModeUncapped
	}
	cc := cfg.Render.ClearColor
	rend := renderer.NewRenderer(
		renderer.NewWGPUBackend(win.SurfaceDescriptor(), renderer.WithForceSoftwareRenderer(cfg.Render.ForceSoftware)),
		renderer.WithPresentMode(mode),
		renderer.WithClearColor(cc[0], cc[1], cc[2], cc[3]),
	)
	if err := rend.Init(win.Width(), win.Height()); err != nil {
		rend.Shutdown()
		src.Close()
		return fmt.Errorf("%w: %w", engine.ErrFatalGPU, err)
	}

	sphere := mesh.GenerateSphere(cfg.Sphere.Radius,
		mesh.WithStacks(cfg.Sphere.Stacks),
		mesh.WithSectors(cfg.Sphere.Sectors),
	)
	cam := camera.NewCamera()
	cam.SetAspectFromSize(win.Width(), win.Height())
	staging := camera.NewUniformStaging(cam)

	slot := audio.NewFrameSlot()
	var producerOpts []audio.ProducerBuilderOption
	if !cfg.Audio.Muted {
		player, err := audio.NewOtoPlayer(src.SampleRate(), src.Channels())
		if err != nil {
			log.Printf("[Audio] playback unavailable, continuing muted: %v", err)
		} else {
			producerOpts = append(producerOpts, audio.WithPlayer(player))
		}
	}
	if cfg.Audio.Progress {
		producerOpts = append(producerOpts, audio.WithProgress(audio.NewProgress(src.TotalFrames())))
	}
	producer := audio.NewProducer(src, slot, producerOpts...)

	recolorer := palette.NewRecolorer(palette.WithWorkers(cfg.Render.RecolorWorkers))
	defer recolorer.Close()

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(rend),
		engine.WithStaging(staging),
		engine.WithMesh(sphere),
		engine.WithFramePoller(slot),
		engine.WithRecolorer(recolorer),
		engine.WithRenderFrameLimit(cfg.Render.FrameLimit),
		engine.WithProfiling(cfg.Render.Profiling),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[Kartina] playing %s", cfg.Audio.Path)
	producer.Start(ctx)
	err = eng.Run(ctx)
	producer.Stop()
	return err
}
