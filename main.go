package main

import (
	"flag"
	"runtime"

	"go.uber.org/zap"

	"github.com/lumen-render/go-lumen/pkg/accel"
	"github.com/lumen-render/go-lumen/pkg/config"
	"github.com/lumen-render/go-lumen/pkg/core"
	"github.com/lumen-render/go-lumen/pkg/integrator"
	"github.com/lumen-render/go-lumen/pkg/lights"
	"github.com/lumen-render/go-lumen/pkg/renderer"
	"github.com/lumen-render/go-lumen/pkg/scene"
)

func main() {
	configPath := flag.String("config", "", "YAML render settings (defaults apply when empty)")
	sceneName := flag.String("scene", "cornell", "demo scene: cornell, nested, material-ball")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	options := config.Default()
	if *configPath != "" {
		options, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	var demo scene.Demo
	switch *sceneName {
	case "cornell":
		demo = scene.CornellBox()
	case "nested":
		demo = scene.NestedDielectrics()
	case "material-ball":
		demo = scene.MaterialBall()
	default:
		log.Fatalf("unknown scene %q", *sceneName)
	}

	s, err := scene.New(demo.Entities, demo.Infinity, accel.NewBVH,
		func(ls []core.Light) core.LightDistribution { return lights.NewUniformDistribution(ls) },
		func(ls []core.Light) core.SpatialLightDistribution { return lights.NewUniformDistribution(ls) },
	)
	if err != nil {
		log.Fatalf("building scene: %v", err)
	}

	var integratorInst core.Integrator
	switch options.Integrator {
	case "forward-mis":
		integratorInst = integrator.NewForwardMIS(options.MaxPathLength, true)
	case "forward-bsdf":
		integratorInst = integrator.NewForwardBSDF(options.MaxPathLength)
	case "backward":
		integratorInst = integrator.NewBackward(options.MaxPathLength)
	case "bidirectional":
		integratorInst = integrator.NewBidirectional(options.MaxPathLength, true)
	}

	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	samplerKind := renderer.SamplerStratified
	if options.Sampler == "random" {
		samplerKind = renderer.SamplerRandom
	}

	log.Infow("starting render",
		"scene", *sceneName,
		"integrator", options.Integrator,
		"resolution", []int{options.Width, options.Height},
		"spp", options.SamplesPerPixel,
		"workers", workers,
	)

	r := renderer.New(
		renderer.Options{
			Width:       options.Width,
			Height:      options.Height,
			WorkerCount: workers,
			Seed:        options.Seed,
			Sampler:     samplerKind,
			Jitter:      options.Jitter,
		},
		demo.CameraToWorld, demo.FOV,
		integratorInst, s, log,
	)
	stats := r.Run(options.SamplesPerPixel)
	log.Infow("render finished",
		"tiles", stats.Tiles,
		"samples", stats.TotalSamples,
		"elapsed", stats.Elapsed,
	)

	if err := r.ExportFile(options.Output); err != nil {
		log.Fatalf("exporting image: %v", err)
	}
	log.Infof("wrote %s.raw", options.Output)
}
