// Package config holds the render settings and their YAML serialisation.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// RenderOptions is the user-facing render configuration
type RenderOptions struct {
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	SamplesPerPixel int    `yaml:"samples_per_pixel"`
	Integrator      string `yaml:"integrator"` // forward-mis, forward-bsdf, backward, bidirectional
	MaxPathLength   int    `yaml:"max_path_length"`
	Sampler         string `yaml:"sampler"` // stratified, random
	Jitter          bool   `yaml:"jitter"`
	Seed            uint64 `yaml:"seed"`
	Workers         int    `yaml:"workers"`
	Output          string `yaml:"output"`
}

// Default returns the baseline configuration
func Default() RenderOptions {
	return RenderOptions{
		Width:           512,
		Height:          512,
		SamplesPerPixel: 64,
		Integrator:      "forward-mis",
		MaxPathLength:   8,
		Sampler:         "stratified",
		Jitter:          true,
		Seed:            0,
		Workers:         0, // 0 means one worker per CPU
		Output:          "render",
	}
}

// Validate checks option consistency
func (o *RenderOptions) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.Errorf("invalid resolution %dx%d", o.Width, o.Height)
	}
	if o.SamplesPerPixel <= 0 {
		return errors.Errorf("invalid sample count %d", o.SamplesPerPixel)
	}
	if o.MaxPathLength < 1 {
		return errors.Errorf("invalid max path length %d", o.MaxPathLength)
	}
	switch o.Integrator {
	case "forward-mis", "forward-bsdf", "backward", "bidirectional":
	default:
		return errors.Errorf("unknown integrator %q", o.Integrator)
	}
	switch o.Sampler {
	case "stratified", "random":
	default:
		return errors.Errorf("unknown sampler %q", o.Sampler)
	}
	if o.Output == "" {
		return errors.New("output name must not be empty")
	}
	return nil
}

// Load reads options from a YAML file, filling unset fields with defaults
func Load(filename string) (RenderOptions, error) {
	options := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return options, errors.Wrapf(err, "reading config %s", filename)
	}
	if err := yaml.Unmarshal(data, &options); err != nil {
		return options, errors.Wrapf(err, "parsing config %s", filename)
	}
	if err := options.Validate(); err != nil {
		return options, errors.Wrapf(err, "validating config %s", filename)
	}
	return options, nil
}

// Save writes options as YAML
func (o *RenderOptions) Save(filename string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return errors.Wrapf(os.WriteFile(filename, data, 0o644), "writing config %s", filename)
}
