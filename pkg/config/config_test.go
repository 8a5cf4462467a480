package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	options := Default()
	if err := options.Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RenderOptions)
	}{
		{"zero width", func(o *RenderOptions) { o.Width = 0 }},
		{"negative samples", func(o *RenderOptions) { o.SamplesPerPixel = -1 }},
		{"zero path length", func(o *RenderOptions) { o.MaxPathLength = 0 }},
		{"unknown integrator", func(o *RenderOptions) { o.Integrator = "photon-mapping" }},
		{"unknown sampler", func(o *RenderOptions) { o.Sampler = "sobol" }},
		{"empty output", func(o *RenderOptions) { o.Output = "" }},
	}

	for _, tt := range tests {
		options := Default()
		tt.mutate(&options)
		if err := options.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.yaml")

	options := Default()
	options.Width = 320
	options.Height = 180
	options.Integrator = "bidirectional"
	options.Seed = 99
	if err := options.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != options {
		t.Errorf("round trip changed options:\n  saved  %+v\n  loaded %+v", options, loaded)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("width: 64\nheight: 64\n"), 0o644); err != nil {
		t.Fatalf("writing partial config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Width != 64 || loaded.Height != 64 {
		t.Errorf("explicit fields not applied: %+v", loaded)
	}
	if loaded.Integrator != "forward-mis" || loaded.SamplesPerPixel != 64 {
		t.Errorf("defaults not filled: %+v", loaded)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("integrator: sppm\n"), 0o644); err != nil {
		t.Fatalf("writing bad config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected file error")
	}
}
