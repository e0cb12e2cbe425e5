package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/chapterbar/internal/style"
	"github.com/ivlev/chapterbar/internal/timeline"
)

// Project is the YAML file a user edits: chapters, look and optional
// video settings. Durations are in seconds.
type Project struct {
	Timeline timeline.Timeline `yaml:"timeline"`
	Style    style.Style       `yaml:"style"`
	Video    *Video            `yaml:"video,omitempty"`
}

// Video overrides export defaults from inside a project file.
type Video struct {
	Width   int     `yaml:"width,omitempty"`
	Height  int     `yaml:"height,omitempty"`
	FPS     float64 `yaml:"fps,omitempty"`
	Format  string  `yaml:"format,omitempty"`
	Codec   string  `yaml:"codec,omitempty"`
	Quality int     `yaml:"quality,omitempty"`
	Preset  string  `yaml:"preset,omitempty"`
}

// LoadProject reads a project file. Style keys left out keep their
// defaults; unknown keys are an error. The timeline is not validated.
func LoadProject(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &Project{Style: style.Default()}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// SaveProject writes p as YAML, creating the parent directory.
func SaveProject(p *Project, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SampleProject is what `init` writes: three chapters over one minute.
func SampleProject() *Project {
	return &Project{
		Timeline: timeline.Timeline{
			TotalDuration: 60,
			Chapters: []timeline.Chapter{
				{Title: "Intro", EndTime: 10},
				{Title: "Main part", EndTime: 45},
				{Title: "Outro", EndTime: 60},
			},
		},
		Style: style.Default(),
		Video: &Video{FPS: 30, Format: "webm", Preset: "strip"},
	}
}
