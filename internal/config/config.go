// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/objview/pkg/objfile"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Model   ModelConfig   `yaml:"model"`
	Render  RenderConfig  `yaml:"render"`
	Camera  CameraConfig  `yaml:"camera"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// ModelConfig selects the mesh to load and how to lay it out.
type ModelConfig struct {
	Path         string     `yaml:"path"`
	Layout       string     `yaml:"layout"` // indexed or interleaved
	DefaultColor [3]float32 `yaml:"default_color"`
}

// RenderConfig holds rendering settings.
type RenderConfig struct {
	Wireframe      bool       `yaml:"wireframe"`
	ClearColor     [3]float32 `yaml:"clear_color"`
	ShaderDir      string     `yaml:"shader_dir"` // Empty uses the built-in shaders
	VertexShader   string     `yaml:"vertex_shader"`
	FragmentShader string     `yaml:"fragment_shader"`
	LightAzimuth   float32    `yaml:"light_azimuth"`   // Degrees around Y from +Z
	LightElevation float32    `yaml:"light_elevation"` // Degrees above the horizon

	ScreenshotDir    string `yaml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format"` // png or bmp
}

// CameraConfig holds projection and keyboard transform settings.
type CameraConfig struct {
	FOVDegrees  float32    `yaml:"fov_degrees"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Start       [3]float32 `yaml:"start"`
	MoveSpeed   float32    `yaml:"move_speed"`   // Units per second
	RotateSpeed float32    `yaml:"rotate_speed"` // Radians per second
	ScaleSpeed  float32    `yaml:"scale_speed"`  // Scale factor change per second
	AutoRotate  float32    `yaml:"auto_rotate"`  // Yaw radians per second, 0 disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "objview",
			Width:  800,
			Height: 600,
			VSync:  true,
		},
		Model: ModelConfig{
			Path:         "data/cube.obj",
			Layout:       "indexed",
			DefaultColor: [3]float32{1.0, 0.5, 0.2},
		},
		Render: RenderConfig{
			ClearColor:     [3]float32{0.2, 0.3, 0.3},
			LightAzimuth:   30,
			LightElevation: 60,

			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
		},
		Camera: CameraConfig{
			FOVDegrees:  45,
			Near:        0.1,
			Far:         100,
			Start:       [3]float32{0, 0, -10},
			MoveSpeed:   5,
			RotateSpeed: 1.5,
			ScaleSpeed:  1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model path is empty"))
	}
	if _, err := objfile.ParseLayout(c.Model.Layout); err != nil {
		errs = append(errs, err)
	}
	if c.Camera.FOVDegrees <= 0 || c.Camera.FOVDegrees >= 180 {
		errs = append(errs, fmt.Errorf("fov %.1f must be in (0, 180)", c.Camera.FOVDegrees))
	}
	if c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far {
		errs = append(errs, fmt.Errorf("near %.3f must be positive and below far %.3f", c.Camera.Near, c.Camera.Far))
	}
	if c.Render.LightElevation < -90 || c.Render.LightElevation > 90 {
		errs = append(errs, fmt.Errorf("light elevation %.1f must be in [-90, 90]", c.Render.LightElevation))
	}
	if f := c.Render.ScreenshotFormat; f != "png" && f != "bmp" {
		errs = append(errs, fmt.Errorf("screenshot format %q must be png or bmp", f))
	}
	if (c.Render.VertexShader == "") != (c.Render.FragmentShader == "") {
		errs = append(errs, errors.New("vertex_shader and fragment_shader must be set together"))
	}
	return errors.Join(errs...)
}

// MeshLayout returns the parsed model layout. Call Validate first.
func (c *Config) MeshLayout() objfile.Layout {
	l, _ := objfile.ParseLayout(c.Model.Layout)
	return l
}
