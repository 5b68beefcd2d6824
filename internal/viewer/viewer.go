// Package viewer implements the mesh viewer main loop.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/objview/internal/config"
	"github.com/Faultbox/objview/internal/engine/camera"
	"github.com/Faultbox/objview/internal/engine/debug"
	"github.com/Faultbox/objview/internal/engine/input"
	"github.com/Faultbox/objview/internal/engine/lighting"
	"github.com/Faultbox/objview/internal/engine/renderer"
	"github.com/Faultbox/objview/internal/engine/shader"
	"github.com/Faultbox/objview/internal/engine/shader/source"
	"github.com/Faultbox/objview/internal/engine/window"
	"github.com/Faultbox/objview/internal/logger"
	"github.com/Faultbox/objview/pkg/objfile"
)

// App is the viewer instance.
type App struct {
	cfg *config.Config
	log *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	program  uint32
	mesh     *renderer.MeshRenderer

	transform camera.Transform
	speeds    camera.Speeds
	start     mgl32.Vec3
	light     renderer.Light

	fps   debug.FPSCounter
	shots *debug.Screenshots
}

// New creates the window and GL state, compiles shaders and uploads the model.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:   cfg,
		log:   logger.Named("viewer"),
		start: mgl32.Vec3(cfg.Camera.Start),
		speeds: camera.Speeds{
			Move:       cfg.Camera.MoveSpeed,
			Rotate:     cfg.Camera.RotateSpeed,
			Scale:      cfg.Camera.ScaleSpeed,
			AutoRotate: cfg.Camera.AutoRotate,
		},
		light: renderer.Light{
			Direction: lighting.Travel(cfg.Render.LightAzimuth, cfg.Render.LightElevation),
		},
		shots: debug.NewScreenshots(cfg.Render.ScreenshotDir, "objview", cfg.Render.ScreenshotFormat),
	}
	a.transform = camera.NewTransform(a.start)

	a.log.Info("initializing viewer",
		zap.String("model", cfg.Model.Path),
		zap.String("layout", cfg.Model.Layout),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context created by the window
	w, h := a.window.Size()
	a.renderer, err = renderer.New(renderer.Config{
		Width:      w,
		Height:     h,
		ClearColor: cfg.Render.ClearColor,
		Wireframe:  cfg.Render.Wireframe,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()

	if err := a.loadModel(); err != nil {
		a.Close()
		return nil, err
	}

	a.log.Info("viewer initialized")
	return a, nil
}

func (a *App) loadModel() error {
	layout := a.cfg.MeshLayout()

	r := a.cfg.Render
	provider, vert, frag := source.Select(r.ShaderDir, r.VertexShader, r.FragmentShader, layout == objfile.LayoutInterleaved)
	program, err := shader.Load(provider, vert, frag)
	if err != nil {
		return fmt.Errorf("failed to load shaders: %w", err)
	}
	a.program = program

	color := mgl32.Vec3(a.cfg.Model.DefaultColor)
	mesh, err := objfile.Load(a.cfg.Model.Path, objfile.Options{
		Layout:       layout,
		DefaultColor: &color,
		Logger:       logger.Named("objfile"),
	})
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	a.mesh, err = renderer.NewMeshRenderer(a.program, mesh)
	if errors.Is(err, renderer.ErrEmptyMesh) {
		a.log.Warn("model has no faces, nothing to draw", zap.String("model", a.cfg.Model.Path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to upload model: %w", err)
	}

	if lo, hi, ok := mesh.Bounds(); ok {
		a.log.Debug("model bounds", zap.Stringer("min", vec(lo)), zap.Stringer("max", vec(hi)))
	}
	return nil
}

// Run starts the main loop and returns when the window is closed.
func (a *App) Run() error {
	lastTime := time.Now()
	a.log.Info("starting main loop")

	for {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if a.input.Update() {
			a.log.Info("quit requested")
			return nil
		}
		a.handleEvents()

		a.transform = camera.Step(a.transform, a.input, dt, a.speeds, a.start)

		a.renderer.Begin()
		if a.mesh != nil {
			model := a.transform.Matrix()
			proj := camera.Projection(a.cfg.Camera.FOVDegrees, a.renderer.Aspect(), a.cfg.Camera.Near, a.cfg.Camera.Far)
			a.mesh.Draw(proj.Mul4(model), model, a.light)
		}

		if a.input.IsKeyPressed(sdl.SCANCODE_F12) {
			a.screenshot()
		}

		a.window.SwapBuffers()

		if fps, ok := a.fps.Tick(now); ok {
			a.log.Debug("fps", zap.Float64("fps", fps), zap.Float32("dt_ms", dt*1000))
			a.window.SetTitle(fmt.Sprintf("%s - %.0f FPS", a.window.Title(), fps))
		}
	}
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			a.renderer.Resize(a.window.Size())
		case input.EventKeyDown:
			if event.Key == sdl.SCANCODE_F {
				a.renderer.SetWireframe(!a.renderer.Wireframe())
			}
		}
	}
}

func (a *App) screenshot() {
	pixels, w, h := a.renderer.ReadPixels()
	name, err := a.shots.Save(pixels, w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("file", name))
}

// Close releases GPU resources and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.mesh != nil {
		a.mesh.Close()
	}
	if a.program != 0 {
		shader.Delete(a.program)
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

type vec mgl32.Vec3

func (v vec) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
