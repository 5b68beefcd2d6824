// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/objview/internal/engine/camera"
)

// EventType is the kind of a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
}

// Scancodes maps viewer keys to physical keys.
var Scancodes = [camera.KeyCount]sdl.Scancode{
	camera.KeyForward:   sdl.SCANCODE_W,
	camera.KeyBack:      sdl.SCANCODE_S,
	camera.KeyLeft:      sdl.SCANCODE_A,
	camera.KeyRight:     sdl.SCANCODE_D,
	camera.KeyUp:        sdl.SCANCODE_E,
	camera.KeyDown:      sdl.SCANCODE_Q,
	camera.KeyYawLeft:   sdl.SCANCODE_LEFT,
	camera.KeyYawRight:  sdl.SCANCODE_RIGHT,
	camera.KeyPitchUp:   sdl.SCANCODE_UP,
	camera.KeyPitchDown: sdl.SCANCODE_DOWN,
	camera.KeyScaleUp:   sdl.SCANCODE_EQUALS,
	camera.KeyScaleDown: sdl.SCANCODE_MINUS,
	camera.KeyReset:     sdl.SCANCODE_R,
}

// Input handles all input processing.
type Input struct {
	events   []Event
	keyboard []uint8
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events. Returns true if the window was closed or Escape
// was pressed.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			switch e.Type {
			case sdl.KEYDOWN:
				if e.Repeat != 0 {
					continue
				}
				if e.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
					quit = true
				}
				i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			case sdl.KEYUP:
				i.events = append(i.events, Event{Type: EventKeyUp, Key: e.Keysym.Scancode})
			}
		}
	}

	i.keyboard = sdl.GetKeyboardState()
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key went down this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsDown reports whether a viewer key is held. It implements camera.KeyState.
func (i *Input) IsDown(k camera.Key) bool {
	if k < 0 || k >= camera.KeyCount {
		return false
	}
	sc := int(Scancodes[k])
	return sc < len(i.keyboard) && i.keyboard[sc] != 0
}
