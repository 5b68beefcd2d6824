// Package camera holds the viewer's model transform, projection and the
// per-frame keyboard step that drives them.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Scale limits.
const (
	MinScale float32 = 0.01
	MaxScale float32 = 100
)

// Key is a logical viewer key, independent of the windowing backend.
type Key int

const (
	KeyForward Key = iota // W
	KeyBack               // S
	KeyLeft               // A
	KeyRight              // D
	KeyUp                 // E
	KeyDown               // Q
	KeyYawLeft            // Left arrow
	KeyYawRight           // Right arrow
	KeyPitchUp            // Up arrow
	KeyPitchDown          // Down arrow
	KeyScaleUp            // =
	KeyScaleDown          // -
	KeyReset              // R
	KeyCount
)

// KeyState reports which keys are held this frame.
type KeyState interface {
	IsDown(k Key) bool
}

// KeySet is a KeyState backed by a set of held keys.
type KeySet map[Key]bool

// IsDown implements KeyState.
func (s KeySet) IsDown(k Key) bool { return s[k] }

// Transform places the model in world space.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // Pitch (X) and yaw (Y) in radians; Z is unused
	Scale    float32
}

// NewTransform returns a transform at start with unit scale.
func NewTransform(start mgl32.Vec3) Transform {
	return Transform{Position: start, Scale: 1}
}

// Matrix returns T * Ry * Rx * S.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(mgl32.HomogRotate3DY(t.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(t.Rotation.X())).
		Mul4(mgl32.Scale3D(t.Scale, t.Scale, t.Scale))
}

// Speeds are per-second rates applied by Step.
type Speeds struct {
	Move       float32 // Units per second
	Rotate     float32 // Radians per second
	Scale      float32 // Scale factor change per second, relative
	AutoRotate float32 // Yaw radians per second applied every frame
}

// Step advances t by dt seconds according to held keys. Reset returns to the
// transform at start, keeping nothing else from t.
func Step(t Transform, keys KeyState, dt float32, s Speeds, start mgl32.Vec3) Transform {
	if keys.IsDown(KeyReset) {
		return NewTransform(start)
	}

	move := s.Move * dt
	axis := func(pos, neg Key) float32 {
		var v float32
		if keys.IsDown(pos) {
			v++
		}
		if keys.IsDown(neg) {
			v--
		}
		return v
	}

	t.Position = t.Position.Add(mgl32.Vec3{
		axis(KeyRight, KeyLeft) * move,
		axis(KeyUp, KeyDown) * move,
		axis(KeyForward, KeyBack) * move,
	})

	rot := s.Rotate * dt
	t.Rotation[0] += axis(KeyPitchDown, KeyPitchUp) * rot
	t.Rotation[1] += axis(KeyYawRight, KeyYawLeft)*rot + s.AutoRotate*dt

	if d := axis(KeyScaleUp, KeyScaleDown); d != 0 {
		t.Scale *= 1 + d*s.Scale*dt
	}
	t.Scale = mgl32.Clamp(t.Scale, MinScale, MaxScale)

	t.Rotation[1] = wrapAngle(t.Rotation[1])
	return t
}

func wrapAngle(a float32) float32 {
	const twoPi = 2 * math.Pi
	if a > twoPi || a < -twoPi {
		return float32(math.Mod(float64(a), twoPi))
	}
	return a
}

// Projection returns a perspective matrix. A non-positive aspect is treated as 1.
func Projection(fovDegrees, aspect, near, far float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, near, far)
}
