// Package lighting converts light settings into shader inputs.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing towards the light. Azimuth rotates around Y starting at +Z,
// elevation is measured up from the horizon.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(mgl32.DegToRad(azimuth))
	el := float64(mgl32.DegToRad(elevation))

	return mgl32.Vec3{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Cos(az)),
	}
}

// Travel returns the direction light travels, the negation of SunDirection.
// This is what the lit shader expects in uLightDir.
func Travel(azimuth, elevation float32) mgl32.Vec3 {
	return SunDirection(azimuth, elevation).Mul(-1)
}
