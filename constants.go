package marlon

import "github.com/chewxy/math32"

// Tuning constants for the waking-motion low-pass filter and the sleep
// decision.
const (
	wakingMotionEpsilon         float32 = 1.0 / 256.0
	wakingMotionInitializer     float32 = 2 * wakingMotionEpsilon
	wakingMotionLimit           float32 = 8 * wakingMotionEpsilon
	wakingMotionSmoothingFactor float32 = 7.0 / 8.0
)

// velocityDampingFactor is the per-second velocity damping factor;
// perSubstepDampingFactor turns it into the factor applied once per substep
// to linear and angular velocity.
const velocityDampingFactor float32 = 0.99

// Safety-inflation factors for dynamic leaf bounds.
const (
	aabbSafetyConstantTerm   float32 = 0
	aabbSafetyVelocityFactor float32 = 2
	aabbSafetyGravityFactor  float32 = 2
)

// maxSolveChunkSize bounds the number of pairs dispatched to a single job
// pool task.
const maxSolveChunkSize = 16

// Reserved neighbor-pair colors and the ceiling on real colors.
const (
	colorUnmarked uint16 = 0xFFFF
	colorMarked   uint16 = 0xFFFE
	maxColors            = (1 << 16) - 2
)

// epsilon is the tolerance below which a vector or quaternion is treated as
// zero-length for normalization purposes.
const epsilon float32 = 1e-12

// nullIndex marks an absent arena slot, tree node, or list link.
const nullIndex int32 = -1

// assertf panics on a violated internal invariant — a programmer error such
// as an out-of-range handle or a double-destroy, never a caller-input error.
// Caller-input errors are returned as values from errors.go instead.
func assertf(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

// perSubstepDampingFactor derives the per-substep velocity damping factor
// from the per-second factor and substep duration h.
func perSubstepDampingFactor(h float32) float32 {
	return math32.Pow(velocityDampingFactor, h)
}

// perSubstepWakingMotionSmoothingFactor derives the per-substep waking-motion
// EMA smoothing factor alpha = 1-(1-7/8)^h.
func perSubstepWakingMotionSmoothingFactor(h float32) float32 {
	return 1 - math32.Pow(1-wakingMotionSmoothingFactor, h)
}
