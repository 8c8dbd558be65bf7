// Package snap implements the client-side snap manager: a FIFO of
// deposited shape-local snap points from past placements, used to find a
// nearby delta that aligns a new build preview against prior builds.
package snap

import "github.com/go-gl/mathgl/mgl32"

const (
	// SnapDistanceMax is the farthest a current snap point may be from a
	// deposited one and still count as a match.
	SnapDistanceMax = float32(0.5)
	// SnapMarkerCountMax bounds the deposited FIFO; the oldest point is
	// evicted once this is exceeded.
	SnapMarkerCountMax = 64
	// dedupeDistance collapses newly-deposited points that land within
	// this distance of an existing one.
	dedupeDistance = float32(0.01)
)

// Preset is a build shape's set of local snap points (e.g. the four
// corners of a wall segment), expressed in the shape's local frame.
type Preset struct {
	LocalPoints []mgl32.Vec3
}

// Manager holds the deposited world-space snap points for one local
// player's build session.
type Manager struct {
	deposited []mgl32.Vec3
}

// New builds an empty snap manager.
func New() *Manager {
	return &Manager{}
}

// Deposited returns the current FIFO contents (for tests/inspection).
func (m *Manager) Deposited() []mgl32.Vec3 {
	return m.deposited
}

func worldPoints(preset Preset, center mgl32.Vec3, rotation mgl32.Quat) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(preset.LocalPoints))
	for i, p := range preset.LocalPoints {
		out[i] = center.Add(rotation.Rotate(p))
	}
	return out
}

// TrySnap transforms preset's local points into world space at (center,
// rotation), finds the closest (deposited, current) pair under
// SnapDistanceMax, and returns the delta current needs to move by
// (deposited - current) to align. ok is false if nothing is in range.
func (m *Manager) TrySnap(preset Preset, center mgl32.Vec3, rotation mgl32.Quat) (delta mgl32.Vec3, ok bool) {
	current := worldPoints(preset, center, rotation)
	best := SnapDistanceMax
	for _, dep := range m.deposited {
		for _, cur := range current {
			d := dep.Sub(cur).Len()
			if d < best {
				best = d
				delta = dep.Sub(cur)
				ok = true
			}
		}
	}
	return delta, ok
}

// Deposit transforms preset's local points into world space at (center,
// rotation) and adds them to the FIFO, deduping against existing points
// within dedupeDistance and evicting the oldest entries over
// SnapMarkerCountMax.
func (m *Manager) Deposit(preset Preset, center mgl32.Vec3, rotation mgl32.Quat) {
	for _, p := range worldPoints(preset, center, rotation) {
		dup := false
		for _, existing := range m.deposited {
			if existing.Sub(p).Len() < dedupeDistance {
				dup = true
				break
			}
		}
		if !dup {
			m.deposited = append(m.deposited, p)
		}
	}
	if over := len(m.deposited) - SnapMarkerCountMax; over > 0 {
		m.deposited = m.deposited[over:]
	}
}
