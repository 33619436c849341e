package core

import (
	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

// Model places a mesh in the world. Each frame the owning scene calls Update,
// which advances the yaw by the current spin rate.
type Model struct {
	Mesh      MeshID
	Transform *Transform
	// Euler angles in degrees; kept alongside the quaternion so yaw can wrap.
	Eulers mgl32.Vec3

	// Spin is the current yaw rate in degrees per second, eased toward
	// TargetSpin by a critically damped spring.
	Spin       float64
	TargetSpin float64

	fps        int
	spinSpring harmonica.Spring
	spinAccel  float64
}

func NewModel(mesh MeshID, position, eulers mgl32.Vec3, fps int) *Model {
	if fps < 1 {
		fps = 60
	}
	m := &Model{
		Mesh:       mesh,
		Transform:  NewTransform(),
		Eulers:     eulers,
		fps:        fps,
		spinSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
	m.Transform.Position = position
	m.Transform.SetEulerDegrees(eulers)
	return m
}

// SetSpin makes the model spin at rate deg/s immediately, with no easing.
func (m *Model) SetSpin(rate float64) {
	m.Spin = rate
	m.TargetSpin = rate
	m.spinAccel = 0
}

// SpinTo eases the spin rate from its current value toward rate deg/s.
func (m *Model) SpinTo(rate float64) {
	m.TargetSpin = rate
}

// Update advances the model by one frame.
func (m *Model) Update() {
	if m.Spin == 0 && m.TargetSpin == 0 {
		return
	}
	m.Spin, m.spinAccel = m.spinSpring.Update(m.Spin, m.spinAccel, m.TargetSpin)

	yaw := float64(m.Eulers.Y()) + m.Spin/float64(m.fps)
	for yaw >= 360 {
		yaw -= 360
	}
	for yaw < 0 {
		yaw += 360
	}
	m.Eulers[1] = float32(yaw)
	m.Transform.SetEulerDegrees(m.Eulers)
}

func (m *Model) ObjectToWorld() mgl32.Mat4 {
	return m.Transform.ObjectToWorld()
}

func (m *Model) WorldToObject() mgl32.Mat4 {
	return m.Transform.WorldToObject()
}
