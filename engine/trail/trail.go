// Package trail animates the ambient light trails that climb around the face. Each actor
// is a polyline that rises along the surface of a bounding cylinder, drifting randomly
// left and right, and respawns near the bottom when its life runs out.
package trail

import (
	"math"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// spawnBand is the fraction of the cylinder height actors spawn in, from the bottom.
	spawnBand = 0.3
	// wobbleAmount is the relative radius oscillation of a climbing actor.
	wobbleAmount = 0.04
	// wobbleCycles is how many radius oscillations happen over one lifetime.
	wobbleCycles = 3
	// minLifetime floors a jittered lifetime.
	minLifetime = 0.1
)

// Cylinder is the surface the trails climb: a vertical cylinder around Center's x and z.
type Cylinder struct {
	Center mgl32.Vec3
	Radius float32
	MinY   float32
	MaxY   float32
}

// CylinderFromBounds wraps a mesh bounding box. The radius is the box's horizontal radius
// times scale, so trails orbit slightly outside the face.
//
// Parameters:
//   - b: the mesh bounds
//   - scale: the radius multiplier
//
// Returns:
//   - Cylinder: the enclosing cylinder
func CylinderFromBounds(b model.Bounds, scale float32) Cylinder {
	return Cylinder{
		Center: b.Center(),
		Radius: b.HorizontalRadius() * scale,
		MinY:   b.Min.Y(),
		MaxY:   b.Max.Y(),
	}
}

// Height returns MaxY - MinY.
func (c Cylinder) Height() float32 {
	return c.MaxY - c.MinY
}

// Point returns the point on the cylinder wall at an angle, radius and height.
func (c Cylinder) Point(angle, radius, y float32) mgl32.Vec3 {
	return mgl32.Vec3{
		c.Center.X() + radius*math32.Cos(angle),
		y,
		c.Center.Z() + radius*math32.Sin(angle),
	}
}

// Actor is one climbing trail.
type Actor struct {
	angle   float32
	radius  float32
	y       float32
	phase   float32
	life    float32
	maxLife float32

	// points are the committed polyline vertices, oldest first
	points []mgl32.Vec3
	// travel is the distance the head moved since the last committed point
	travel float32
}

// Head returns the current leading point.
func (a *Actor) Head(c Cylinder) mgl32.Vec3 {
	return c.Point(a.angle, a.radius, a.y)
}

// Points returns the committed polyline vertices, oldest first. The head is not included.
func (a *Actor) Points() []mgl32.Vec3 {
	return a.points
}

// Life returns the normalized age in [0, 1).
func (a *Actor) Life() float32 {
	return a.life
}

// Fade returns the opacity envelope for the actor's age: a quick fade in and a slower fade
// out before respawn.
func (a *Actor) Fade() float32 {
	in := common.Smoothstep(a.life / 0.15)
	out := 1 - common.Smoothstep((a.life-0.7)/0.3)
	return in * out
}

// Field owns every trail actor around one cylinder. It is updated from the frame callback
// and is not safe for concurrent use.
type Field struct {
	cylinder Cylinder
	actors   []*Actor
	rng      common.RNG
	respawns int
}

// NewField creates a Field with count actors spawned around c.
//
// Parameters:
//   - c: the cylinder to climb
//   - cfg: the trail config used for the initial spawn
//   - rng: the random source for spawn positions and deviation
//
// Returns:
//   - *Field: the field
func NewField(c Cylinder, cfg config.Trails, rng common.RNG) *Field {
	f := &Field{cylinder: c, rng: rng}
	f.resize(cfg)
	return f
}

// Cylinder returns the cylinder the actors climb.
func (f *Field) Cylinder() Cylinder {
	return f.cylinder
}

// SetCylinder moves the field onto a new cylinder, respawning every actor on it.
func (f *Field) SetCylinder(c Cylinder, cfg config.Trails) {
	f.cylinder = c
	for _, a := range f.actors {
		f.spawn(a, cfg)
	}
}

// Actors returns the live actors.
func (f *Field) Actors() []*Actor {
	return f.actors
}

// Respawns returns how many times an actor has respawned since the field was created.
func (f *Field) Respawns() int {
	return f.respawns
}

// Reset respawns every actor.
func (f *Field) Reset(cfg config.Trails) {
	for _, a := range f.actors {
		f.spawn(a, cfg)
	}
}

// Update advances every actor by dt seconds. A change of cfg.Count grows or shrinks the
// field first.
//
// Parameters:
//   - dt: seconds since the previous frame
//   - cfg: the current trail config
func (f *Field) Update(dt float32, cfg config.Trails) {
	f.resize(cfg)
	if dt <= 0 {
		return
	}
	for _, a := range f.actors {
		f.step(a, dt, cfg)
	}
}

func (f *Field) resize(cfg config.Trails) {
	n := max(cfg.Count, 0)
	for len(f.actors) < n {
		a := &Actor{}
		f.spawn(a, cfg)
		// stagger ages so the field does not pulse in unison
		a.life = f.rng.Float32() * 0.5
		f.actors = append(f.actors, a)
	}
	if len(f.actors) > n {
		f.actors = f.actors[:n]
	}
}

func (f *Field) spawn(a *Actor, cfg config.Trails) {
	c := f.cylinder
	a.angle = f.rng.Float32() * 2 * math.Pi
	a.radius = c.Radius
	a.y = c.MinY + f.rng.Float32()*spawnBand*c.Height()
	a.phase = f.rng.Float32() * 2 * math.Pi
	a.life = 0
	a.maxLife = max(cfg.BaseLifetime*(0.75+0.5*f.rng.Float32()), minLifetime)
	a.points = append(a.points[:0], a.Head(c))
	a.travel = 0
}

func (f *Field) step(a *Actor, dt float32, cfg config.Trails) {
	c := f.cylinder
	prev := a.Head(c)

	a.y += cfg.Speed * dt
	a.angle += (2*f.rng.Float32() - 1) * cfg.Deviation * dt
	a.radius = c.Radius * (1 + wobbleAmount*math32.Sin(2*math.Pi*wobbleCycles*a.life+a.phase))
	a.life += dt / a.maxLife

	if a.life >= 1 || a.y > c.MaxY {
		f.spawn(a, cfg)
		f.respawns++
		return
	}

	head := a.Head(c)
	a.travel += head.Sub(prev).Len()
	if a.travel < cfg.SegmentLength {
		return
	}
	a.travel = 0
	maxPoints := max(cfg.MaxPoints, 2)
	if len(a.points) >= maxPoints {
		// drop the oldest point, keeping the slice in place
		copy(a.points, a.points[1:])
		a.points = a.points[:len(a.points)-1]
	}
	a.points = append(a.points, head)
}

// MaxVertices returns the largest vertex count Vertices can produce for a config.
func MaxVertices(cfg config.Trails) int {
	// MaxPoints committed points plus the head give MaxPoints segments
	return max(cfg.Count, 0) * max(cfg.MaxPoints, 2) * 2
}

// Vertices appends the line-list vertices of every actor to dst and returns it. Each
// segment contributes two vertices. uv is (t, alpha): t runs 0 at the tail to 1 at the
// head, and alpha is t scaled by the actor's fade envelope.
//
// Parameters:
//   - dst: the slice to append to, usually the previous frame's slice truncated to 0
//
// Returns:
//   - []model.GPUVertex: dst with the trail vertices appended
func (f *Field) Vertices(dst []model.GPUVertex) []model.GPUVertex {
	c := f.cylinder
	for _, a := range f.actors {
		n := len(a.points) + 1
		if n < 2 {
			continue
		}
		fade := a.Fade()
		at := func(i int) model.GPUVertex {
			p := a.Head(c)
			if i < len(a.points) {
				p = a.points[i]
			}
			t := float32(i) / float32(n-1)
			// outward normal keeps the shared lighting path well defined
			normal := mgl32.Vec3{p.X() - c.Center.X(), 0, p.Z() - c.Center.Z()}
			if l := normal.Len(); l > 0 {
				normal = normal.Mul(1 / l)
			}
			return model.GPUVertex{
				Position:     p,
				PositionFlip: p,
				Normal:       normal,
				UV:           [2]float32{t, t * fade},
			}
		}
		for i := 0; i < n-1; i++ {
			dst = append(dst, at(i), at(i+1))
		}
	}
	return dst
}
