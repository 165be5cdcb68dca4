package scene

import (
	"fmt"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/logiclang/renderer"
)

var nodeCameraIDCounter uint32

func nextCameraID() uint32 {
	nodeCameraIDCounter++
	return nodeCameraIDCounter
}

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera implements renderer.CameraTarget on top of the teacher's
// position/zoom/rotation/viewport camera, extended with the
// perspective/orthographic frustum data a CameraBinding configures.
type Camera struct {
	id renderer.ObjectID

	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	followTarget  *Node
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	Bounds        Rect

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	scrollTween *scrollAnim

	// Frustum state, set by SetFrustumPerspective/SetFrustumOrthographic.
	kind renderer.CameraKind

	fov, aspect, near, far                       float64 // perspective
	left, right, bottom, top, nearO, farO        float64 // orthographic
	frustumSet                                   bool
}

// NewCamera creates a Camera with default values and the given viewport.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		id:       renderer.ObjectID(nextCameraID()),
		Zoom:     1.0,
		Viewport: viewport,
		dirty:    true,
	}
}

// ObjectID implements renderer.CameraTarget.
func (c *Camera) ObjectID() renderer.ObjectID { return c.id }

// Kind implements renderer.CameraTarget.
func (c *Camera) Kind() renderer.CameraKind { return c.kind }

// SetViewport implements renderer.CameraTarget.
func (c *Camera) SetViewport(x, y, w, h int32) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("scene: viewport size must be positive, got %dx%d", w, h)
	}
	c.Viewport = Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(h)}
	c.dirty = true
	return nil
}

// SetFrustumPerspective implements renderer.CameraTarget.
func (c *Camera) SetFrustumPerspective(fov, aspect, near, far float64) error {
	if fov <= 0 || fov >= 180 || aspect <= 0 || near <= 0 || far <= near {
		return fmt.Errorf("scene: invalid perspective frustum (fov=%g aspect=%g near=%g far=%g)", fov, aspect, near, far)
	}
	c.kind = renderer.Perspective
	c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	c.frustumSet = true
	return nil
}

// SetFrustumOrthographic implements renderer.CameraTarget.
func (c *Camera) SetFrustumOrthographic(left, right, bottom, top, near, far float64) error {
	if left >= right || bottom >= top || near <= 0 || far <= near {
		return fmt.Errorf("scene: invalid orthographic frustum (left=%g right=%g bottom=%g top=%g near=%g far=%g)", left, right, bottom, top, near, far)
	}
	c.kind = renderer.Orthographic
	c.left, c.right, c.bottom, c.top, c.nearO, c.farO = left, right, bottom, top, near, far
	c.frustumSet = true
	return nil
}

// ValidFrustum implements renderer.CameraTarget.
func (c *Camera) ValidFrustum() bool { return c.frustumSet }

// Follow makes the camera track a target node with the given offset and lerp factor.
// A lerp of 1.0 snaps immediately; lower values give smoother following.
func (c *Camera) Follow(node *Node, offsetX, offsetY, lerp float64) {
	c.followTarget = node
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() { c.followTarget = nil }

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() { c.BoundsEnabled = false }

// Update advances follow, scroll, and bounds clamping. Called from Scene.Update.
func (c *Camera) Update(dt float32) {
	prevX, prevY := c.X, c.Y
	prevZoom, prevRot := c.Zoom, c.Rotation

	if c.followTarget != nil {
		targetX := c.followTarget.worldTransform[4] + c.followOffsetX
		targetY := c.followTarget.worldTransform[5] + c.followOffsetY
		c.X += (targetX - c.X) * c.followLerp
		c.Y += (targetY - c.Y) * c.followLerp
	}

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			c.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			c.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}

	if c.X != prevX || c.Y != prevY || c.Zoom != prevZoom || c.Rotation != prevRot {
		c.dirty = true
	}
}

func (c *Camera) clampToBounds() {
	halfW := c.Viewport.Width / (2 * c.Zoom)
	halfH := c.Viewport.Height / (2 * c.Zoom)

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	if minX > maxX {
		c.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		c.X = math.Max(minX, math.Min(c.X, maxX))
	}
	if minY > maxY {
		c.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		c.Y = math.Max(minY, math.Min(c.Y, maxY))
	}
}

// computeViewMatrix recomputes the cached view matrix if dirty.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) computeViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2

	cos := math.Cos(-c.Rotation)
	sin := math.Sin(-c.Rotation)
	z := c.Zoom

	a := z * cos
	b := -z * sin
	cc := z * sin
	d := z * cos
	tx := cx + z*(-cos*c.X+sin*c.Y)
	ty := cy + z*(-sin*c.X-cos*c.Y)

	c.viewMatrix = [6]float64{a, cc, b, d, tx, ty}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	c.computeViewMatrix()
	return transformPoint(c.viewMatrix, wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.computeViewMatrix()
	return transformPoint(c.invViewMatrix, sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space.
func (c *Camera) VisibleBounds() Rect {
	c.computeViewMatrix()
	inv := c.invViewMatrix

	vx, vy := c.Viewport.X, c.Viewport.Y
	vr := vx + c.Viewport.Width
	vb := vy + c.Viewport.Height

	x0, y0 := transformPoint(inv, vx, vy)
	x1, y1 := transformPoint(inv, vr, vy)
	x2, y2 := transformPoint(inv, vr, vb)
	x3, y3 := transformPoint(inv, vx, vb)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MarkDirty forces a recomputation of the view matrix.
func (c *Camera) MarkDirty() { c.dirty = true }
