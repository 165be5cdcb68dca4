package scene

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/logiclang/renderer"
)

// boxSize is the placeholder footprint drawn for every node. The reference
// renderer has no asset pipeline (atlases, meshes, text) — engine bindings
// only need something they can push a transform into and see move, so every
// node draws as a single white square.
const boxSize = 16

// Scene is the top-level object a program built around this reference
// renderer creates: it owns the node tree and the camera list, and drives
// the ebiten game loop the way the teacher's Scene did, trimmed down to the
// transform/visibility surface renderer.NodeTarget/CameraTarget need.
type Scene struct {
	root        *Node
	cameras     []*Camera
	appearances []*Appearance

	// ClearColor is the background color filled each frame.
	ClearColor Color

	transformsReady bool
	updateFunc      func() error
}

// NewScene creates a new scene with a pre-created root node.
func NewScene() *Scene {
	return &Scene{root: NewNode("root")}
}

// Root returns the scene's root node. It cannot be removed; it always exists
// for the lifetime of the Scene.
func (s *Scene) Root() *Node { return s.root }

// NewNode creates a node and adds it as a child of the scene's root,
// returning it ready for a NodeBinding to drive.
func (s *Scene) NewNode(name string) *Node {
	n := NewNode(name)
	s.root.AddChild(n)
	return n
}

// NewCamera creates a camera with the given viewport and adds it to the scene.
func (s *Scene) NewCamera(viewport Rect) *Camera {
	cam := NewCamera(viewport)
	s.cameras = append(s.cameras, cam)
	return cam
}

// RemoveCamera removes a camera from the scene.
func (s *Scene) RemoveCamera(cam *Camera) {
	for i, c := range s.cameras {
		if c == cam {
			s.cameras = append(s.cameras[:i], s.cameras[i+1:]...)
			return
		}
	}
}

// Cameras returns the scene's camera list. The returned slice MUST NOT be mutated.
func (s *Scene) Cameras() []*Camera { return s.cameras }

// NewAppearance creates an appearance exposing the given uniforms and tracks
// it in the scene so AppearanceByObjectID can find it again, e.g. when
// reattaching an AppearanceBinding after load.
func (s *Scene) NewAppearance(uniforms []renderer.UniformDescriptor) *Appearance {
	a := NewAppearance(uniforms)
	s.appearances = append(s.appearances, a)
	return a
}

// Appearances returns the scene's tracked appearance list. The returned
// slice MUST NOT be mutated.
func (s *Scene) Appearances() []*Appearance { return s.appearances }

// FindByObjectID walks the tree looking for the node with the given id,
// the lookup a NodeBinding performs when attaching to an existing scene.
func (s *Scene) FindByObjectID(id renderer.ObjectID) (*Node, bool) {
	return findByObjectID(s.root, id)
}

// AppearanceByObjectID finds a tracked appearance by id, the lookup an
// AppearanceBinding performs when reattaching to an existing scene.
func (s *Scene) AppearanceByObjectID(id renderer.ObjectID) (*Appearance, bool) {
	for _, a := range s.appearances {
		if a.ObjectID() == id {
			return a, true
		}
	}
	return nil, false
}

// CameraByObjectID finds a scene camera by id, the lookup a CameraBinding
// performs when reattaching to an existing scene.
func (s *Scene) CameraByObjectID(id renderer.ObjectID) (*Camera, bool) {
	for _, c := range s.cameras {
		if c.ObjectID() == id {
			return c, true
		}
	}
	return nil, false
}

// NodeTarget implements serialize.Resolver.
func (s *Scene) NodeTarget(id renderer.ObjectID) (renderer.NodeTarget, bool) {
	return s.FindByObjectID(id)
}

// AppearanceTarget implements serialize.Resolver.
func (s *Scene) AppearanceTarget(id renderer.ObjectID) (renderer.AppearanceTarget, bool) {
	return s.AppearanceByObjectID(id)
}

// CameraTarget implements serialize.Resolver.
func (s *Scene) CameraTarget(id renderer.ObjectID) (renderer.CameraTarget, bool) {
	return s.CameraByObjectID(id)
}

func findByObjectID(n *Node, id renderer.ObjectID) (*Node, bool) {
	if n.ID == id {
		return n, true
	}
	for _, c := range n.children {
		if found, ok := findByObjectID(c, id); ok {
			return found, true
		}
	}
	return nil, false
}

// SetUpdateFunc registers a callback invoked once per tick before the
// scene's own Update, for game-specific logic driving the engine's Update.
func (s *Scene) SetUpdateFunc(fn func() error) { s.updateFunc = fn }

// Update refreshes world transforms and advances camera follow/scroll state.
// dt is the elapsed time in seconds since the previous call.
func (s *Scene) Update(dt float32) error {
	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}
	updateWorldTransform(s.root, identityTransform, false)
	s.transformsReady = true
	for _, cam := range s.cameras {
		cam.Update(dt)
	}
	return nil
}

// Draw traverses the scene tree and draws a white box per visible node.
func (s *Scene) Draw(screen *ebiten.Image) {
	if !s.transformsReady {
		updateWorldTransform(s.root, identityTransform, false)
		s.transformsReady = true
	}
	if len(s.cameras) == 0 {
		s.drawWithView(screen, identityTransform)
		return
	}
	for _, cam := range s.cameras {
		view := cam.computeViewMatrix()
		s.drawWithView(screen, view)
	}
}

func (s *Scene) drawWithView(screen *ebiten.Image, view [6]float64) {
	for _, child := range s.root.children {
		drawNode(screen, child, view)
	}
}

func drawNode(screen *ebiten.Image, n *Node, view [6]float64) {
	if !n.Visible {
		return
	}
	m := multiplyAffine(view, n.worldTransform)
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(boxSize, boxSize)
	op.GeoM.SetElement(0, 0, m[0]*boxSize)
	op.GeoM.SetElement(1, 0, m[1]*boxSize)
	op.GeoM.SetElement(0, 1, m[2]*boxSize)
	op.GeoM.SetElement(1, 1, m[3]*boxSize)
	op.GeoM.SetElement(0, 2, m[4])
	op.GeoM.SetElement(1, 2, m[5])
	screen.DrawImage(whitePixel, &op)
	for _, child := range n.children {
		drawNode(screen, child, view)
	}
}

// RunConfig holds optional configuration for Run.
type RunConfig struct {
	Title         string
	Width, Height int
}

// Run is a convenience entry point that creates an Ebitengine game loop
// around the given Scene.
func Run(scene *Scene, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w == 0 {
		w = 640
	}
	if h == 0 {
		h = 480
	}
	ebiten.SetWindowSize(w, h)
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	return ebiten.RunGame(&gameShell{scene: scene, w: w, h: h})
}

// gameShell implements ebiten.Game by delegating to a Scene.
type gameShell struct {
	scene *Scene
	w, h  int
}

func (g *gameShell) Update() error {
	return g.scene.Update(1.0 / float32(ebiten.TPS()))
}

func (g *gameShell) Draw(screen *ebiten.Image) {
	if g.scene.ClearColor.A > 0 {
		screen.Fill(g.scene.ClearColor.toNRGBA())
	}
	g.scene.Draw(screen)
}

func (g *gameShell) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w, g.h
}
