package scene

import "github.com/phanxgames/logiclang/renderer"

// nodeIDCounter is a plain counter (no atomic — scene is single-threaded,
// same assumption the engine itself makes for its own id counters).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the scene graph element a NodeBinding drives. It keeps the
// teacher's flat-struct, dirty-flag design (one struct for every node,
// transform recomputed lazily) but trims away everything downstream of
// "it renders a 2D sprite" — atlases, meshes, particles, text layout,
// filters, masks, hit testing, pointer callbacks — none of which a logic
// binding ever touches. What remains is exactly the transform/visibility
// surface renderer.NodeTarget requires, extended to three axes for
// rotation and scale so it can stand in for a 3D scene node.
type Node struct {
	ID   renderer.ObjectID
	Name string

	Parent   *Node
	children []*Node

	// Local transform, relative to Parent.
	X, Y, Z                   float64
	RotationX, RotationY, RotationZ float64 // radians
	RotationConv              renderer.RotationType
	ScaleX, ScaleY, ScaleZ    float64

	Visible bool

	worldTransform [6]float64 // cached 2D projection of X/Y/RotationZ/ScaleX/ScaleY, for WorldToLocal/LocalToWorld
	transformDirty bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = renderer.ObjectID(nextNodeID())
	n.ScaleX, n.ScaleY, n.ScaleZ = 1, 1, 1
	n.Visible = true
	n.transformDirty = true
}

// NewNode creates an empty scene node with identity transform.
func NewNode(name string) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	return n
}

// ObjectID implements renderer.NodeTarget.
func (n *Node) ObjectID() renderer.ObjectID { return n.ID }

// SetVisibility implements renderer.NodeTarget.
func (n *Node) SetVisibility(visible bool) error {
	n.Visible = visible
	return nil
}

// SetRotation implements renderer.NodeTarget. Quaternion inputs are accepted
// as (x, y, z) Euler components of the equivalent rotation; this reference
// renderer never needs the raw quaternion, only the convention tag to
// report back through a CameraTarget-style query if one were added.
func (n *Node) SetRotation(x, y, z float64, conv renderer.RotationType) error {
	n.RotationX, n.RotationY, n.RotationZ = x, y, z
	n.RotationConv = conv
	n.transformDirty = true
	return nil
}

// SetTranslation implements renderer.NodeTarget.
func (n *Node) SetTranslation(x, y, z float64) error {
	n.X, n.Y, n.Z = x, y, z
	n.transformDirty = true
	return nil
}

// SetScaling implements renderer.NodeTarget.
func (n *Node) SetScaling(x, y, z float64) error {
	n.ScaleX, n.ScaleY, n.ScaleZ = x, y, z
	n.transformDirty = true
	return nil
}

// --- Tree manipulation (unchanged teacher idiom: panics on programmer error,
// cycle check via ancestor walk, dirty propagation on reparent) ---

// AddChild appends child to this node's children. If child already has a
// parent, it is removed from that parent first. Panics if child is nil or
// child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("scene: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("scene: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
}

// RemoveChild detaches child from this node. Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("scene: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent. No-op if it has none.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty marks a node as needing transform recomputation. Children
// inherit the recomputation via parentRecomputed during updateWorldTransform,
// so only the subtree root needs the flag set (upward-only dirty model).
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
}
