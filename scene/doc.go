// Package scene is a minimal reference renderer used to exercise the
// logiclang engine's binding contracts (see package binding and package
// renderer) in tests.
//
// It is deliberately not a general-purpose rendering engine: it owns a flat
// node tree with translation/rotation/scale and a handful of cameras, draws
// visible nodes as white rectangles via [Ebitengine], and nothing else. A
// real host application would replace it with an actual scene-graph renderer
// (Ramses, a custom engine, ...) implementing the same renderer.NodeTarget /
// renderer.CameraTarget / renderer.AppearanceTarget interfaces.
//
// # Quick start
//
//	sc := scene.NewScene()
//	n := sc.NewNode("box") // already parented under sc.Root()
//
// Bind n to a logiclang NodeBinding via its renderer.NodeTarget interface
// (n itself implements it), then drive it with [binding.NodeBinding.Update].
//
// [Ebitengine]: https://ebitengine.org
package scene
