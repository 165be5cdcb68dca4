package script

import (
	"strings"
	"testing"

	"github.com/phanxgames/logiclang/property"
)

func mustScript(t *testing.T, src string) *Script {
	t.Helper()
	s, err := New("test", src, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestExtractInterfaceBuildsDeclaredShape(t *testing.T) {
	src := `
function interface(IN, OUT)
	IN.speed = Type:Float()
	OUT.position = Type:Vec2f()
	OUT.counter = Type:Int32()
end
function run(IN, OUT)
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatalf("ExtractInterface: %v", err)
	}
	speed, ok := s.In().GetChildByName(s.In().Root(), "speed")
	if !ok || s.In().Kind(speed) != property.Float {
		t.Fatalf("expected IN.speed to be a declared Float")
	}
	pos, ok := s.Out().GetChildByName(s.Out().Root(), "position")
	if !ok || s.Out().Kind(pos) != property.Vec2f {
		t.Fatalf("expected OUT.position to be a declared Vec2f")
	}
}

func TestExtractInterfaceRejectsMissingFunc(t *testing.T) {
	s := mustScript(t, "function run(IN, OUT) end")
	if err := s.ExtractInterface(1); err == nil {
		t.Fatal("expected error for missing interface()")
	}
}

func TestRunWritesDeclaredOutput(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.doubled = Type:Int32()
	IN.value = Type:Int32()
end
function run(IN, OUT)
	OUT.doubled = IN.value * 2
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	valID, _ := s.In().GetChildByName(s.In().Root(), "value")
	if err := s.In().SetInt32(valID, 21); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	doubledID, _ := s.Out().GetChildByName(s.Out().Root(), "doubled")
	got, _ := s.Out().GetInt32(doubledID)
	if got != 42 {
		t.Fatalf("OUT.doubled = %d, want 42", got)
	}
	if !s.Out().HasNewValue(doubledID) {
		t.Fatal("expected OUT.doubled to be marked has_new_value")
	}
}

func TestRunRejectsWriteToInput(t *testing.T) {
	src := `
function interface(IN, OUT)
	IN.value = Type:Int32()
end
function run(IN, OUT)
	IN.value = 5
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	err := s.Run()
	if err == nil {
		t.Fatal("expected an error writing to IN from run()")
	}
	if !strings.Contains(err.Error(), ErrWriteToInput.Error()) {
		t.Fatalf("expected ErrWriteToInput, got %v", err)
	}
}

func TestRunCapturesRuntimeError(t *testing.T) {
	src := `
function interface(IN, OUT)
end
function run(IN, OUT)
	error("boom")
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	err := s.Run()
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	rerr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if rerr.Phase != "run" {
		t.Fatalf("Phase = %q, want run", rerr.Phase)
	}
}

func TestNestedStructInterface(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.pos = {}
	OUT.pos.x = Type:Float()
	OUT.pos.y = Type:Float()
end
function run(IN, OUT)
	OUT.pos.x = 1.5
	OUT.pos.y = 2.5
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	pos, ok := s.Out().GetChildByName(s.Out().Root(), "pos")
	if !ok || s.Out().Kind(pos) != property.Struct {
		t.Fatal("expected OUT.pos to be a Struct")
	}
	xID, _ := s.Out().GetChildByName(pos, "x")
	x, _ := s.Out().GetFloat(xID)
	if x != 1.5 {
		t.Fatalf("OUT.pos.x = %v, want 1.5", x)
	}
}

func TestArrayInterface(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.values = Type:Array(3, Type:Int32())
end
function run(IN, OUT)
	OUT.values[1] = 10
	OUT.values[2] = 20
	OUT.values[3] = 30
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	values, _ := s.Out().GetChildByName(s.Out().Root(), "values")
	if s.Out().ChildCount(values) != 3 {
		t.Fatalf("expected 3 array elements, got %d", s.Out().ChildCount(values))
	}
	el, _ := s.Out().GetChildByIndex(values, 1)
	got, _ := s.Out().GetInt32(el)
	if got != 20 {
		t.Fatalf("values[2] = %d, want 20", got)
	}
}

func TestInitRunsBeforeFirstRun(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.ready = Type:Bool()
end
function init(IN, OUT)
	OUT.ready = true
end
function run(IN, OUT)
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	readyID, _ := s.Out().GetChildByName(s.Out().Root(), "ready")
	ready, _ := s.Out().GetBool(readyID)
	if !ready {
		t.Fatal("expected init() to set OUT.ready")
	}
}

func TestPrintIsRoutedToCallback(t *testing.T) {
	var captured []string
	s, err := New("printer", `
function interface(IN, OUT) end
function run(IN, OUT)
	print("hello", "world")
end
`, func(name string, args []string) {
		captured = append(captured, name+":"+strings.Join(args, ","))
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if len(captured) != 1 || captured[0] != "printer:hello,world" {
		t.Fatalf("captured = %v", captured)
	}
}

func TestRunAssignsWholeStructFromHandle(t *testing.T) {
	src := `
function interface(IN, OUT)
	IN.pos = {}
	IN.pos.x = Type:Int32()
	IN.pos.y = Type:Int32()
	OUT.echo = {}
	OUT.echo.x = Type:Int32()
	OUT.echo.y = Type:Int32()
end
function run(IN, OUT)
	OUT.echo = IN.pos
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	posID, _ := s.In().GetChildByName(s.In().Root(), "pos")
	xID, _ := s.In().GetChildByName(posID, "x")
	yID, _ := s.In().GetChildByName(posID, "y")
	if err := s.In().SetInt32(xID, 3); err != nil {
		t.Fatal(err)
	}
	if err := s.In().SetInt32(yID, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	echoID, _ := s.Out().GetChildByName(s.Out().Root(), "echo")
	echoXID, _ := s.Out().GetChildByName(echoID, "x")
	echoYID, _ := s.Out().GetChildByName(echoID, "y")
	gotX, _ := s.Out().GetInt32(echoXID)
	gotY, _ := s.Out().GetInt32(echoYID)
	if gotX != 3 || gotY != 4 {
		t.Fatalf("OUT.echo = {%d, %d}, want {3, 4}", gotX, gotY)
	}
}

func TestRunAssignsStructFromTableLiteral(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.pos = {}
	OUT.pos.x = Type:Int32()
	OUT.pos.y = Type:Int32()
end
function run(IN, OUT)
	OUT.pos = {x = 1, y = 2}
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	posID, _ := s.Out().GetChildByName(s.Out().Root(), "pos")
	xID, _ := s.Out().GetChildByName(posID, "x")
	x, _ := s.Out().GetInt32(xID)
	if x != 1 {
		t.Fatalf("OUT.pos.x = %d, want 1", x)
	}
}

func TestRunRejectsStructLiteralMissingField(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.pos = {}
	OUT.pos.x = Type:Int32()
	OUT.pos.y = Type:Int32()
end
function run(IN, OUT)
	OUT.pos = {x = 1}
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err == nil {
		t.Fatal("expected an error for a struct literal missing a declared field")
	}
}

func TestRunRejectsNonIntegralFloatForInt(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.count = Type:Int32()
end
function run(IN, OUT)
	OUT.count = 2.5
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err == nil {
		t.Fatal("expected an error assigning 2.5 to an Int32 property")
	}
}

func TestRunAllowsIntegralFloatForInt(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.count = Type:Int32()
end
function run(IN, OUT)
	OUT.count = 2.0
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	countID, _ := s.Out().GetChildByName(s.Out().Root(), "count")
	got, _ := s.Out().GetInt32(countID)
	if got != 2 {
		t.Fatalf("OUT.count = %d, want 2", got)
	}
}

func TestArrayInterfaceRejectsOversizedArray(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.values = Type:Array(256, Type:Int32())
end
function run(IN, OUT)
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err == nil {
		t.Fatal("expected an error declaring a 256-element array")
	}
}

func TestArrayInterfaceAcceptsMaxSize(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.values = Type:Array(255, Type:Int32())
end
function run(IN, OUT)
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatalf("ExtractInterface: %v", err)
	}
}

func TestSandboxOnlyExposesDeclaredLibraries(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.hasIo = Type:Bool()
	OUT.hasOs = Type:Bool()
end
function run(IN, OUT)
	OUT.hasIo = io ~= nil
	OUT.hasOs = os ~= nil
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	hasIoID, _ := s.Out().GetChildByName(s.Out().Root(), "hasIo")
	hasOsID, _ := s.Out().GetChildByName(s.Out().Root(), "hasOs")
	hasIo, _ := s.Out().GetBool(hasIoID)
	hasOs, _ := s.Out().GetBool(hasOsID)
	if hasIo || hasOs {
		t.Fatal("expected io and os to be unavailable to a sandboxed script")
	}
}

func TestInitRejectsWriteToUndeclaredGlobal(t *testing.T) {
	src := `
function interface(IN, OUT) end
function init(IN, OUT)
	leaked = 1
end
function run(IN, OUT) end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); err == nil {
		t.Fatal("expected an error writing an undeclared global in init()")
	}
}

func TestInitAllowsWriteThroughGlobalTable(t *testing.T) {
	src := `
function interface(IN, OUT)
	OUT.seen = Type:Bool()
end
function init(IN, OUT)
	GLOBAL.shared = 7
end
function run(IN, OUT)
	OUT.seen = GLOBAL.shared == 7
end
`
	s := mustScript(t, src)
	if err := s.ExtractInterface(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	seenID, _ := s.Out().GetChildByName(s.Out().Root(), "seen")
	seen, _ := s.Out().GetBool(seenID)
	if !seen {
		t.Fatal("expected run() to observe the value init() stashed in GLOBAL")
	}
}
