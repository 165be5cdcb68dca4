package script

// SavingMode names the script persistence modes (§4.7/§6) carried from
// original_source's ELuaSavingMode.h. Nothing in this module reads it:
// package serialize saves every script as its Lua source text and
// recompiles it on load, whichever mode is named.
type SavingMode uint8

const (
	// SourceCodeOnly names saving the Lua source text only, recompiling on
	// load; this is what package serialize does for every script.
	SourceCodeOnly SavingMode = iota
	// ByteCodeOnly names saving the compiled chunk only. Package serialize
	// has no bytecode path.
	ByteCodeOnly
	// SourceAndByteCode names saving both the source text and the compiled
	// chunk. Package serialize has no bytecode path.
	SourceAndByteCode
)

func (m SavingMode) String() string {
	switch m {
	case SourceCodeOnly:
		return "SourceCodeOnly"
	case ByteCodeOnly:
		return "ByteCodeOnly"
	case SourceAndByteCode:
		return "SourceAndByteCode"
	default:
		return "SavingMode(?)"
	}
}
