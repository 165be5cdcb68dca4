// Command logicctl is a small operator tool around package logiclang: run a
// Lua script file against a scripted number of update ticks, or inspect a
// file saved by package serialize without needing a renderer to load it
// against. Command wiring follows cockroachdb/walkabout's gen/cli.go
// (rootCmd + cobra.Command.RunE per subcommand); the engine/serialize
// packages it drives are this module's own.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/logiclang"
	"github.com/phanxgames/logiclang/property"
	"github.com/phanxgames/logiclang/serialize"
)

// buildID is set by a linker flag at release time; "dev" otherwise.
var buildID = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "logicctl",
		Short: "Run and inspect logiclang engines from the command line.",
	}
	root.AddCommand(newRunCmd(), newInspectCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			major, minor := logiclang.EngineVersion/1000, logiclang.EngineVersion%1000
			fmt.Printf("logicctl %s; engine v%d.%d\n", buildID, major, minor)
		},
	}
}

func newRunCmd() *cobra.Command {
	var ticks int
	var interval time.Duration
	var name string

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Load a Lua script as a single script node and run it for a number of ticks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}

			e := logiclang.New(func(scriptName string, printArgs []string) {
				fmt.Printf("[%s] %v\n", scriptName, printArgs)
			})

			h, err := e.CreateScript(name, string(source))
			if err != nil {
				return fmt.Errorf("loading script: %w", err)
			}

			for i := 0; i < ticks; i++ {
				if err := e.Update(interval); err != nil {
					return fmt.Errorf("update %d: %w", i, err)
				}
				for _, ee := range e.Errors() {
					fmt.Fprintf(os.Stderr, "tick %d: %v\n", i, ee)
				}
			}

			fmt.Println("outputs:")
			dumpTree(h.Out(), h.Out().Root(), "")
			return nil
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 1, "number of update ticks to run")
	cmd.Flags().DurationVar(&interval, "interval", 16*time.Millisecond, "elapsed time passed to Update per tick")
	cmd.Flags().StringVar(&name, "name", "main", "name given to the loaded script node")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print a summary of a file saved by package serialize",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			sum, err := serialize.Peek(f)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}

			fmt.Printf("format version:   %d\n", sum.Header.FormatVersion)
			fmt.Printf("engine version:   %d\n", sum.Header.EngineVersion)
			fmt.Printf("renderer version: %d\n", sum.Header.RendererVersion)
			fmt.Printf("modules:            %d\n", sum.Modules)
			fmt.Printf("scripts:            %d\n", sum.Scripts)
			fmt.Printf("node bindings:      %d\n", sum.NodeBindings)
			fmt.Printf("appearance bindings: %d\n", sum.AppearanceBindings)
			fmt.Printf("camera bindings:    %d\n", sum.CameraBindings)
			fmt.Printf("timer nodes:        %d\n", sum.TimerNodes)
			fmt.Printf("animation nodes:    %d\n", sum.AnimationNodes)
			fmt.Printf("links:              %d\n", sum.Links)
			fmt.Printf("next node id:       %d\n", sum.NextNodeID)
			return nil
		},
	}
}

// dumpTree prints every leaf under id as "<path> = <value>", recursing into
// Struct/Array children the same way package serialize's leaf walk does.
func dumpTree(t *property.Tree, id property.ID, prefix string) {
	switch t.Kind(id) {
	case property.Struct:
		for _, c := range t.Children(id) {
			child := t.Name(c)
			if prefix != "" {
				child = prefix + "." + t.Name(c)
			}
			dumpTree(t, c, child)
		}
	case property.Array:
		for i, c := range t.Children(id) {
			dumpTree(t, c, fmt.Sprintf("%s[%d]", prefix, i))
		}
	default:
		fmt.Printf("  %s = %v\n", prefix, formatRaw(t.GetRawValue(id)))
	}
}

func formatRaw(v property.RawValue) any {
	switch v.Kind {
	case property.Int32, property.Int64:
		return v.I64
	case property.Float:
		return v.F64
	case property.Bool:
		return v.B
	case property.String:
		return v.Str
	case property.Vec2i, property.Vec3i, property.Vec4i:
		return v.VI
	case property.Vec2f, property.Vec3f, property.Vec4f:
		return v.VF
	default:
		return nil
	}
}
