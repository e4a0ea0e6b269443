package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tetratelabs/pwasm/internal/wasm"
	wasmbin "github.com/tetratelabs/pwasm/internal/wasm/binary"
)

func newDumpCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <path to wasm file>",
		Short: "Decode a WebAssembly binary and print its sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			bin, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			m, err := wasmbin.DecodeModule(bin, wasm.All)
			if err != nil {
				log.WithError(err).Error("decode failed")
				return err
			}

			dumpModule(m)
			return nil
		},
	}
}

var (
	sectionTitle = color.New(color.FgCyan, color.Bold).SprintFunc()
	opcodeName   = color.New(color.FgYellow).SprintFunc()
)

func dumpModule(m *wasm.Module) {
	fmt.Printf("%s %x\n", sectionTitle("module id"), m.ID)

	fmt.Printf("%s (%d)\n", sectionTitle("types"), len(m.TypeSection))
	for i, ft := range m.TypeSection {
		fmt.Printf("  [%d] %s -> %s\n", i, dumpValueTypes(m.Bytes(ft.Params)), dumpValueTypes(m.Bytes(ft.Results)))
	}

	fmt.Printf("%s (%d)\n", sectionTitle("imports"), len(m.ImportSection))
	for _, imp := range m.ImportSection {
		fmt.Printf("  %s.%s (%s)\n", m.Bytes(imp.ModuleName), m.Bytes(imp.FieldName), dumpExternKind(imp.Kind))
	}

	fmt.Printf("%s (%d)\n", sectionTitle("functions"), len(m.FunctionSection))
	fmt.Printf("%s (%d)\n", sectionTitle("tables"), len(m.TableSection))
	fmt.Printf("%s (%d)\n", sectionTitle("memories"), len(m.MemorySection))
	fmt.Printf("%s (%d)\n", sectionTitle("globals"), len(m.GlobalSection))

	fmt.Printf("%s (%d)\n", sectionTitle("exports"), len(m.ExportSection))
	for _, exp := range m.ExportSection {
		fmt.Printf("  %s -> %s[%d]\n", m.Bytes(exp.Name), dumpExternKind(exp.Kind), exp.Index)
	}

	fmt.Printf("%s (%d)\n", sectionTitle("code"), len(m.CodeSection))
	for i, fn := range m.CodeSection {
		fmt.Printf("  func[%d] type=%d frame_size=%d\n", i, fn.TypeIndex, fn.FrameSize)
		for _, in := range m.Instructions(fn.Body) {
			info, ok := wasm.Lookup(in.Op)
			name := fmt.Sprintf("0x%x", in.Op)
			if ok {
				name = info.Name
			}
			fmt.Printf("    %s\n", opcodeName(name))
		}
	}
}

func dumpValueTypes(vts []byte) string {
	if len(vts) == 0 {
		return "()"
	}
	s := "("
	for i, vt := range vts {
		if i > 0 {
			s += ", "
		}
		s += valueTypeName(wasm.ValueType(vt))
	}
	return s + ")"
}

func valueTypeName(vt wasm.ValueType) string {
	switch vt {
	case wasm.ValueTypeI32:
		return "i32"
	case wasm.ValueTypeI64:
		return "i64"
	case wasm.ValueTypeF32:
		return "f32"
	case wasm.ValueTypeF64:
		return "f64"
	case wasm.ValueTypeV128:
		return "v128"
	default:
		return fmt.Sprintf("0x%x", byte(vt))
	}
}

func dumpExternKind(k wasm.ExternKind) string {
	switch k {
	case wasm.ExternKindFunc:
		return "func"
	case wasm.ExternKindTable:
		return "table"
	case wasm.ExternKindMem:
		return "memory"
	case wasm.ExternKindGlobal:
		return "global"
	default:
		return "?"
	}
}
