// objinfo is a CLI utility for inspecting OBJ meshes and MTL material libraries.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/objview/internal/logger"
	"github.com/Faultbox/objview/pkg/objfile"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "materials", "mtl":
		cmdMaterials(args)
	case "ranges":
		cmdRanges(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`objinfo - OBJ/MTL inspection utility

Usage:
  objinfo <command> [options]

Commands:
  info <file.obj> [layout]    Show counts, materials and diagnostics
  materials <file.mtl>        List materials and their colors
  ranges <file.obj>           Show interleaved draw ranges per material

Options:
  -debug                      Log parser diagnostics as they happen

Examples:
  objinfo info data/cube.obj interleaved
  objinfo materials data/pawn.mtl
  objinfo ranges data/pawn.obj`)
}

func initLogger(debug bool) *zap.Logger {
	if !debug {
		return nil
	}
	if err := logger.Init("debug", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	return logger.Named("objfile")
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	debug := fs.Bool("debug", false, "Log diagnostics")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objinfo info <file.obj> [indexed|interleaved]")
		os.Exit(1)
	}

	layout, err := objfile.ParseLayout(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m, err := objfile.Load(fs.Arg(0), objfile.Options{Layout: layout, Logger: initLogger(*debug)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	printInfo(os.Stdout, fs.Arg(0), m)
}

func cmdMaterials(args []string) {
	fs := flag.NewFlagSet("materials", flag.ExitOnError)
	debug := fs.Bool("debug", false, "Log diagnostics")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objinfo materials <file.mtl>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	lib, diags, err := objfile.LoadMaterialsFile(path, objfile.MaterialOptions{Logger: initLogger(*debug)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	printMaterials(os.Stdout, lib)
	printDiagnostics(os.Stdout, diags)
}

func cmdRanges(args []string) {
	fs := flag.NewFlagSet("ranges", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: objinfo ranges <file.obj>")
		os.Exit(1)
	}

	m, err := objfile.Load(fs.Arg(0), objfile.Options{Layout: objfile.LayoutInterleaved})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printRanges(os.Stdout, m)
}

func printInfo(w io.Writer, name string, m *objfile.Mesh) {
	s := m.Stats
	fmt.Fprintf(w, "Mesh:       %s\n", name)
	fmt.Fprintf(w, "Layout:     %s\n", m.Layout)
	fmt.Fprintf(w, "Positions:  %d\n", s.Positions)
	fmt.Fprintf(w, "Normals:    %d\n", s.Normals)
	fmt.Fprintf(w, "TexCoords:  %d\n", s.TexCoords)
	fmt.Fprintf(w, "Faces:      %d (%d skipped)\n", s.Faces, s.SkippedFaces)
	fmt.Fprintf(w, "Triangles:  %d\n", s.Triangles)
	fmt.Fprintf(w, "Materials:  %d defined, %d used\n", m.Library.Len(), len(m.Materials))

	if lo, hi, ok := m.Bounds(); ok {
		fmt.Fprintf(w, "Bounds:     (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
			lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	}

	switch m.Layout {
	case objfile.LayoutIndexed:
		fmt.Fprintf(w, "Indices:    %d\n", len(m.Indexed.Indices))
	case objfile.LayoutInterleaved:
		fmt.Fprintf(w, "Vertices:   %d\n", m.Interleaved.VertexCount())
	}

	printDiagnostics(w, m.Diagnostics)
}

func printMaterials(w io.Writer, lib *objfile.Library) {
	fmt.Fprintf(w, "%d materials\n", lib.Len())
	for _, name := range lib.Names() {
		mat, _ := lib.Get(name)
		fmt.Fprintf(w, "  %-20s Ka %s  Kd %s  Ks %s  Ns %.1f  d %.2f\n",
			name, color(mat.Ambient), color(mat.Diffuse), color(mat.Specular), mat.Shininess, mat.Dissolve)
	}
}

func printRanges(w io.Writer, m *objfile.Mesh) {
	fmt.Fprintf(w, "%-20s %8s %8s\n", "MATERIAL", "OFFSET", "COUNT")
	for _, r := range m.Interleaved.Ranges {
		name := r.Material
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(w, "%-20s %8d %8d\n", name, r.Offset, r.Count)
	}
	fmt.Fprintf(w, "\n(%d vertices in %d ranges)\n", m.Interleaved.VertexCount(), len(m.Interleaved.Ranges))
}

func printDiagnostics(w io.Writer, diags []objfile.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d diagnostics:\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "  %s\n", d)
	}
}

func color(c [3]float32) string {
	return fmt.Sprintf("(%.2f %.2f %.2f)", c[0], c[1], c[2])
}
