package objfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const cubeOBJ = `# unit cube
v -1 -1  1
v  1 -1  1
v  1  1  1
v -1  1  1
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
f 1 2 3 4
f 6 5 8 7
f 5 1 4 8
f 2 6 7 3
f 4 3 7 8
f 5 6 2 1
`

const pawnMTL = `newmtl White
Ka 0.2 0.2 0.2
Kd 1 1 1
newmtl Red
Kd 1 0 0
Ns 50
`

const pawnOBJ = `mtllib pawn.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
usemtl Red
f 1//1 2//1 3//1
usemtl White
f 1/1/1 3/2/1 4/3/1
usemtl Red
f 2 3 4
`

func parseString(t *testing.T, src string, opts Options) *Mesh {
	t.Helper()
	m, err := Parse(strings.NewReader(src), opts)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return m
}

func TestParse_QuadTriangulation(t *testing.T) {
	m := parseString(t, "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n", Options{})

	want := []uint32{0, 1, 2, 0, 2, 3}
	if !reflect.DeepEqual(m.Indexed.Indices, want) {
		t.Errorf("Indices = %v, want %v", m.Indexed.Indices, want)
	}
	if m.Stats.Triangles != 2 {
		t.Errorf("Triangles = %d, want 2", m.Stats.Triangles)
	}
}

func TestParse_TriangleCount(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"cube quads", cubeOBJ, 12},
		{"triangle", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", 1},
		{"pentagon", "v 0 0 0\nv 1 0 0\nv 2 1 0\nv 1 2 0\nv 0 1 0\nf 1 2 3 4 5\n", 3},
		{"mixed", "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3\nf 1 2 3 4\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parseString(t, tt.src, Options{})
			if len(m.Triangles) != tt.want {
				t.Errorf("got %d triangles, want %d", len(m.Triangles), tt.want)
			}
			if len(m.Indexed.Indices) != tt.want*3 {
				t.Errorf("got %d indices, want %d", len(m.Indexed.Indices), tt.want*3)
			}
			for i, idx := range m.Indexed.Indices {
				if int(idx) >= len(m.Positions) {
					t.Errorf("index %d = %d out of range", i, idx)
				}
			}
		})
	}
}

func TestParse_FaceVertexForms(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvn 0 0 1\nvn 0 1 0\nf 1/1/2 2//1 3/1\n"
	m := parseString(t, src, Options{})

	if len(m.Triangles) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(m.Triangles))
	}
	c := m.Triangles[0].Corners
	want := [3]FaceVertexRef{
		{Position: 0, Texture: 0, Normal: 1},
		{Position: 1, Texture: -1, Normal: 0},
		{Position: 2, Texture: 0, Normal: -1},
	}
	if c != want {
		t.Errorf("corners = %+v, want %+v", c, want)
	}
	if m.Stats.TexCoords != 1 {
		t.Errorf("TexCoords = %d, want 1", m.Stats.TexCoords)
	}
}

func TestParse_SkippedFaces(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantKind DiagnosticKind
	}{
		{"degenerate two vertices", "v 0 0 0\nv 1 0 0\nf 1 2\n", DegenerateFace},
		{"degenerate empty", "f\n", DegenerateFace},
		{"forward reference", "v 0 0 0\nv 1 0 0\nf 1 2 3\nv 0 1 0\n", OutOfRangeIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", OutOfRangeIndex},
		{"negative index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -1 -2 -3\n", OutOfRangeIndex},
		{"normal out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", OutOfRangeIndex},
		{"malformed index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 two 3\n", MalformedNumericField},
		{"too many slashes", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1/1/1 2 3\n", MalformedNumericField},
		{"zero texture index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/0 2/1 3/1\n", MalformedNumericField},
		{"negative texture index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/-1 2/1 3/1\n", MalformedNumericField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parseString(t, tt.src, Options{})
			if len(m.Triangles) != 0 {
				t.Errorf("expected face to be skipped, got %d triangles", len(m.Triangles))
			}
			if m.Stats.SkippedFaces != 1 {
				t.Errorf("SkippedFaces = %d, want 1", m.Stats.SkippedFaces)
			}
			if len(m.Diagnostics) != 1 || m.Diagnostics[0].Kind != tt.wantKind {
				t.Errorf("diagnostics = %v, want one %v", m.Diagnostics, tt.wantKind)
			}
		})
	}
}

func TestParse_SkippedFaceContinues(t *testing.T) {
	m := parseString(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2\nf 1 2 3\n", Options{})
	if len(m.Triangles) != 1 {
		t.Errorf("expected parsing to continue after a bad face, got %d triangles", len(m.Triangles))
	}
}

func TestParse_MalformedVertexKeepsAlignment(t *testing.T) {
	m := parseString(t, "v 1 abc 3\nv 4 5\nv 7 8 9\nf 1 2 3\n", Options{})

	if len(m.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(m.Positions))
	}
	if m.Positions[0] != (mgl32.Vec3{1, 0, 3}) {
		t.Errorf("position 0 = %v, want {1 0 3}", m.Positions[0])
	}
	if m.Positions[1] != (mgl32.Vec3{4, 5, 0}) {
		t.Errorf("position 1 = %v, want {4 5 0}", m.Positions[1])
	}
	if len(m.Triangles) != 1 {
		t.Errorf("expected face to survive, got %d triangles", len(m.Triangles))
	}
	if len(m.Diagnostics) != 2 {
		t.Errorf("expected 2 diagnostics, got %v", m.Diagnostics)
	}
}

func TestParse_Materials(t *testing.T) {
	fsys := fstest.MapFS{"pawn.mtl": {Data: []byte(pawnMTL)}}
	m := parseString(t, pawnOBJ, Options{FS: fsys, Layout: LayoutInterleaved})

	if len(m.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", m.Diagnostics)
	}
	if m.Library.Len() != 2 {
		t.Errorf("library has %d materials, want 2", m.Library.Len())
	}
	if got := strings.Join(m.Materials, ","); got != "Red,White" {
		t.Errorf("Materials = %s, want Red,White", got)
	}

	want := []DrawRange{
		{Material: "Red", Offset: 0, Count: 6},
		{Material: "White", Offset: 6, Count: 3},
	}
	if !reflect.DeepEqual(m.Interleaved.Ranges, want) {
		t.Errorf("Ranges = %+v, want %+v", m.Interleaved.Ranges, want)
	}
}

func TestParse_UnknownMaterialKeepsPrevious(t *testing.T) {
	fsys := fstest.MapFS{"pawn.mtl": {Data: []byte(pawnMTL)}}
	src := "mtllib pawn.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl Red\nusemtl Missing\nf 1 2 3\n"
	m := parseString(t, src, Options{FS: fsys})

	if len(m.Triangles) != 1 {
		t.Fatalf("expected parsing to continue, got %d triangles", len(m.Triangles))
	}
	if m.Triangles[0].Material != "Red" {
		t.Errorf("material = %q, want Red", m.Triangles[0].Material)
	}
	for i, c := range m.Indexed.Colors {
		if c != (mgl32.Vec3{1, 0, 0}) {
			t.Errorf("color %d = %v, want red", i, c)
		}
	}
	if len(m.Diagnostics) != 1 || m.Diagnostics[0].Kind != UnknownMaterialReference {
		t.Errorf("diagnostics = %v, want one UnknownMaterialReference", m.Diagnostics)
	}
}

func TestParse_UnknownMaterialUsesDefaultColor(t *testing.T) {
	m := parseString(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl Nope\nf 1 2 3\n", Options{})
	for i, c := range m.Indexed.Colors {
		if c != FallbackColor {
			t.Errorf("color %d = %v, want fallback %v", i, c, FallbackColor)
		}
	}

	custom := mgl32.Vec3{0, 0, 0}
	m = parseString(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", Options{DefaultColor: &custom})
	if m.Indexed.Colors[0] != custom {
		t.Errorf("color = %v, want custom default %v", m.Indexed.Colors[0], custom)
	}
}

func TestParse_MissingLibraryDegrades(t *testing.T) {
	m := parseString(t, pawnOBJ, Options{FS: fstest.MapFS{}})

	if len(m.Triangles) != 3 {
		t.Errorf("expected all faces to load, got %d triangles", len(m.Triangles))
	}
	if m.Library.Len() != 0 {
		t.Errorf("expected empty library, got %v", m.Library.Names())
	}

	kinds := map[DiagnosticKind]int{}
	for _, d := range m.Diagnostics {
		kinds[d.Kind]++
	}
	if kinds[FileNotFound] != 1 {
		t.Errorf("expected one FileNotFound, got %v", m.Diagnostics)
	}
	if kinds[UnknownMaterialReference] != 3 {
		t.Errorf("expected three UnknownMaterialReference, got %v", m.Diagnostics)
	}
}

func TestParse_ExternalLibraryNotMutated(t *testing.T) {
	base := NewLibrary()
	red := NewMaterial("Red")
	red.Diffuse = mgl32.Vec3{1, 0, 0}
	base.Add(red)

	fsys := fstest.MapFS{"extra.mtl": {Data: []byte("newmtl Blue\nKd 0 0 1\n")}}
	src := "mtllib extra.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl Red\nf 1 2 3\nusemtl Blue\nf 1 2 3\n"
	m := parseString(t, src, Options{FS: fsys, Library: base})

	if base.Len() != 1 {
		t.Errorf("external library was modified: %v", base.Names())
	}
	if m.Library.Len() != 2 {
		t.Errorf("mesh library = %v, want Red and Blue", m.Library.Names())
	}
	if got := strings.Join(m.Materials, ","); got != "Red,Blue" {
		t.Errorf("Materials = %s, want Red,Blue", got)
	}
}

func TestParse_ZeroFaces(t *testing.T) {
	for _, layout := range []Layout{LayoutIndexed, LayoutInterleaved} {
		t.Run(layout.String(), func(t *testing.T) {
			m := parseString(t, "v 0 0 0\nv 1 0 0\n", Options{Layout: layout})
			if len(m.Diagnostics) != 0 {
				t.Errorf("unexpected diagnostics: %v", m.Diagnostics)
			}
			switch layout {
			case LayoutIndexed:
				if len(m.Indexed.Indices) != 0 || len(m.Indexed.Colors) != 0 {
					t.Errorf("expected empty index stream, got %v", m.Indexed.Indices)
				}
			case LayoutInterleaved:
				if len(m.Interleaved.Vertices) != 0 || len(m.Interleaved.Ranges) != 0 {
					t.Errorf("expected empty vertex stream, got %d floats", len(m.Interleaved.Vertices))
				}
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	fsys := fstest.MapFS{"pawn.mtl": {Data: []byte(pawnMTL)}}
	for _, layout := range []Layout{LayoutIndexed, LayoutInterleaved} {
		t.Run(layout.String(), func(t *testing.T) {
			a := parseString(t, pawnOBJ, Options{FS: fsys, Layout: layout})
			b := parseString(t, pawnOBJ, Options{FS: fsys, Layout: layout})
			if !reflect.DeepEqual(a.Indexed, b.Indexed) {
				t.Error("indexed output differs between runs")
			}
			if !reflect.DeepEqual(a.Interleaved, b.Interleaved) {
				t.Error("interleaved output differs between runs")
			}
		})
	}
}

func TestParse_LogsDiagnostics(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	parseString(t, "v 0 0 0\nf 1 1\n", Options{Name: "bad.obj", Logger: zap.New(core)})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["file"] != "bad.obj" {
		t.Errorf("file field = %v, want bad.obj", fields["file"])
	}
	if fields["kind"] != "DegenerateFace" {
		t.Errorf("kind field = %v, want DegenerateFace", fields["kind"])
	}
}

func TestLoad_FromDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pawn.obj"), []byte(pawnOBJ), 0644); err != nil {
		t.Fatalf("failed to write obj: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pawn.mtl"), []byte(pawnMTL), 0644); err != nil {
		t.Fatalf("failed to write mtl: %v", err)
	}

	m, err := Load(filepath.Join(dir, "pawn.obj"), Options{Layout: LayoutInterleaved})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Library.Len() != 2 {
		t.Errorf("expected mtllib to resolve next to the mesh, got %v", m.Diagnostics)
	}
	if m.Interleaved.VertexCount() != 9 {
		t.Errorf("VertexCount = %d, want 9", m.Interleaved.VertexCount())
	}
}

func TestLoad_LibraryInParentDir(t *testing.T) {
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	if err := os.Mkdir(models, 0755); err != nil {
		t.Fatalf("failed to create models dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shared.mtl"), []byte(pawnMTL), 0644); err != nil {
		t.Fatalf("failed to write mtl: %v", err)
	}
	obj := strings.Replace(pawnOBJ, "mtllib pawn.mtl", "mtllib ../shared.mtl", 1)
	if err := os.WriteFile(filepath.Join(models, "pawn.obj"), []byte(obj), 0644); err != nil {
		t.Fatalf("failed to write obj: %v", err)
	}

	m, err := Load(filepath.Join(models, "pawn.obj"), Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Library.Len() != 2 {
		t.Errorf("library has %d materials, want 2", m.Library.Len())
	}
	if len(m.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", m.Diagnostics)
	}
	if !reflect.DeepEqual(m.Materials, []string{"Red", "White"}) {
		t.Errorf("Materials = %v, want [Red White]", m.Materials)
	}
}

func TestLoad_MissingIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	_, err := Load(filepath.Join(t.TempDir(), "nope.obj"), Options{Logger: zap.New(core)})
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if logs.FilterMessage("failed to open mesh").Len() != 1 {
		t.Errorf("expected one open failure log, got %v", logs.All())
	}
}

func TestParse_LineTooLong(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n# " + strings.Repeat("x", maxLineSize+1) + "\nf 1 2 3\n"

	m, err := Parse(strings.NewReader(src), Options{})
	if err == nil {
		t.Fatal("expected a read error for an oversized line")
	}
	if strings.HasPrefix(err.Error(), "reading :") {
		t.Errorf("error mentions an empty name: %v", err)
	}
	if m == nil {
		t.Fatal("expected the partial mesh alongside the error")
	}
	if len(m.Triangles) != 1 {
		t.Errorf("triangles = %d, want the 1 parsed before the long line", len(m.Triangles))
	}

	_, err = Parse(strings.NewReader(src), Options{Name: "big.obj"})
	if err == nil || !strings.Contains(err.Error(), "big.obj") {
		t.Errorf("error = %v, want it to name big.obj", err)
	}
}

func TestParse_ByteOrderMark(t *testing.T) {
	m := parseString(t, "\ufeffv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", Options{})
	if len(m.Positions) != 3 || len(m.Triangles) != 1 {
		t.Errorf("positions = %d, triangles = %d, want 3 and 1", len(m.Positions), len(m.Triangles))
	}
	if len(m.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", m.Diagnostics)
	}

	fsys := fstest.MapFS{"a.mtl": {Data: []byte("\ufeffnewmtl Red\nKd 1 0 0\n")}}
	m = parseString(t, "\ufeffmtllib a.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl Red\nf 1 2 3\n", Options{FS: fsys})
	if m.Library.Len() != 1 {
		t.Errorf("library has %d materials, want 1", m.Library.Len())
	}
	if got := m.Triangles[0].Color; got != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("color = %v, want red", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "nope.obj"), Options{})
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
	if m != nil {
		t.Error("expected nil mesh on open failure")
	}
}

func TestMesh_Bounds(t *testing.T) {
	m := parseString(t, cubeOBJ, Options{})
	lo, hi, ok := m.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if lo != (mgl32.Vec3{-1, -1, -1}) || hi != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("bounds = %v..%v, want -1..1", lo, hi)
	}

	empty := &Mesh{}
	if _, _, ok := empty.Bounds(); ok {
		t.Error("expected no bounds for empty mesh")
	}
}
