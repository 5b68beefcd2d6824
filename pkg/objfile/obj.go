package objfile

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// FallbackColor is the vertex color used before any material is bound.
var FallbackColor = mgl32.Vec3{1.0, 0.5, 0.2}

// FaceVertexRef is one resolved corner of a face. Indices are 0-based;
// -1 marks an absent texture or normal reference.
type FaceVertexRef struct {
	Position int
	Texture  int
	Normal   int
}

// Triangle is one fan slice of a face together with the material that was
// active when the face was read.
type Triangle struct {
	Corners  [3]FaceVertexRef
	Material string     // Empty when no material was bound
	Color    mgl32.Vec3 // Diffuse color of Material at parse time
}

// Stats counts what a load consumed and produced.
type Stats struct {
	Positions    int
	Normals      int
	TexCoords    int
	Faces        int
	Triangles    int
	SkippedFaces int
}

// Mesh is the result of loading an OBJ file.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Triangles []Triangle

	// Materials referenced by emitted triangles, in first-use order.
	Materials []string
	// Library holds every material loaded for this mesh.
	Library *Library

	Layout      Layout
	Indexed     *IndexedBuffer     // Set when Layout == LayoutIndexed
	Interleaved *InterleavedBuffer // Set when Layout == LayoutInterleaved

	Diagnostics []Diagnostic
	Stats       Stats
}

// Bounds returns the axis-aligned bounding box of all positions.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3, ok bool) {
	if len(m.Positions) == 0 {
		return lo, hi, false
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < lo[i] {
				lo[i] = p[i]
			}
			if p[i] > hi[i] {
				hi[i] = p[i]
			}
		}
	}
	return lo, hi, true
}

// Options controls mesh loading.
type Options struct {
	// Layout selects the output vertex stream.
	Layout Layout
	// FS resolves mtllib references. When nil, Load resolves them as OS paths
	// relative to the mesh's directory.
	FS fs.FS
	// Library seeds the material table. It is cloned, never modified.
	Library *Library
	// DefaultColor overrides FallbackColor when set.
	DefaultColor *mgl32.Vec3
	// Name identifies the mesh in diagnostics.
	Name string
	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger

	dir string // Set by Load when FS is nil
}

// Load opens an OBJ file and parses it. Material libraries are resolved
// relative to the file's directory unless opts.FS is set.
func Load(filename string, opts Options) (*Mesh, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	f, err := os.Open(filename)
	if err != nil {
		opts.Logger.Error("failed to open mesh", zap.String("file", filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	defer f.Close()

	if opts.FS == nil {
		opts.dir = filepath.Dir(filename)
	}
	if opts.Name == "" {
		opts.Name = filename
	}
	return Parse(f, opts)
}

// Parse reads an OBJ stream in a single pass. Recoverable problems are
// recorded in Mesh.Diagnostics; only read errors are returned.
func Parse(r io.Reader, opts Options) (*Mesh, error) {
	p := newMeshParser(opts)
	lr := newLineReader(r)

	for lr.Next() {
		p.handle(lr.Record())
	}
	err := lr.Err()
	if err != nil && opts.Name != "" {
		err = fmt.Errorf("reading %s: %w", opts.Name, err)
	}

	m := p.finish()
	return m, err
}

type meshParser struct {
	opts  Options
	rep   *reporter
	mesh  *Mesh
	color mgl32.Vec3

	material string
	seen     map[string]bool
}

func newMeshParser(opts Options) *meshParser {
	color := FallbackColor
	if opts.DefaultColor != nil {
		color = *opts.DefaultColor
	}
	return &meshParser{
		opts: opts,
		rep:  newReporter(opts.Name, opts.Logger),
		mesh: &Mesh{
			Layout:  opts.Layout,
			Library: opts.Library.Clone(),
		},
		color: color,
		seen:  make(map[string]bool),
	}
}

func (p *meshParser) handle(rec Record) {
	switch rec.Keyword {
	case "v":
		p.mesh.Positions = append(p.mesh.Positions, p.parseVec3(rec))
	case "vn":
		p.mesh.Normals = append(p.mesh.Normals, p.parseVec3(rec))
	case "vt":
		p.mesh.Stats.TexCoords++
	case "mtllib":
		p.loadLibraries(rec)
	case "usemtl":
		p.useMaterial(rec)
	case "f":
		p.parseFace(rec)
	default:
		p.rep.log.Debug("ignoring obj directive",
			zap.String("file", p.rep.file),
			zap.Int("line", rec.Line),
			zap.String("directive", rec.Keyword),
		)
	}
}

// parseVec3 defaults missing or malformed components to zero so that later
// indices stay aligned with the file.
func (p *meshParser) parseVec3(rec Record) mgl32.Vec3 {
	var v mgl32.Vec3
	if len(rec.Args) < 3 {
		p.rep.report(MalformedNumericField, rec.Line, "%s: want 3 components, got %d", rec.Keyword, len(rec.Args))
	}
	for i := 0; i < 3 && i < len(rec.Args); i++ {
		f, err := parseFloat(rec.Args[i])
		if err != nil {
			p.rep.report(MalformedNumericField, rec.Line, "%s: %v", rec.Keyword, err)
			continue
		}
		v[i] = f
	}
	return v
}

func (p *meshParser) loadLibraries(rec Record) {
	for _, name := range rec.Args {
		var (
			lib   *Library
			diags []Diagnostic
			err   error
		)
		if p.opts.FS == nil && p.opts.dir != "" {
			file := filepath.FromSlash(name)
			if !filepath.IsAbs(file) {
				file = filepath.Join(p.opts.dir, file)
			}
			lib, diags, err = LoadMaterialsFile(file, MaterialOptions{Logger: p.opts.Logger})
		} else {
			name = path.Clean(filepath.ToSlash(name))
			lib, diags, err = LoadMaterials(p.opts.FS, name, MaterialOptions{Logger: p.opts.Logger})
		}
		p.rep.diags = append(p.rep.diags, diags...)
		if err != nil {
			p.rep.report(FileNotFound, rec.Line, "mtllib %s: %v", name, err)
		}
		p.mesh.Library.Merge(lib)
	}
}

func (p *meshParser) useMaterial(rec Record) {
	name := joinArgs(rec.Args)
	m, ok := p.mesh.Library.Get(name)
	if !ok {
		p.rep.report(UnknownMaterialReference, rec.Line, "unknown material %q", name)
		return
	}
	p.material = name
	p.color = m.Diffuse
}

func (p *meshParser) parseFace(rec Record) {
	p.mesh.Stats.Faces++

	if len(rec.Args) < 3 {
		p.rep.report(DegenerateFace, rec.Line, "face has %d vertices", len(rec.Args))
		p.mesh.Stats.SkippedFaces++
		return
	}

	refs := make([]FaceVertexRef, 0, len(rec.Args))
	for _, tok := range rec.Args {
		ref, kind, err := p.parseRef(tok)
		if err != nil {
			p.rep.report(kind, rec.Line, "face vertex %q: %v", tok, err)
			p.mesh.Stats.SkippedFaces++
			return
		}
		refs = append(refs, ref)
	}

	if p.material != "" && !p.seen[p.material] {
		p.seen[p.material] = true
		p.mesh.Materials = append(p.mesh.Materials, p.material)
	}

	for i := 2; i < len(refs); i++ {
		p.mesh.Triangles = append(p.mesh.Triangles, Triangle{
			Corners:  [3]FaceVertexRef{refs[0], refs[i-1], refs[i]},
			Material: p.material,
			Color:    p.color,
		})
	}
}

// parseRef resolves "v", "v/t", "v//n" or "v/t/n" against the counts parsed so far.
func (p *meshParser) parseRef(tok string) (FaceVertexRef, DiagnosticKind, error) {
	ref := FaceVertexRef{Texture: -1, Normal: -1}
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return ref, MalformedNumericField, fmt.Errorf("too many components")
	}

	pos, err := parseIndex(parts[0])
	if err != nil {
		return ref, MalformedNumericField, err
	}
	if pos < 1 || pos > len(p.mesh.Positions) {
		return ref, OutOfRangeIndex, fmt.Errorf("position %d outside [1, %d]", pos, len(p.mesh.Positions))
	}
	ref.Position = pos - 1

	if len(parts) > 1 && parts[1] != "" {
		tex, err := parseIndex(parts[1])
		if err != nil {
			return ref, MalformedNumericField, err
		}
		// Texture coordinates are not kept, so only the sign is checked.
		if tex < 1 {
			return ref, MalformedNumericField, fmt.Errorf("texture index %d must be positive", tex)
		}
		ref.Texture = tex - 1
	}

	if len(parts) > 2 && parts[2] != "" {
		n, err := parseIndex(parts[2])
		if err != nil {
			return ref, MalformedNumericField, err
		}
		if n < 1 || n > len(p.mesh.Normals) {
			return ref, OutOfRangeIndex, fmt.Errorf("normal %d outside [1, %d]", n, len(p.mesh.Normals))
		}
		ref.Normal = n - 1
	}

	return ref, 0, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return n, nil
}

func (p *meshParser) finish() *Mesh {
	m := p.mesh
	m.Diagnostics = p.rep.diags
	m.Stats.Positions = len(m.Positions)
	m.Stats.Normals = len(m.Normals)
	m.Stats.Triangles = len(m.Triangles)

	switch m.Layout {
	case LayoutInterleaved:
		m.Interleaved = buildInterleaved(m)
	default:
		m.Layout = LayoutIndexed
		m.Indexed = buildIndexed(m, p.defaultColor())
	}

	p.rep.log.Debug("mesh loaded",
		zap.String("file", p.rep.file),
		zap.Stringer("layout", m.Layout),
		zap.Int("positions", m.Stats.Positions),
		zap.Int("normals", m.Stats.Normals),
		zap.Int("triangles", m.Stats.Triangles),
		zap.Int("skipped_faces", m.Stats.SkippedFaces),
		zap.Int("materials", len(m.Materials)),
	)
	return m
}

func (p *meshParser) defaultColor() mgl32.Vec3 {
	if p.opts.DefaultColor != nil {
		return *p.opts.DefaultColor
	}
	return FallbackColor
}
