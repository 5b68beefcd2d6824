package objfile

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Material is a named set of reflectance coefficients from an MTL file.
type Material struct {
	Name      string
	Ambient   mgl32.Vec3 // Ka
	Diffuse   mgl32.Vec3 // Kd
	Specular  mgl32.Vec3 // Ks
	Emissive  mgl32.Vec3 // Ke
	Shininess float32    // Ns
	Dissolve  float32    // d (1 = opaque)
	Illum     int        // illum
}

// NewMaterial returns a material with MTL default coefficients.
func NewMaterial(name string) Material {
	return Material{
		Name:     name,
		Diffuse:  mgl32.Vec3{0.8, 0.8, 0.8},
		Dissolve: 1,
	}
}

// Library maps material names to materials, remembering definition order.
type Library struct {
	materials map[string]Material
	names     []string
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{materials: make(map[string]Material)}
}

// Get looks up a material by name.
func (l *Library) Get(name string) (Material, bool) {
	if l == nil {
		return Material{}, false
	}
	m, ok := l.materials[name]
	return m, ok
}

// Add stores m under m.Name. Redefining a name replaces the material but keeps its position.
func (l *Library) Add(m Material) {
	if _, ok := l.materials[m.Name]; !ok {
		l.names = append(l.names, m.Name)
	}
	l.materials[m.Name] = m
}

// Len returns the number of materials.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.names)
}

// Names returns material names in definition order.
func (l *Library) Names() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Clone returns an independent copy of the library.
func (l *Library) Clone() *Library {
	c := NewLibrary()
	if l == nil {
		return c
	}
	for _, name := range l.names {
		c.Add(l.materials[name])
	}
	return c
}

// Merge adds every material of other into l; other's definitions win.
func (l *Library) Merge(other *Library) {
	if other == nil {
		return
	}
	for _, name := range other.names {
		l.Add(other.materials[name])
	}
}

// MaterialOptions controls material library parsing.
type MaterialOptions struct {
	// Name identifies the source in diagnostics.
	Name string
	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// ParseMaterials reads an MTL stream. Problems with individual directives are
// returned as diagnostics; the rest of the file is still parsed.
func ParseMaterials(r io.Reader, opts MaterialOptions) (*Library, []Diagnostic, error) {
	rep := newReporter(opts.Name, opts.Logger)
	lib := NewLibrary()
	diags, err := parseMaterials(r, lib, rep)
	return lib, diags, err
}

func parseMaterials(r io.Reader, lib *Library, rep *reporter) ([]Diagnostic, error) {
	lr := newLineReader(r)

	var cur Material
	open := false
	flush := func() {
		if open {
			lib.Add(cur)
		}
	}

	for lr.Next() {
		rec := lr.Record()
		if rec.Keyword == "newmtl" {
			flush()
			if len(rec.Args) == 0 {
				rep.report(OrphanDirective, rec.Line, "newmtl without a name")
				open = false
				continue
			}
			cur = NewMaterial(joinArgs(rec.Args))
			open = true
			continue
		}

		var field *mgl32.Vec3
		switch rec.Keyword {
		case "Ka":
			field = &cur.Ambient
		case "Kd":
			field = &cur.Diffuse
		case "Ks":
			field = &cur.Specular
		case "Ke":
			field = &cur.Emissive
		case "Ns", "d", "Tr", "illum":
		default:
			rep.log.Debug("ignoring mtl directive",
				zap.String("file", rep.file),
				zap.Int("line", rec.Line),
				zap.String("directive", rec.Keyword),
			)
			continue
		}

		if !open {
			rep.report(OrphanDirective, rec.Line, "%s before newmtl", rec.Keyword)
			continue
		}

		if field != nil {
			c, err := parseColor(rec.Args)
			if err != nil {
				rep.report(MalformedNumericField, rec.Line, "%s: %v", rec.Keyword, err)
				continue
			}
			*field = c
			continue
		}

		if len(rec.Args) == 0 {
			rep.report(MalformedNumericField, rec.Line, "%s: missing operand", rec.Keyword)
			continue
		}
		switch rec.Keyword {
		case "illum":
			n, err := strconv.Atoi(rec.Args[0])
			if err != nil {
				rep.report(MalformedNumericField, rec.Line, "illum: %v", err)
				continue
			}
			cur.Illum = n
		default:
			f, err := parseFloat(rec.Args[0])
			if err != nil {
				rep.report(MalformedNumericField, rec.Line, "%s: %v", rec.Keyword, err)
				continue
			}
			switch rec.Keyword {
			case "Ns":
				cur.Shininess = f
			case "d":
				cur.Dissolve = f
			case "Tr":
				cur.Dissolve = 1 - f
			}
		}
	}
	flush()

	return rep.diags, lr.Err()
}

// LoadMaterials opens name inside fsys and parses it. If the file cannot be
// opened an empty library is returned along with an error wrapping ErrFileNotFound.
func LoadMaterials(fsys fs.FS, name string, opts MaterialOptions) (*Library, []Diagnostic, error) {
	if fsys == nil {
		return NewLibrary(), nil, fmt.Errorf("%w: %s: no filesystem", ErrFileNotFound, name)
	}
	return loadMaterials(name, opts, func() (io.ReadCloser, error) { return fsys.Open(name) })
}

// LoadMaterialsFile is LoadMaterials for a path on the OS filesystem. Unlike
// fs.FS names, the path may be absolute or climb out with "..".
func LoadMaterialsFile(path string, opts MaterialOptions) (*Library, []Diagnostic, error) {
	return loadMaterials(path, opts, func() (io.ReadCloser, error) { return os.Open(path) })
}

func loadMaterials(name string, opts MaterialOptions, open func() (io.ReadCloser, error)) (*Library, []Diagnostic, error) {
	if opts.Name == "" {
		opts.Name = name
	}
	rep := newReporter(opts.Name, opts.Logger)
	lib := NewLibrary()

	f, err := open()
	if err != nil {
		return lib, nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	defer f.Close()

	diags, err := parseMaterials(f, lib, rep)
	if err != nil {
		return lib, diags, fmt.Errorf("reading %s: %w", name, err)
	}
	return lib, diags, nil
}

// parseColor accepts "r g b" or a single scalar replicated to all channels.
func parseColor(args []string) (mgl32.Vec3, error) {
	switch len(args) {
	case 3:
		var c mgl32.Vec3
		for i := 0; i < 3; i++ {
			f, err := parseFloat(args[i])
			if err != nil {
				return mgl32.Vec3{}, err
			}
			c[i] = f
		}
		return c, nil
	case 1:
		f, err := parseFloat(args[0])
		if err != nil {
			return mgl32.Vec3{}, err
		}
		return mgl32.Vec3{f, f, f}, nil
	default:
		return mgl32.Vec3{}, fmt.Errorf("want 1 or 3 operands, got %d", len(args))
	}
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return float32(f), nil
}

// joinArgs rebuilds a name that contained spaces.
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
