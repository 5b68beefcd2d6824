// Package source provides shader source text by logical name, either built
// into the binary or read from a directory.
package source

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrUnknownShader is returned when a provider has no source for a name.
var ErrUnknownShader = errors.New("unknown shader")

// Built-in shader names.
const (
	MeshVertex   = "mesh.vert" // position + per-vertex color
	MeshFragment = "mesh.frag"
	LitVertex    = "lit.vert" // position + normal, material uniforms
	LitFragment  = "lit.frag"
)

//go:embed glsl/*.vert glsl/*.frag
var builtin embed.FS

// Provider exposes shader source text by logical name.
type Provider interface {
	Source(name string) (string, error)
}

// FSProvider serves sources from a filesystem.
type FSProvider struct {
	fsys fs.FS
}

// Embedded returns a provider for the shaders compiled into the binary.
func Embedded() *FSProvider {
	sub, _ := fs.Sub(builtin, "glsl")
	return &FSProvider{fsys: sub}
}

// Dir returns a provider reading shader files from dir on disk.
func Dir(dir string) *FSProvider {
	return &FSProvider{fsys: os.DirFS(dir)}
}

// Source returns the text of the named shader.
func (p *FSProvider) Source(name string) (string, error) {
	data, err := fs.ReadFile(p.fsys, filepath.ToSlash(name))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrUnknownShader, name, err)
	}
	return string(data), nil
}

// Select picks a provider and program pair. Explicit vert/frag names win;
// otherwise lit selects the normal-lit pair and !lit the vertex-color pair.
// An empty dir means the built-in shaders.
func Select(dir, vert, frag string, lit bool) (p Provider, vertName, fragName string) {
	p = Embedded()
	if dir != "" {
		p = Dir(dir)
	}
	switch {
	case vert != "" && frag != "":
		return p, vert, frag
	case lit:
		return p, LitVertex, LitFragment
	default:
		return p, MeshVertex, MeshFragment
	}
}
