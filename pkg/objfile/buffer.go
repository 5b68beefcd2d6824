package objfile

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Layout selects how triangles are turned into a vertex stream.
type Layout int

const (
	// LayoutIndexed keeps positions in file order and emits an index buffer
	// with one color per triangle corner.
	LayoutIndexed Layout = iota
	// LayoutInterleaved emits position+normal records per corner, grouped
	// into one draw range per material.
	LayoutInterleaved
)

// String returns the config name of the layout.
func (l Layout) String() string {
	switch l {
	case LayoutIndexed:
		return "indexed"
	case LayoutInterleaved:
		return "interleaved"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout converts a config name into a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "indexed", "":
		return LayoutIndexed, nil
	case "interleaved":
		return LayoutInterleaved, nil
	default:
		return 0, fmt.Errorf("unknown layout %q (want indexed or interleaved)", s)
	}
}

// IndexedBuffer is the index-buffer form of a mesh.
type IndexedBuffer struct {
	Positions []mgl32.Vec3
	Colors    []mgl32.Vec3 // One per index, not per position
	Indices   []uint32

	defaultColor mgl32.Vec3
}

// PositionColors folds corner colors onto positions so they can be bound as a
// per-vertex attribute. When a position is shared by corners of different
// colors the last corner wins.
func (b *IndexedBuffer) PositionColors() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(b.Positions))
	for i := range out {
		out[i] = b.defaultColor
	}
	for i, idx := range b.Indices {
		out[idx] = b.Colors[i]
	}
	return out
}

// FloatsPerVertex is the interleaved record size: position.xyz, normal.xyz.
const FloatsPerVertex = 6

// DrawRange is a contiguous slice of the interleaved buffer drawn with one material.
type DrawRange struct {
	Material string
	Offset   int32 // First vertex
	Count    int32 // Number of vertices
}

// InterleavedBuffer is the expanded-vertex form of a mesh.
type InterleavedBuffer struct {
	Vertices []float32
	Ranges   []DrawRange
}

// VertexCount returns the number of vertex records.
func (b *InterleavedBuffer) VertexCount() int {
	return len(b.Vertices) / FloatsPerVertex
}

func buildIndexed(m *Mesh, defaultColor mgl32.Vec3) *IndexedBuffer {
	b := &IndexedBuffer{
		Positions:    m.Positions,
		Colors:       make([]mgl32.Vec3, 0, len(m.Triangles)*3),
		Indices:      make([]uint32, 0, len(m.Triangles)*3),
		defaultColor: defaultColor,
	}
	for _, tri := range m.Triangles {
		for _, c := range tri.Corners {
			b.Indices = append(b.Indices, uint32(c.Position))
			b.Colors = append(b.Colors, tri.Color)
		}
	}
	return b
}

func buildInterleaved(m *Mesh) *InterleavedBuffer {
	var order []string
	groups := make(map[string][]int)
	for i, tri := range m.Triangles {
		if _, ok := groups[tri.Material]; !ok {
			order = append(order, tri.Material)
		}
		groups[tri.Material] = append(groups[tri.Material], i)
	}

	b := &InterleavedBuffer{
		Vertices: make([]float32, 0, len(m.Triangles)*3*FloatsPerVertex),
		Ranges:   make([]DrawRange, 0, len(order)),
	}
	for _, name := range order {
		offset := int32(b.VertexCount())
		for _, ti := range groups[name] {
			tri := m.Triangles[ti]
			flat := faceNormal(m, tri)
			for _, c := range tri.Corners {
				pos := m.Positions[c.Position]
				n := flat
				if c.Normal >= 0 {
					n = m.Normals[c.Normal]
				}
				b.Vertices = append(b.Vertices, pos[0], pos[1], pos[2], n[0], n[1], n[2])
			}
		}
		b.Ranges = append(b.Ranges, DrawRange{
			Material: name,
			Offset:   offset,
			Count:    int32(b.VertexCount()) - offset,
		})
	}
	return b
}

// faceNormal returns the unit normal of a triangle, or zero if it is degenerate.
func faceNormal(m *Mesh, tri Triangle) mgl32.Vec3 {
	v0 := m.Positions[tri.Corners[0].Position]
	v1 := m.Positions[tri.Corners[1].Position]
	v2 := m.Positions[tri.Corners[2].Position]
	n := v1.Sub(v0).Cross(v2.Sub(v0))
	if n.Len() < 1e-12 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}

// Attribute is one vertex attribute inside an uploaded buffer.
type Attribute struct {
	Location uint32
	Size     int32 // Components
	Offset   int   // Bytes from the start of the buffer
}

// VertexLayout describes how VertexData is laid out for the GPU.
type VertexLayout struct {
	Stride     int32 // Bytes between consecutive vertices of one attribute
	Attributes []Attribute
}

const floatSize = 4

// VertexData returns positions followed by per-position colors as one
// float block, matching VertexLayout.
func (b *IndexedBuffer) VertexData() []float32 {
	colors := b.PositionColors()
	out := make([]float32, 0, (len(b.Positions)+len(colors))*3)
	for _, p := range b.Positions {
		out = append(out, p[0], p[1], p[2])
	}
	for _, c := range colors {
		out = append(out, c[0], c[1], c[2])
	}
	return out
}

// VertexLayout returns the attribute layout of the mesh's vertex data:
// location 0 is the position, location 1 the color (indexed) or normal
// (interleaved).
func (m *Mesh) VertexLayout() VertexLayout {
	if m.Layout == LayoutInterleaved {
		return VertexLayout{
			Stride: FloatsPerVertex * floatSize,
			Attributes: []Attribute{
				{Location: 0, Size: 3, Offset: 0},
				{Location: 1, Size: 3, Offset: 3 * floatSize},
			},
		}
	}
	n := 0
	if m.Indexed != nil {
		n = len(m.Indexed.Positions)
	}
	return VertexLayout{
		Stride: 3 * floatSize,
		Attributes: []Attribute{
			{Location: 0, Size: 3, Offset: 0},
			{Location: 1, Size: 3, Offset: n * 3 * floatSize},
		},
	}
}
