package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/objview/internal/engine/shader"
	"github.com/Faultbox/objview/internal/logger"
	"github.com/Faultbox/objview/pkg/objfile"
)

// ErrEmptyMesh is returned when a mesh has no triangles to upload.
var ErrEmptyMesh = errors.New("mesh has no triangles")

// Light is a directional light used by the lit program.
type Light struct {
	Direction mgl32.Vec3
	ViewPos   mgl32.Vec3
}

type drawRange struct {
	offset   int32
	count    int32
	material objfile.Material
}

// MeshRenderer uploads one loaded mesh and draws it with a single program.
type MeshRenderer struct {
	program uint32
	layout  objfile.Layout

	vao uint32
	vbo uint32
	ebo uint32

	indexCount int32
	ranges     []drawRange

	locMVP       int32
	locModel     int32
	locAmbient   int32
	locDiffuse   int32
	locSpecular  int32
	locShininess int32
	locLightDir  int32
	locViewPos   int32

	log *zap.Logger
}

// NewMeshRenderer uploads m using program. The program must match the mesh
// layout: color attribute for indexed meshes, normal attribute and material
// uniforms for interleaved meshes.
func NewMeshRenderer(program uint32, m *objfile.Mesh) (*MeshRenderer, error) {
	if len(m.Triangles) == 0 {
		return nil, ErrEmptyMesh
	}

	mr := &MeshRenderer{
		program: program,
		layout:  m.Layout,
		log:     logger.Named("renderer"),
	}

	mr.locMVP = shader.GetUniform(program, "uMVP")
	mr.locModel = shader.GetUniform(program, "uModel")
	mr.locAmbient = shader.GetUniform(program, "uAmbient")
	mr.locDiffuse = shader.GetUniform(program, "uDiffuse")
	mr.locSpecular = shader.GetUniform(program, "uSpecular")
	mr.locShininess = shader.GetUniform(program, "uShininess")
	mr.locLightDir = shader.GetUniform(program, "uLightDir")
	mr.locViewPos = shader.GetUniform(program, "uViewPos")

	switch m.Layout {
	case objfile.LayoutIndexed:
		mr.uploadIndexed(m)
	case objfile.LayoutInterleaved:
		mr.uploadInterleaved(m)
	default:
		return nil, fmt.Errorf("unsupported layout %v", m.Layout)
	}

	mr.log.Info("mesh uploaded",
		zap.Stringer("layout", m.Layout),
		zap.Int("triangles", len(m.Triangles)),
		zap.Int("draw_ranges", len(mr.ranges)),
	)
	return mr, nil
}

func (mr *MeshRenderer) uploadIndexed(m *objfile.Mesh) {
	data := m.Indexed.VertexData()
	indices := m.Indexed.Indices

	gl.GenVertexArrays(1, &mr.vao)
	gl.BindVertexArray(mr.vao)

	gl.GenBuffers(1, &mr.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, mr.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &mr.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mr.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	bindLayout(m.VertexLayout())
	gl.BindVertexArray(0)

	mr.indexCount = int32(len(indices))
}

func (mr *MeshRenderer) uploadInterleaved(m *objfile.Mesh) {
	data := m.Interleaved.Vertices

	gl.GenVertexArrays(1, &mr.vao)
	gl.BindVertexArray(mr.vao)

	gl.GenBuffers(1, &mr.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, mr.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	bindLayout(m.VertexLayout())
	gl.BindVertexArray(0)

	for _, r := range m.Interleaved.Ranges {
		mat, ok := m.Library.Get(r.Material)
		if !ok {
			mat = objfile.NewMaterial(r.Material)
		}
		mr.ranges = append(mr.ranges, drawRange{offset: r.Offset, count: r.Count, material: mat})
	}
}

func bindLayout(l objfile.VertexLayout) {
	for _, a := range l.Attributes {
		gl.VertexAttribPointerWithOffset(a.Location, a.Size, gl.FLOAT, false, l.Stride, uintptr(a.Offset))
		gl.EnableVertexAttribArray(a.Location)
	}
}

// Draw renders the mesh with the given model-view-projection and model matrices.
func (mr *MeshRenderer) Draw(mvp, model mgl32.Mat4, light Light) {
	gl.UseProgram(mr.program)
	gl.UniformMatrix4fv(mr.locMVP, 1, false, &mvp[0])
	gl.UniformMatrix4fv(mr.locModel, 1, false, &model[0])

	gl.BindVertexArray(mr.vao)
	defer gl.BindVertexArray(0)

	if mr.layout == objfile.LayoutIndexed {
		gl.DrawElements(gl.TRIANGLES, mr.indexCount, gl.UNSIGNED_INT, nil)
		return
	}

	gl.Uniform3fv(mr.locLightDir, 1, &light.Direction[0])
	gl.Uniform3fv(mr.locViewPos, 1, &light.ViewPos[0])
	for _, r := range mr.ranges {
		mat := r.material
		gl.Uniform3fv(mr.locAmbient, 1, &mat.Ambient[0])
		gl.Uniform3fv(mr.locDiffuse, 1, &mat.Diffuse[0])
		gl.Uniform3fv(mr.locSpecular, 1, &mat.Specular[0])
		gl.Uniform1f(mr.locShininess, mat.Shininess)
		gl.DrawArrays(gl.TRIANGLES, r.offset, r.count)
	}
}

// Close deletes GPU buffers.
func (mr *MeshRenderer) Close() {
	if mr.vao != 0 {
		gl.DeleteVertexArrays(1, &mr.vao)
	}
	if mr.vbo != 0 {
		gl.DeleteBuffers(1, &mr.vbo)
	}
	if mr.ebo != 0 {
		gl.DeleteBuffers(1, &mr.ebo)
	}
}
