// Package content turns chunk coordinates into content descriptors: the
// geometric and semantic data the engine sink needs to realize buildings,
// vehicles and vegetation. One generator per content kind, all behind the
// same contract, all consulting the road network and placement grid before
// creating anything.
package content

import (
	"sprawl/pkg/geo"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

// SizeClass is the coarse size tier of a piece of content. The sink maps it
// to concrete meshes.
type SizeClass uint8

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
)

func (s SizeClass) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return "invalid"
	}
}

// Part is one child mesh of a composite object, positioned relative to the
// root. Ownership is tree-shaped: the sink receives only the root and
// cascades destruction to parts itself.
type Part struct {
	Name   string   `json:"name"`
	Offset geo.Vec3 `json:"offset"`
}

// Descriptor describes one piece of generated content. It carries no
// engine handles; the scheduler realizes descriptors through the sink and
// keeps the resulting handles on the owning chunk.
type Descriptor struct {
	Kind    world.ContentKind `json:"kind"`
	Pos     geo.Vec3          `json:"pos"`
	Heading float64           `json:"heading"`
	Size    SizeClass         `json:"size"`
	// Radius is the footprint registered in the placement grid.
	Radius float64 `json:"radius"`
	// Road links road-bound content (vehicles, the road surfaces
	// themselves) to the spline it belongs to.
	Road roads.SplineID `json:"road,omitempty"`
	// Parts are the child meshes of composite content such as vehicles.
	Parts []Part `json:"parts,omitempty"`
}
