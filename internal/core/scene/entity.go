// Package scene holds the authoritative in-memory model of a 2D scene: the
// entity records, their invariants, id allocation and the mutation API.
package scene

import (
	"fmt"
	"math"
)

// Type discriminates the entity variants.
type Type string

const (
	TypeSprite    Type = "sprite"
	TypePrimitive Type = "primitive"
)

// Shape is the procedurally drawn form of a primitive.
type Shape string

const (
	ShapeCircle    Shape = "circle"
	ShapeRectangle Shape = "rectangle"
	ShapeTriangle  Shape = "triangle"
)

// Shapes lists every accepted primitive shape.
var Shapes = []Shape{ShapeCircle, ShapeRectangle, ShapeTriangle}

// Vec3 is a 3-component vector. The renderer only reads the 2D plane, the
// remaining components are carried through untouched.
type Vec3 [3]float64

func (v Vec3) finite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Color is a packed 0xRRGGBB value.
type Color uint32

const MaxColor Color = 0xFFFFFF

func (c Color) String() string { return fmt.Sprintf("#%06x", uint32(c)) }

type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// Identity places an entity at position with no rotation and unit scale.
func Identity(position Vec3) Transform {
	return Transform{Position: position, Scale: Vec3{1, 1, 1}}
}

// Sprite is the payload of an image-backed entity. Key names a texture the
// rendering side resolves.
type Sprite struct {
	Key string
}

// Primitive is the payload of a procedurally drawn entity. Radius applies to
// circles, Width and Height to rectangles and triangles; the others stay zero.
type Primitive struct {
	Shape     Shape
	FillColor *Color
	Radius    float64
	Width     float64
	Height    float64
}

// Entity is one visual object. Exactly one of Sprite and Primitive is set and
// it matches Type.
type Entity struct {
	ID   string
	Type Type
	Transform

	Sprite    *Sprite
	Primitive *Primitive
}

// NewSprite builds an asset-backed entity. An empty id lets the store assign one.
func NewSprite(id, key string, t Transform) Entity {
	return Entity{ID: id, Type: TypeSprite, Transform: t, Sprite: &Sprite{Key: key}}
}

// NewCircle builds a circle primitive.
func NewCircle(id string, radius float64, fill Color, t Transform) Entity {
	return Entity{
		ID:        id,
		Type:      TypePrimitive,
		Transform: t,
		Primitive: &Primitive{Shape: ShapeCircle, FillColor: &fill, Radius: radius},
	}
}

// NewBox builds a rectangle or triangle primitive.
func NewBox(id string, shape Shape, width, height float64, fill Color, t Transform) Entity {
	return Entity{
		ID:        id,
		Type:      TypePrimitive,
		Transform: t,
		Primitive: &Primitive{Shape: shape, FillColor: &fill, Width: width, Height: height},
	}
}

// BaseKey is the prefix used when the store allocates an id for e: the
// asset key for sprites and the shape name for primitives.
func (e Entity) BaseKey() string {
	switch {
	case e.Type == TypeSprite && e.Sprite != nil:
		return e.Sprite.Key
	case e.Type == TypePrimitive && e.Primitive != nil:
		return string(e.Primitive.Shape)
	default:
		return string(e.Type)
	}
}

// Clone returns a deep copy.
func (e Entity) Clone() Entity {
	out := e
	if e.Sprite != nil {
		s := *e.Sprite
		out.Sprite = &s
	}
	if e.Primitive != nil {
		p := *e.Primitive
		if e.Primitive.FillColor != nil {
			c := *e.Primitive.FillColor
			p.FillColor = &c
		}
		out.Primitive = &p
	}
	return out
}

// Equal reports field equality, comparing payloads by value.
func (e Entity) Equal(o Entity) bool {
	if e.ID != o.ID || e.Type != o.Type || e.Transform != o.Transform {
		return false
	}
	if (e.Sprite == nil) != (o.Sprite == nil) || (e.Primitive == nil) != (o.Primitive == nil) {
		return false
	}
	if e.Sprite != nil && *e.Sprite != *o.Sprite {
		return false
	}
	if e.Primitive != nil {
		a, b := *e.Primitive, *o.Primitive
		if (a.FillColor == nil) != (b.FillColor == nil) {
			return false
		}
		if a.FillColor != nil && *a.FillColor != *b.FillColor {
			return false
		}
		a.FillColor, b.FillColor = nil, nil
		return a == b
	}
	return true
}

// Validate checks the record on its own. Cross-record rules such as id
// uniqueness belong to the Store.
func (e Entity) Validate() error {
	if e.ID == "" {
		return invalid(e.ID, "id", "must not be empty")
	}
	return e.validateBody()
}

// validateBody checks everything except the id, so a record can be vetted
// before the store allocates one for it.
func (e Entity) validateBody() error {
	if err := e.validateTransform(); err != nil {
		return err
	}

	switch e.Type {
	case TypeSprite:
		if e.Primitive != nil {
			return invalid(e.ID, "type", "sprite carries primitive fields")
		}
		if e.Sprite == nil || e.Sprite.Key == "" {
			return invalid(e.ID, "key", "sprite requires an asset key")
		}
		return nil
	case TypePrimitive:
		if e.Sprite != nil {
			return invalid(e.ID, "type", "primitive carries sprite fields")
		}
		if e.Primitive == nil {
			return invalid(e.ID, "shape", "primitive requires a shape")
		}
		return e.Primitive.validate(e.ID)
	default:
		return invalid(e.ID, "type", fmt.Sprintf("unknown entity type %q", e.Type))
	}
}

func (e Entity) validateTransform() error {
	if !e.Position.finite() {
		return invalid(e.ID, "position", "components must be finite")
	}
	if !e.Rotation.finite() {
		return invalid(e.ID, "rotation", "components must be finite")
	}
	if !e.Scale.finite() {
		return invalid(e.ID, "scale", "components must be finite")
	}
	return nil
}

func (p Primitive) validate(id string) error {
	if p.FillColor != nil && *p.FillColor > MaxColor {
		return invalid(id, "fillColor", fmt.Sprintf("%d exceeds 0xFFFFFF", uint32(*p.FillColor)))
	}

	switch p.Shape {
	case ShapeCircle:
		if err := positive(id, "radius", p.Radius); err != nil {
			return err
		}
		if p.Width != 0 || p.Height != 0 {
			return invalid(id, "width", "circle takes a radius only")
		}
	case ShapeRectangle, ShapeTriangle:
		if err := positive(id, "width", p.Width); err != nil {
			return err
		}
		if err := positive(id, "height", p.Height); err != nil {
			return err
		}
		if p.Radius != 0 {
			return invalid(id, "radius", fmt.Sprintf("%s takes width and height only", p.Shape))
		}
	default:
		return invalid(id, "shape", fmt.Sprintf("unknown shape %q", p.Shape))
	}
	return nil
}

func positive(id, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return invalid(id, field, "must be a positive number")
	}
	return nil
}
