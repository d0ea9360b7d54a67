package scene

// Patch is a partial update. Nil fields are left alone; set fields replace
// the stored value wholesale, so a new Scale replaces all three components.
type Patch struct {
	Position *Vec3
	Rotation *Vec3
	Scale    *Vec3

	// Sprite only.
	Key *string

	// Primitive only.
	FillColor *Color
	Radius    *float64
	Width     *float64
	Height    *float64
}

func (p Patch) empty() bool {
	return p.Position == nil && p.Rotation == nil && p.Scale == nil &&
		p.Key == nil && p.FillColor == nil && p.Radius == nil && p.Width == nil && p.Height == nil
}

// apply merges p into a copy of e. Fields that do not belong to e's variant
// are refused rather than dropped.
func (p Patch) apply(e Entity) (Entity, error) {
	out := e.Clone()
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Rotation != nil {
		out.Rotation = *p.Rotation
	}
	if p.Scale != nil {
		out.Scale = *p.Scale
	}

	switch out.Type {
	case TypeSprite:
		if p.FillColor != nil || p.Radius != nil || p.Width != nil || p.Height != nil {
			return e, invalid(e.ID, "patch", "primitive fields do not apply to a sprite")
		}
		if p.Key != nil {
			out.Sprite.Key = *p.Key
		}
	case TypePrimitive:
		if p.Key != nil {
			return e, invalid(e.ID, "patch", "key does not apply to a primitive")
		}
		if p.FillColor != nil {
			c := *p.FillColor
			out.Primitive.FillColor = &c
		}
		if p.Radius != nil {
			out.Primitive.Radius = *p.Radius
		}
		if p.Width != nil {
			out.Primitive.Width = *p.Width
		}
		if p.Height != nil {
			out.Primitive.Height = *p.Height
		}
	}
	return out, nil
}
