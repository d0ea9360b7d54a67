// Package codec converts between the entity records held by a scene.Store and
// the scene document: a bare JSON array of entity objects, used both for
// files on disk and for the edit relay's wire format.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/scraper-sky/2d-scene-editor/internal/core/scene"
)

// Source is anything that can hand out an ordered snapshot of records.
// *scene.Store satisfies it.
type Source interface {
	List() []scene.Entity
}

// document is the on-the-wire shape of a single entity. Only fields of the
// data model are emitted.
type document struct {
	ID        string      `json:"id"`
	Type      scene.Type  `json:"type"`
	Key       string      `json:"key,omitempty"`
	Shape     scene.Shape `json:"shape,omitempty"`
	Radius    float64     `json:"radius,omitempty"`
	Width     float64     `json:"width,omitempty"`
	Height    float64     `json:"height,omitempty"`
	FillColor *uint32     `json:"fillColor,omitempty"`
	Position  scene.Vec3  `json:"position"`
	Rotation  scene.Vec3  `json:"rotation"`
	Scale     scene.Vec3  `json:"scale"`
}

// candidate mirrors document with every field optional, so presence and
// JSON type can be checked field by field.
type candidate struct {
	ID        *string      `json:"id"`
	Type      *string      `json:"type"`
	Key       *string      `json:"key"`
	Shape     *string      `json:"shape"`
	Radius    *float64     `json:"radius"`
	Width     *float64     `json:"width"`
	Height    *float64     `json:"height"`
	FillColor *json.Number `json:"fillColor"`
	Position  *[]float64   `json:"position"`
	Rotation  *[]float64   `json:"rotation"`
	Scale     *[]float64   `json:"scale"`
}

// Encode serializes src in its current order.
func Encode(src Source) ([]byte, error) {
	return Marshal(src.List())
}

// EncodeIndent is Encode with two-space indentation, the format scene files
// are saved in.
func EncodeIndent(src Source) ([]byte, error) {
	return json.MarshalIndent(toDocuments(src.List()), "", "  ")
}

// Marshal serializes records in the given order. A nil slice encodes as [].
func Marshal(records []scene.Entity) ([]byte, error) {
	return json.Marshal(toDocuments(records))
}

// Fingerprint hashes the compact encoding of records. Equal scenes in equal
// order have equal fingerprints.
func Fingerprint(records []scene.Entity) (uint64, error) {
	data, err := Marshal(records)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

func toDocuments(records []scene.Entity) []document {
	docs := make([]document, len(records))
	for i, e := range records {
		d := document{
			ID:       e.ID,
			Type:     e.Type,
			Position: e.Position,
			Rotation: e.Rotation,
			Scale:    e.Scale,
		}
		if e.Sprite != nil {
			d.Key = e.Sprite.Key
		}
		if p := e.Primitive; p != nil {
			d.Shape = p.Shape
			d.Radius = p.Radius
			d.Width = p.Width
			d.Height = p.Height
			if p.FillColor != nil {
				c := uint32(*p.FillColor)
				d.FillColor = &c
			}
		}
		docs[i] = d
	}
	return docs
}

// Decode parses a scene document into candidate records. It checks shape
// only: the input must be a JSON array of objects, each with string id and
// type, three-number position/rotation/scale vectors and correctly typed
// optional fields. Whether the records form a valid scene (known shapes,
// unique ids, required params) is decided by scene.Store.ReplaceAll.
func Decode(data []byte) ([]scene.Entity, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, malformed(-1, "", "document is empty", nil)
	}
	if trimmed[0] != '[' {
		return nil, malformed(-1, "", "top level is not an array", nil)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, malformed(-1, "", "", err)
	}

	out := make([]scene.Entity, 0, len(raw))
	for i, elem := range raw {
		e, err := decodeEntity(i, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeEntity(index int, elem json.RawMessage) (scene.Entity, error) {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 || elem[0] != '{' {
		return scene.Entity{}, malformed(index, "", "element is not an object", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()
	var c candidate
	if err := dec.Decode(&c); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return scene.Entity{}, malformed(index, typeErr.Field, "wrong JSON type", err)
		}
		return scene.Entity{}, malformed(index, "", "", err)
	}

	if c.ID == nil {
		return scene.Entity{}, malformed(index, "id", "missing", nil)
	}
	if c.Type == nil {
		return scene.Entity{}, malformed(index, "type", "missing", nil)
	}

	e := scene.Entity{ID: *c.ID, Type: scene.Type(*c.Type)}
	var err error
	if e.Position, err = vector(index, "position", c.Position); err != nil {
		return scene.Entity{}, err
	}
	if e.Rotation, err = vector(index, "rotation", c.Rotation); err != nil {
		return scene.Entity{}, err
	}
	if e.Scale, err = vector(index, "scale", c.Scale); err != nil {
		return scene.Entity{}, err
	}

	if c.Key != nil {
		e.Sprite = &scene.Sprite{Key: *c.Key}
	}
	if c.Shape != nil || c.Radius != nil || c.Width != nil || c.Height != nil || c.FillColor != nil {
		p := &scene.Primitive{}
		if c.Shape != nil {
			p.Shape = scene.Shape(*c.Shape)
		}
		if c.Radius != nil {
			p.Radius = *c.Radius
		}
		if c.Width != nil {
			p.Width = *c.Width
		}
		if c.Height != nil {
			p.Height = *c.Height
		}
		if c.FillColor != nil {
			color, err := fillColor(index, *c.FillColor)
			if err != nil {
				return scene.Entity{}, err
			}
			p.FillColor = &color
		}
		e.Primitive = p
	}
	return e, nil
}

func vector(index int, field string, v *[]float64) (scene.Vec3, error) {
	if v == nil {
		return scene.Vec3{}, malformed(index, field, "missing", nil)
	}
	if len(*v) != 3 {
		return scene.Vec3{}, malformed(index, field, "expected exactly 3 numbers", nil)
	}
	return scene.Vec3{(*v)[0], (*v)[1], (*v)[2]}, nil
}

func fillColor(index int, n json.Number) (scene.Color, error) {
	v, err := n.Int64()
	if err != nil {
		return 0, malformed(index, "fillColor", "expected an integer", err)
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, malformed(index, "fillColor", "out of range", nil)
	}
	return scene.Color(v), nil
}
