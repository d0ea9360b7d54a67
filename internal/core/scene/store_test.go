package scene

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scraper-sky/2d-scene-editor/internal/core/events"
)

func redCircle() Entity {
	return NewCircle("", 30, 0xff0000, Identity(Vec3{}))
}

func TestCreateAllocatesFromShapeName(t *testing.T) {
	s := NewStore()

	id, err := s.Create(redCircle())
	require.NoError(t, err)
	assert.Equal(t, "circle1", id)
	assert.Len(t, s.List(), 1)

	got, err := s.Get("circle1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Primitive.Radius)
	assert.Equal(t, Color(0xff0000), *got.Primitive.FillColor)
	assert.Equal(t, Vec3{1, 1, 1}, got.Scale)
}

func TestCreateSkipsLiveIDs(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ReplaceAll([]Entity{NewSprite("tree1", "tree", Identity(Vec3{}))}))

	id, err := s.CreateSprite("tree", Vec3{10, 20, 0})
	require.NoError(t, err)
	assert.Equal(t, "tree2", id)
}

func TestCreateNeverRepeatsIDs(t *testing.T) {
	s := NewStore()
	seen := make(map[string]bool)
	for i := range 50 {
		var e Entity
		switch i % 3 {
		case 0:
			e = redCircle()
		case 1:
			e = NewBox("", ShapeRectangle, 10, 20, 0x00ff00, Identity(Vec3{}))
		default:
			e = NewSprite("", "hero", Identity(Vec3{}))
		}
		id, err := s.Create(e)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		// freeing an id must not make the generator hand it out again
		if i%7 == 0 {
			require.NoError(t, s.Remove(id))
		}
	}
}

func TestCreateRejects(t *testing.T) {
	s := NewStore()
	_, err := s.Create(NewSprite("hero1", "hero", Identity(Vec3{})))
	require.NoError(t, err)

	hexagon := redCircle()
	hexagon.Primitive.Shape = "hexagon"

	mixed := redCircle()
	mixed.Sprite = &Sprite{Key: "hero"}

	noRadius := redCircle()
	noRadius.Primitive.Radius = 0

	circleWithWidth := redCircle()
	circleWithWidth.Primitive.Width = 5

	cases := map[string]Entity{
		"duplicate id":            NewSprite("hero1", "hero", Identity(Vec3{})),
		"unknown shape":           hexagon,
		"mixed variants":          mixed,
		"missing radius":          noRadius,
		"circle with width":       circleWithWidth,
		"unknown type":            {ID: "x", Type: "mesh"},
		"sprite without key":      NewSprite("", "", Identity(Vec3{})),
		"triangle without height": NewBox("", ShapeTriangle, 10, 0, 1, Identity(Vec3{})),
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Create(e)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestCreateRejectsOversizedColor(t *testing.T) {
	s := NewStore()
	_, err := s.Create(NewCircle("", 5, 0x1000000, Identity(Vec3{})))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "fillColor", ve.Field)
}

func TestUpdateIsShallow(t *testing.T) {
	s := NewStore()
	id, err := s.Create(redCircle())
	require.NoError(t, err)

	scale := Vec3{2, 3, 1}
	radius := 12.5
	require.NoError(t, s.Update(id, Patch{Scale: &scale, Radius: &radius}))

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, scale, got.Scale)
	assert.Equal(t, radius, got.Primitive.Radius)
	assert.Equal(t, Vec3{}, got.Position)
}

func TestUpdateFailures(t *testing.T) {
	s := NewStore()
	id, err := s.CreateSprite("hero", Vec3{})
	require.NoError(t, err)

	pos := Vec3{1, 2, 3}
	assert.ErrorIs(t, s.Update("ghost1", Patch{Position: &pos}), ErrNotFound)

	radius := 3.0
	assert.ErrorIs(t, s.Update(id, Patch{Radius: &radius}), ErrValidation)

	empty := ""
	assert.ErrorIs(t, s.Update(id, Patch{Key: &empty}), ErrValidation)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "hero", got.Sprite.Key)
}

func TestMoveAndScale(t *testing.T) {
	s := NewStore()
	id, err := s.Create(NewSprite("", "hero", Identity(Vec3{0, 0, 4})))
	require.NoError(t, err)

	require.NoError(t, s.MoveTo(id, 120, 80))
	require.NoError(t, s.ScaleBy(id, 1.5))

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, Vec3{120, 80, 4}, got.Position)
	assert.Equal(t, Vec3{1.5, 1.5, 1.5}, got.Scale)

	assert.ErrorIs(t, s.ScaleBy(id, 0), ErrValidation)
	assert.ErrorIs(t, s.MoveTo("nobody", 1, 1), ErrNotFound)
}

func TestRemove(t *testing.T) {
	s := NewStore()
	id, err := s.Create(redCircle())
	require.NoError(t, err)

	require.NoError(t, s.Remove(id))
	assert.False(t, s.Has(id))
	assert.ErrorIs(t, s.Remove(id), ErrNotFound)
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListIsACopy(t *testing.T) {
	s := NewStore()
	id, err := s.Create(redCircle())
	require.NoError(t, err)

	list := s.List()
	list[0].Position = Vec3{99, 99, 99}
	*list[0].Primitive.FillColor = 0x000001

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, Vec3{}, got.Position)
	assert.Equal(t, Color(0xff0000), *got.Primitive.FillColor)
}

func TestReplaceAllIsAtomic(t *testing.T) {
	s := NewStore()
	_, err := s.Create(redCircle())
	require.NoError(t, err)
	_, err = s.CreateSprite("hero", Vec3{5, 5, 0})
	require.NoError(t, err)
	before := s.List()

	hexagon := NewBox("hex1", "hexagon", 1, 1, 1, Identity(Vec3{}))
	batches := map[string][]Entity{
		"duplicate id": {
			NewSprite("a1", "a", Identity(Vec3{})),
			NewSprite("a1", "b", Identity(Vec3{})),
		},
		"unknown shape": {NewSprite("a1", "a", Identity(Vec3{})), hexagon},
		"empty id":      {NewSprite("", "a", Identity(Vec3{}))},
	}
	for name, batch := range batches {
		t.Run(name, func(t *testing.T) {
			err := s.ReplaceAll(batch)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, before, s.List())
		})
	}

	var ve *ValidationError
	require.ErrorAs(t, s.ReplaceAll(batches["unknown shape"]), &ve)
	assert.Equal(t, 1, ve.Index)
}

func TestReplaceAllInstallsNewSet(t *testing.T) {
	s := NewStore()
	_, err := s.Create(redCircle())
	require.NoError(t, err)

	batch := []Entity{
		NewBox("houseBody1", ShapeRectangle, 100, 80, 0x8b4513, Identity(Vec3{0, 40, 0})),
		NewBox("roof1", ShapeTriangle, 120, 60, 0xff0000, Identity(Vec3{0, -30, 0})),
	}
	require.NoError(t, s.ReplaceAll(batch))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "houseBody1", list[0].ID)
	assert.Equal(t, "roof1", list[1].ID)
	assert.False(t, s.Has("circle1"))

	// the caller's slice is not aliased by the store
	batch[0].Primitive.Width = 1
	got, err := s.Get("houseBody1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Primitive.Width)

	require.NoError(t, s.ReplaceAll(nil))
	assert.Equal(t, 0, s.Len())
}

func TestStorePublishesChanges(t *testing.T) {
	bus := events.New()
	var kinds []events.Kind
	bus.SubscribeAll(func(e events.Event) error {
		kinds = append(kinds, e.Kind)
		return nil
	})
	bus.Subscribe(events.KindEntityUpdated, func(events.Event) error {
		return errors.New("renderer hiccup")
	})

	s := NewStore(WithEvents(bus))
	id, err := s.Create(redCircle())
	require.NoError(t, err)
	require.NoError(t, s.MoveTo(id, 1, 2))
	require.NoError(t, s.Remove(id))
	require.NoError(t, s.ReplaceAll([]Entity{NewSprite("tree1", "tree", Identity(Vec3{}))}))

	// failed validation publishes nothing
	_, err = s.Create(NewSprite("tree1", "tree", Identity(Vec3{})))
	require.Error(t, err)

	assert.Equal(t, []events.Kind{
		events.KindEntityCreated,
		events.KindEntityUpdated,
		events.KindEntityRemoved,
		events.KindSceneReplaced,
	}, kinds)
}

func TestStoresAreIndependent(t *testing.T) {
	a, b := NewStore(), NewStore()
	for i := range 3 {
		idA, err := a.Create(redCircle())
		require.NoError(t, err)
		idB, err := b.Create(redCircle())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("circle%d", i+1), idA)
		assert.Equal(t, idA, idB)
	}
}

func TestIDGenerator(t *testing.T) {
	g := NewIDGenerator()
	taken := map[string]bool{"rock1": true, "rock2": true}

	assert.Equal(t, "rock3", g.Next("rock", func(id string) bool { return taken[id] }))
	assert.Equal(t, "rock4", g.Next("rock", nil))
	assert.Equal(t, "tree1", g.Next("tree", nil))
	assert.Equal(t, uint64(4), g.Peek("rock"))
	assert.Equal(t, uint64(0), g.Peek("bush"))
}
