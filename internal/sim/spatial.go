package sim

import (
	"math"
	"sort"

	"github.com/solarlune/resolv"

	"hero-arena/server/internal/state"
	"hero-arena/server/internal/world"
)

const (
	tagCombatant    = "combatant"
	tagProbe        = "probe"
	spatialCellSize = 64
)

// spatialIndex is the broad phase for hit and pickup tests. Combatants are
// point objects; queries drop a square probe into the space and return the ids
// in the touched cells, which callers then filter with an exact distance test.
type spatialIndex struct {
	space   *resolv.Space
	objects map[string]*resolv.Object
}

func newSpatialIndex(width, height float64) *spatialIndex {
	// resolv only allocates whole cells, so round up and keep one spare cell
	// for positions sitting exactly on the far edge.
	w := (int(math.Ceil(width))/spatialCellSize + 1) * spatialCellSize
	h := (int(math.Ceil(height))/spatialCellSize + 1) * spatialCellSize
	return &spatialIndex{
		space:   resolv.NewSpace(w, h, spatialCellSize, spatialCellSize),
		objects: make(map[string]*resolv.Object),
	}
}

// sync moves c's object to its current position, adding it if needed.
func (s *spatialIndex) sync(c *state.Combatant) {
	obj, ok := s.objects[c.ID]
	if !ok {
		obj = resolv.NewObject(c.Position.X, c.Position.Y, 1, 1, tagCombatant)
		obj.SetShape(resolv.NewRectangle(0, 0, 1, 1))
		obj.Data = c.ID
		s.space.Add(obj)
		s.objects[c.ID] = obj
		return
	}
	if obj.X == c.Position.X && obj.Y == c.Position.Y {
		return
	}
	obj.X = c.Position.X
	obj.Y = c.Position.Y
	obj.Update()
}

func (s *spatialIndex) remove(id string) {
	obj, ok := s.objects[id]
	if !ok {
		return
	}
	s.space.Remove(obj)
	delete(s.objects, id)
}

// near returns the ids of combatants that may lie within radius of center,
// sorted ascending.
func (s *spatialIndex) near(center world.Vec2, radius float64) []string {
	size := 2*radius + 2
	probe := resolv.NewObject(center.X-radius-1, center.Y-radius-1, size, size, tagProbe)
	s.space.Add(probe)
	defer s.space.Remove(probe)

	check := probe.Check(0, 0, tagCombatant)
	if check == nil {
		return nil
	}
	objects := check.ObjectsByTags(tagCombatant)
	ids := make([]string, 0, len(objects))
	for _, obj := range objects {
		if id, ok := obj.Data.(string); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return dedupeSorted(ids)
}

func dedupeSorted(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
