package directory

import (
	"strings"

	"github.com/navikt/roomfinder/internal/models"
)

// Predicate selects rooms
type Predicate func(models.Room) bool

// Criteria are the static room filters. Zero values match everything.
type Criteria struct {
	Equipment      models.EquipmentSet
	BuildingPrefix string
	MinCapacity    int
}

// Predicates returns the active filters of c
func (c Criteria) Predicates() []Predicate {
	var preds []Predicate
	if len(c.Equipment) > 0 {
		preds = append(preds, HasEquipment(c.Equipment))
	}
	if c.BuildingPrefix != "" {
		preds = append(preds, InBuilding(c.BuildingPrefix))
	}
	if c.MinCapacity > 0 {
		preds = append(preds, MinCapacity(c.MinCapacity))
	}
	return preds
}

// Apply filters rooms by every active criterion
func (c Criteria) Apply(rooms []models.Room) []models.Room {
	return Filter(rooms, c.Predicates()...)
}

// Filter keeps the rooms that satisfy all predicates, in their original order.
// The input slice is not modified.
func Filter(rooms []models.Room, preds ...Predicate) []models.Room {
	out := make([]models.Room, 0, len(rooms))
next:
	for _, room := range rooms {
		for _, p := range preds {
			if !p(room) {
				continue next
			}
		}
		out = append(out, room)
	}
	return out
}

// HasEquipment matches rooms whose equipment is a superset of required
func HasEquipment(required models.EquipmentSet) Predicate {
	return func(r models.Room) bool {
		return r.Equipment.Covers(required)
	}
}

// InBuilding matches rooms whose name starts with prefix, ignoring case
func InBuilding(prefix string) Predicate {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	return func(r models.Room) bool {
		return strings.HasPrefix(strings.ToUpper(r.Name), prefix)
	}
}

// MinCapacity matches rooms seating at least n people
func MinCapacity(n int) Predicate {
	return func(r models.Room) bool {
		return r.Capacity >= n
	}
}

// FilterByEquipment keeps rooms offering every required item
func FilterByEquipment(rooms []models.Room, required models.EquipmentSet) []models.Room {
	return Filter(rooms, HasEquipment(required))
}

// FilterByBuildingPrefix keeps rooms whose name starts with prefix
func FilterByBuildingPrefix(rooms []models.Room, prefix string) []models.Room {
	return Filter(rooms, InBuilding(prefix))
}
