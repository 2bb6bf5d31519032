package directory

import (
	"context"

	"github.com/navikt/roomfinder/internal/models"
)

// StaticSource serves a fixed room list
type StaticSource struct {
	rooms []models.Room
}

// NewStaticSource returns a source that always loads rooms
func NewStaticSource(rooms []models.Room) *StaticSource {
	return &StaticSource{rooms: rooms}
}

// Load returns a copy of the configured rooms
func (s *StaticSource) Load(ctx context.Context) ([]models.Room, error) {
	out := make([]models.Room, len(s.rooms))
	copy(out, s.rooms)
	return out, nil
}

func campusRoom(id, name, kind string, capacity int, speaker, whiteboard, monitor, hdmi bool) models.Room {
	eq := models.EquipmentSet{}
	if speaker {
		eq[models.EquipmentSpeaker] = struct{}{}
	}
	if whiteboard {
		eq[models.EquipmentWhiteboard] = struct{}{}
	}
	if monitor {
		eq[models.EquipmentMonitor] = struct{}{}
	}
	if hdmi {
		eq[models.EquipmentHDMICable] = struct{}{}
	}
	return models.Room{ID: id, Name: name, Type: kind, Capacity: capacity, Equipment: eq}
}

// CampusRooms is the built-in catalog used when no room source is configured
func CampusRooms() []models.Room {
	return []models.Room{
		campusRoom("1", "CB06.06.112", "Group Study Room", 8, true, true, true, true),
		campusRoom("2", "CB06.06.113", "Group Study Room", 8, false, false, true, true),
		campusRoom("3", "CB07.02.010A", "Online Learning Room", 2, false, false, true, true),
		campusRoom("4", "CB07.02.010B", "Online Learning Room", 2, true, false, true, true),
		campusRoom("5", "CB06.03.205", "Group Study Room", 12, true, true, true, true),
		campusRoom("6", "CB06.03.206", "Group Study Room", 10, false, true, true, true),
		campusRoom("7", "CB08.01.115", "Lecture Room", 50, true, true, true, true),
		campusRoom("8", "CB08.01.116", "Lecture Room", 40, true, true, false, true),
		campusRoom("9", "CB07.04.020A", "Online Learning Room", 4, true, false, true, true),
		campusRoom("10", "CB07.04.020B", "Online Learning Room", 4, false, false, true, false),
		campusRoom("11", "CB09.02.301", "Conference Room", 16, true, true, true, true),
		campusRoom("12", "CB09.02.302", "Conference Room", 20, true, true, true, true),
		campusRoom("13", "CB05.01.108", "Computer Lab", 24, false, true, true, true),
		campusRoom("14", "CB05.01.109", "Computer Lab", 28, false, true, true, true),
		campusRoom("15", "CB06.05.220", "Group Study Room", 6, false, true, false, true),
	}
}
