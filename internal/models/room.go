package models

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/navikt/roomfinder/internal/errs"
)

// DefaultRating is shown for rooms the source has not rated
const DefaultRating = 4.9

// Equipment is a facility a room may offer
type Equipment string

const (
	EquipmentSpeaker    Equipment = "speaker"
	EquipmentWhiteboard Equipment = "whiteboard"
	EquipmentMonitor    Equipment = "monitor"
	EquipmentHDMICable  Equipment = "hdmiCable"
)

// KnownEquipment lists the equipment kinds in display order
var KnownEquipment = []Equipment{EquipmentSpeaker, EquipmentWhiteboard, EquipmentMonitor, EquipmentHDMICable}

var equipmentAliases = map[string]Equipment{
	"speaker":         EquipmentSpeaker,
	"speakers":        EquipmentSpeaker,
	"speaker system":  EquipmentSpeaker,
	"whiteboard":      EquipmentWhiteboard,
	"monitor":         EquipmentMonitor,
	"display":         EquipmentMonitor,
	"monitor/display": EquipmentMonitor,
	"hdmicable":       EquipmentHDMICable,
	"hdmi_cable":      EquipmentHDMICable,
	"hdmi cable":      EquipmentHDMICable,
	"hdmi":            EquipmentHDMICable,
}

// ParseEquipment maps a user or source supplied name to an equipment kind
func ParseEquipment(name string) (Equipment, error) {
	e, ok := equipmentAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errs.Invalid("equipment", "unknown equipment "+name)
	}
	return e, nil
}

// EquipmentSet is a set of equipment kinds. It marshals as a sorted list.
type EquipmentSet map[Equipment]struct{}

// NewEquipmentSet builds a set from the given kinds
func NewEquipmentSet(items ...Equipment) EquipmentSet {
	set := make(EquipmentSet, len(items))
	for _, e := range items {
		set[e] = struct{}{}
	}
	return set
}

// Has reports whether e is in the set
func (s EquipmentSet) Has(e Equipment) bool {
	_, ok := s[e]
	return ok
}

// Covers reports whether s is a superset of required
func (s EquipmentSet) Covers(required EquipmentSet) bool {
	for e := range required {
		if !s.Has(e) {
			return false
		}
	}
	return true
}

// List returns the members in display order
func (s EquipmentSet) List() []Equipment {
	out := make([]Equipment, 0, len(s))
	for _, e := range KnownEquipment {
		if s.Has(e) {
			out = append(out, e)
		}
	}
	var extra []Equipment
	for e := range s {
		if !isKnown(e) {
			extra = append(extra, e)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

func isKnown(e Equipment) bool {
	for _, k := range KnownEquipment {
		if k == e {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the set as a list
func (s EquipmentSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON accepts a list of equipment names
func (s *EquipmentSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set := make(EquipmentSet, len(names))
	for _, n := range names {
		e, err := ParseEquipment(n)
		if err != nil {
			return err
		}
		set[e] = struct{}{}
	}
	*s = set
	return nil
}

// Room is a bookable room. Rooms are treated as immutable once loaded.
type Room struct {
	ID        string       `json:"roomId"`
	Name      string       `json:"roomName"`
	Type      string       `json:"roomType"`
	Capacity  int          `json:"capacity"`
	Location  string       `json:"location"`
	Equipment EquipmentSet `json:"equipment"`
	Rating    float64      `json:"rating,omitempty"`
	Image     string       `json:"image,omitempty"`
}

// Validate checks the fields every room must carry
func (r Room) Validate() error {
	if r.ID == "" {
		return errs.Invalid("roomId", "is required")
	}
	if r.Name == "" {
		return errs.Invalid("roomName", "is required")
	}
	if r.Capacity <= 0 {
		return errs.Invalid("capacity", "must be positive")
	}
	return nil
}

// WithDefaults fills the derived location and the default rating
func (r Room) WithDefaults() Room {
	if r.Location == "" {
		r.Location = LocationFromName(r.Name)
	}
	if r.Rating == 0 {
		r.Rating = DefaultRating
	}
	if r.Equipment == nil {
		r.Equipment = EquipmentSet{}
	}
	return r
}

// LocationFromName derives the building from a room name, "CB06.06.112" -> "Building CB06"
func LocationFromName(name string) string {
	code := name
	if len(code) > 4 {
		code = code[:4]
	}
	if code == "" {
		return ""
	}
	return "Building " + code
}
