package lifecycle

import (
	"fmt"
	"strings"

	"github.com/lyipi/4bpchoquecoe/internal/model"
)

// Slot a role position on a roster.
type Slot struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Layout the ordered slots a roster may fill.
type Layout []Slot

// ShiftLayout boat crew of a duty shift.
var ShiftLayout = Layout{
	{Key: "boat_chief", Label: "Chefe de Barca", Required: true},
	{Key: "driver", Label: "Motorista", Required: true},
	{Key: "aux_1", Label: "1º Auxiliar", Required: true},
	{Key: "aux_2", Label: "2º Auxiliar"},
	{Key: "aux_3", Label: "3º Auxiliar"},
}

// ReportLayout team captured on an incident report.
var ReportLayout = Layout{
	{Key: "encarregado", Label: "Encarregado", Required: true},
	{Key: "motorista", Label: "Motorista", Required: true},
	{Key: "terceiro_homem", Label: "3º Homem", Required: true},
	{Key: "quarto_homem", Label: "4º Homem"},
	{Key: "quinto_homem", Label: "5º Homem"},
}

// Has reports whether key names a slot of the layout.
func (l Layout) Has(key string) bool {
	_, ok := l.slot(key)
	return ok
}

func (l Layout) slot(key string) (Slot, bool) {
	for _, s := range l {
		if s.Key == key {
			return s, true
		}
	}
	return Slot{}, false
}

// Validate checks a roster about to be submitted together with its unit tag.
// Checks run in order: unit tag, unknown slots, required slots, duplicates.
func (l Layout) Validate(unitTag string, roster model.Roster) error {
	if strings.TrimSpace(unitTag) == "" {
		return ErrMissingUnitTag
	}
	for key := range roster {
		if !l.Has(key) {
			return fmt.Errorf("%w: %s", ErrUnknownSlot, key)
		}
	}
	var missing []string
	for _, s := range l {
		if s.Required && roster[s.Key].ID == "" {
			missing = append(missing, s.Key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteRoster, strings.Join(missing, ", "))
	}
	seen := make(map[string]string, len(roster))
	for _, s := range l {
		m, ok := roster[s.Key]
		if !ok || m.ID == "" {
			continue
		}
		if other, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: %s in %s and %s", ErrDuplicateMember, m.ID, other, s.Key)
		}
		seen[m.ID] = s.Key
	}
	return nil
}

// Assign returns a copy of roster with member placed in slot.
func (l Layout) Assign(roster model.Roster, slot string, member model.Member) (model.Roster, error) {
	if !l.Has(slot) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	if strings.TrimSpace(member.ID) == "" {
		return nil, ErrInvalidMember
	}
	for key, m := range roster {
		if key != slot && m.ID == member.ID {
			return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateMember, member.ID, key)
		}
	}
	next := roster.Clone()
	next[slot] = member
	return next, nil
}

// Clear returns a copy of roster without slot.
func (l Layout) Clear(roster model.Roster, slot string) (model.Roster, error) {
	if !l.Has(slot) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	next := roster.Clone()
	delete(next, slot)
	return next, nil
}

// Ordered lists filled slots in layout order, each member tagged with its slot.
func (l Layout) Ordered(roster model.Roster) []SlotMember {
	out := make([]SlotMember, 0, len(roster))
	for _, s := range l {
		if m, ok := roster[s.Key]; ok && m.ID != "" {
			out = append(out, SlotMember{Slot: s, Member: m})
		}
	}
	return out
}

// SlotMember a filled slot.
type SlotMember struct {
	Slot   Slot
	Member model.Member
}
