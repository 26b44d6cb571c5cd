package state

import (
	"fmt"

	"github.com/samdwyer/farmbalance/internal/gamedata"
)

// Item is one owned piece of equipment.
type Item struct {
	ID         string        `json:"id"`
	Kind       gamedata.Kind `json:"kind"`
	Slot       string        `json:"slot"`
	Tier       int           `json:"tier,omitempty"`
	WeaponType string        `json:"weaponType,omitempty"`
	Attack     int           `json:"attack,omitempty"`
	Defense    int           `json:"defense,omitempty"`
	Level      int           `json:"level"`
	Equipped   bool          `json:"equipped"`
}

// Inventory holds owned tools, weapons and armor in acquisition order.
type Inventory struct {
	Items []*Item
}

// Add takes ownership of a catalog item. Weapons and armor are equipped
// automatically when their slot is empty. Adding an owned id returns the existing item.
func (inv *Inventory) Add(def *gamedata.ItemDef) *Item {
	if existing := inv.Get(def.ID); existing != nil {
		return existing
	}
	item := &Item{
		ID:         def.ID,
		Kind:       def.Kind,
		Slot:       def.Slot,
		Tier:       def.ToolTier,
		WeaponType: def.WeaponType,
		Attack:     def.Attack,
		Defense:    def.Defense,
		Level:      1,
	}
	if item.Slot == "" {
		item.Slot = string(def.Kind)
	}
	inv.Items = append(inv.Items, item)
	if inv.Equipped(item.Slot) == nil {
		item.Equipped = true
	}
	return item
}

// Get returns the owned item with the given id, or nil.
func (inv *Inventory) Get(id string) *Item {
	for _, item := range inv.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Owns reports whether an item is owned.
func (inv *Inventory) Owns(id string) bool {
	return inv.Get(id) != nil
}

// Equipped returns the item equipped in slot, or nil.
func (inv *Inventory) Equipped(slot string) *Item {
	for _, item := range inv.Items {
		if item.Slot == slot && item.Equipped {
			return item
		}
	}
	return nil
}

// Equip equips an owned item, unequipping whatever held its slot.
func (inv *Inventory) Equip(id string) error {
	item := inv.Get(id)
	if item == nil {
		return fmt.Errorf("cannot equip %q: not owned", id)
	}
	for _, other := range inv.Items {
		if other.Slot == item.Slot {
			other.Equipped = false
		}
	}
	item.Equipped = true
	return nil
}

// BestTier returns the highest tool tier owned for a slot, equipped or not.
func (inv *Inventory) BestTier(slot string) int {
	best := 0
	for _, item := range inv.Items {
		if item.Slot == slot && item.Tier > best {
			best = item.Tier
		}
	}
	return best
}

// InSlot returns owned items for a slot in acquisition order.
func (inv *Inventory) InSlot(slot string) []*Item {
	var result []*Item
	for _, item := range inv.Items {
		if item.Slot == slot {
			result = append(result, item)
		}
	}
	return result
}

// EquipItem equips an owned item and records the state change.
func (s *GameState) EquipItem(id string) error {
	if err := s.Inventory.Equip(id); err != nil {
		return err
	}
	s.touch()
	return nil
}

// AcquireItem adds a catalog item to the inventory.
func (s *GameState) AcquireItem(def *gamedata.ItemDef) *Item {
	owned := s.Inventory.Owns(def.ID)
	item := s.Inventory.Add(def)
	if !owned {
		s.touch()
	}
	return item
}
