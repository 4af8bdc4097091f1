// Package layout defines versioned storage-slot schemas and the
// compatibility check applied between consecutive releases.
//
// A schema is an ordered table of field → slot assignments followed by a
// reserved gap of unassigned slots. New releases may only append fields into
// the gap; a field's slot never moves once published. Diff enforces this
// between two schemas and is meant to run in CI (or the `tokengate layout`
// command), not at execution time.
package layout

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptySchema   = errors.New("layout: schema has no fields")
	ErrDuplicateSlot = errors.New("layout: duplicate slot assignment")
	ErrDuplicateName = errors.New("layout: duplicate field name")
	ErrNegativeGap   = errors.New("layout: negative gap")

	ErrFieldRemoved = errors.New("layout: field removed")
	ErrSlotMoved    = errors.New("layout: field slot moved")
	ErrTypeChanged  = errors.New("layout: field type changed")
	ErrGapMismatch  = errors.New("layout: gap does not shrink by fields added")
)

// Field is a single named slot assignment.
type Field struct {
	Name string `json:"name"`
	Slot int    `json:"slot"`
	Type string `json:"type"`
}

// Schema is the slot table published by one implementation version.
type Schema struct {
	Version string  `json:"version"`
	Fields  []Field `json:"fields"`
	Gap     int     `json:"gap"`
}

// Validate checks internal consistency: at least one field, unique names,
// unique slots, non-negative gap.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySchema, s.Version)
	}
	if s.Gap < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeGap, s.Version)
	}
	slots := make(map[int]string, len(s.Fields))
	names := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if names[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateName, f.Name)
		}
		names[f.Name] = true
		if prev, ok := slots[f.Slot]; ok {
			return fmt.Errorf("%w: slot %d held by %s and %s", ErrDuplicateSlot, f.Slot, prev, f.Name)
		}
		slots[f.Slot] = f.Name
	}
	return nil
}

// FieldByName returns the field with the given name, if present.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Sorted returns the fields ordered by slot.
func (s Schema) Sorted() []Field {
	out := make([]Field, len(s.Fields))
	copy(out, s.Fields)
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// Diff checks that next is a layout-compatible successor of prev.
//
// Rules:
//   - every field of prev exists in next, at the same slot and type;
//   - next.Gap == prev.Gap - (number of fields added in next).
func Diff(prev, next Schema) error {
	if err := prev.Validate(); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	for _, f := range prev.Fields {
		nf, ok := next.FieldByName(f.Name)
		if !ok {
			return fmt.Errorf("%w: %s (present in %s, missing in %s)", ErrFieldRemoved, f.Name, prev.Version, next.Version)
		}
		if nf.Slot != f.Slot {
			return fmt.Errorf("%w: %s moved from slot %d to %d", ErrSlotMoved, f.Name, f.Slot, nf.Slot)
		}
		if nf.Type != f.Type {
			return fmt.Errorf("%w: %s changed from %s to %s", ErrTypeChanged, f.Name, f.Type, nf.Type)
		}
	}

	added := len(next.Fields) - len(prev.Fields)
	if next.Gap != prev.Gap-added {
		return fmt.Errorf("%w: %s gap %d, %s gap %d, %d fields added",
			ErrGapMismatch, prev.Version, prev.Gap, next.Version, next.Gap, added)
	}
	return nil
}
