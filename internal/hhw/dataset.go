package hhw

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gsabyss/internal/cycle"
	"gsabyss/internal/logging"
)

// ErrNotFound is returned when a floor, variant, or schedule period is absent.
var ErrNotFound = errors.New("not found in dataset")

// ScheduleEntry is one period of the schedule in declared order.
type ScheduleEntry struct {
	Key  string
	Item ScheduleItem
}

type floor struct {
	order    []string
	variants map[string]Variant
}

// Dataset is the decoded upstream document. It is read-only after Decode.
type Dataset struct {
	floors   map[int]floor
	schedule []ScheduleEntry
	byKey    map[string]int
}

// Decode parses a dataset document. Floor variants and schedule periods keep their
// declared order.
func Decode(doc []byte) (*Dataset, error) {
	top, err := decodeObject(doc)
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	ds := &Dataset{
		floors: make(map[int]floor),
		byKey:  make(map[string]int),
	}
	for _, f := range top {
		switch f.Key {
		case "Floor":
			if err := ds.decodeFloors(f.Value); err != nil {
				return nil, err
			}
		case "Schedule":
			if err := ds.decodeSchedule(f.Value); err != nil {
				return nil, err
			}
		}
	}
	return ds, nil
}

func (ds *Dataset) decodeFloors(data []byte) error {
	floors, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("decode floors: %w", err)
	}
	for _, f := range floors {
		n, err := strconv.Atoi(f.Key)
		if err != nil {
			return fmt.Errorf("invalid floor key %q: %w", f.Key, err)
		}
		variants, err := decodeObject(f.Value)
		if err != nil {
			return fmt.Errorf("decode floor %d: %w", n, err)
		}
		fl := floor{variants: make(map[string]Variant, len(variants))}
		for _, v := range variants {
			var variant Variant
			if err := json.Unmarshal(v.Value, &variant); err != nil {
				return fmt.Errorf("decode floor %d variant %s: %w", n, v.Key, err)
			}
			fl.order = append(fl.order, v.Key)
			fl.variants[v.Key] = variant
		}
		ds.floors[n] = fl
	}
	return nil
}

func (ds *Dataset) decodeSchedule(data []byte) error {
	items, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("decode schedule: %w", err)
	}
	for _, it := range items {
		var item ScheduleItem
		if err := json.Unmarshal(it.Value, &item); err != nil {
			return fmt.Errorf("decode schedule %s: %w", it.Key, err)
		}
		ds.byKey[it.Key] = len(ds.schedule)
		ds.schedule = append(ds.schedule, ScheduleEntry{Key: it.Key, Item: item})
	}
	return nil
}

// Schedule returns the periods in declared order.
func (ds *Dataset) Schedule() []ScheduleEntry {
	return ds.schedule
}

// ScheduleItem returns the period stored under key.
func (ds *Dataset) ScheduleItem(key string) (ScheduleItem, bool) {
	i, ok := ds.byKey[key]
	if !ok {
		return ScheduleItem{}, false
	}
	return ds.schedule[i].Item, true
}

// VariantKey resolves which variant of a floor is active for a period. Floors up to 8
// never rotate and always use their first variant.
func (ds *Dataset) VariantKey(floorNum int, key string) (string, bool) {
	fl, ok := ds.floors[floorNum]
	if !ok || len(fl.order) == 0 {
		return "", false
	}
	if floorNum <= 8 {
		return fl.order[0], true
	}
	item, ok := ds.ScheduleItem(key)
	if !ok {
		return "", false
	}
	id, ok := item.Arrangement[floorNum]
	if !ok {
		return "", false
	}
	return strconv.Itoa(id), true
}

// Variant returns the floor variant active for a period.
func (ds *Dataset) Variant(floorNum int, key string) (Variant, error) {
	vk, ok := ds.VariantKey(floorNum, key)
	if !ok {
		return Variant{}, fmt.Errorf("floor %d at %s: %w", floorNum, key, ErrNotFound)
	}
	v, ok := ds.floors[floorNum].variants[vk]
	if !ok {
		return Variant{}, fmt.Errorf("floor %d variant %s: %w", floorNum, vk, ErrNotFound)
	}
	return v, nil
}

// Floors returns the number of floors present.
func (ds *Dataset) Floors() int {
	return len(ds.floors)
}

// CorrectScheduleKeys rewrites the schedule keys of a raw document to canonical period
// keys, walking from anchor forward. Every other member is kept byte for byte so the
// result can be cached and decoded again.
func CorrectScheduleKeys(doc []byte, anchor time.Time) ([]byte, error) {
	top, err := decodeObject(doc)
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for i, f := range top {
		if f.Key != "Schedule" {
			continue
		}
		items, err := decodeObject(f.Value)
		if err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
		entries := make([]cycle.Entry[json.RawMessage], len(items))
		for j, it := range items {
			entries[j] = cycle.Entry[json.RawMessage]{Raw: it.Key, Value: it.Value}
		}

		fixed := cycle.Correct(entries, anchor, cycle.Forward)
		out := make([]field, len(fixed))
		for j, e := range fixed {
			out[j] = field{Key: cycle.Format(e.Key), Value: e.Value}
		}
		encoded, err := encodeObject(out)
		if err != nil {
			return nil, err
		}
		top[i].Value = encoded
		logging.Schedule("schedule corrected: %d periods from %s", len(out), cycle.Format(anchor))
	}
	return encodeObject(top)
}
