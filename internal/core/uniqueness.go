package core

import (
	"fmt"
	"reflect"
)

// absentValue marks a record that does not carry the identity field at all.
// It is distinct from nil and from "" so that comparison stays exact.
type absentValue struct{}

// DuplicateSet holds identity values that occur more than once in a record set.
type DuplicateSet struct {
	keys  map[any]struct{}
	order []any
}

// FindDuplicates returns the identity values of field that occur more than
// once in records. Comparison is exact: "1" and 1 differ, and "" differs
// from an absent field. Records that all lack the field, or all carry "",
// are duplicates of each other.
func FindDuplicates(records RecordSet, field string) DuplicateSet {
	counts := make(map[any]int, len(records))
	ds := DuplicateSet{keys: make(map[any]struct{})}

	for _, rec := range records {
		k := identityKey(rec, field)
		counts[k]++
		if counts[k] == 2 {
			ds.keys[k] = struct{}{}
			ds.order = append(ds.order, k)
		}
	}

	return ds
}

// Len returns the number of distinct duplicated values.
func (d DuplicateSet) Len() int {
	return len(d.order)
}

// Contains reports whether v (as found in a record) is duplicated.
// Use ContainsRecord to test a record whose identity field may be absent.
func (d DuplicateSet) Contains(v any) bool {
	_, ok := d.keys[comparableKey(v)]
	return ok
}

// ContainsRecord reports whether the identity value of rec is duplicated.
func (d DuplicateSet) ContainsRecord(rec Record, field string) bool {
	_, ok := d.keys[identityKey(rec, field)]
	return ok
}

// Values returns the duplicated values in order of their second occurrence.
// An absent identity is reported as nil.
func (d DuplicateSet) Values() []any {
	out := make([]any, len(d.order))
	for i, k := range d.order {
		if _, absent := k.(absentValue); absent {
			continue
		}
		out[i] = k
	}
	return out
}

func identityKey(rec Record, field string) any {
	v, ok := rec.Lookup(field)
	if !ok {
		return absentValue{}
	}
	return comparableKey(v)
}

// comparableKey guards the map against values that can not be hashed.
func comparableKey(v any) any {
	if v == nil {
		return nil
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%v", v, v)
}
