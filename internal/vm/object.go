package vm

import "cinder/internal/arena"

// Object is a heap cell: a value plus the bookkeeping the collector needs.
// Objects are owned exclusively by the heap and never duplicated. The mark
// bit has no meaning outside a collection cycle and is false whenever
// Collect is not running.
type Object struct {
	Self   arena.Index // the object's own identity in the heap
	Marked bool
	Value  Value
}

// Children returns the heap references held by the object's value.
func (o *Object) Children() []arena.Index {
	return o.Value.Children()
}
