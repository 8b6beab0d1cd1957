package scene

// invalidIndex fills sparse lookup slots that map to no packed element.
const invalidIndex = ^uint32(0)

// Store is a sparse-set component store: component values are kept in a
// packed dense array, with a sparse entity->index lookup grown on demand.
// Removal swaps the last packed element into the freed slot so iteration
// stays dense and removal is O(1).
//
// The zero value is an empty store ready for use.
type Store[T any] struct {
	dense    []T
	entities []Entity
	sparse   []uint32
}

// Len returns the number of stored components.
func (s *Store[T]) Len() int { return len(s.dense) }

// Has reports whether e has a component in this store.
func (s *Store[T]) Has(e Entity) bool {
	return uint32(e) < uint32(len(s.sparse)) && s.sparse[e] != invalidIndex
}

// Get returns a pointer to e's component, or nil if absent. The pointer is
// invalidated by the next Add or Remove.
func (s *Store[T]) Get(e Entity) *T {
	if !s.Has(e) {
		return nil
	}
	return &s.dense[s.sparse[e]]
}

// Add ensures e has a component and returns a pointer to it. If e already
// has one the existing component is returned unchanged; otherwise a
// zero-value component is appended.
func (s *Store[T]) Add(e Entity) *T {
	if p := s.Get(e); p != nil {
		return p
	}
	s.ensure(e)
	s.sparse[e] = uint32(len(s.dense))
	var zero T
	s.dense = append(s.dense, zero)
	s.entities = append(s.entities, e)
	return &s.dense[len(s.dense)-1]
}

// Remove deletes e's component if present. The last packed element is
// swapped into the freed slot and its sparse entry updated.
func (s *Store[T]) Remove(e Entity) {
	if !s.Has(e) {
		return
	}
	idx := s.sparse[e]
	last := uint32(len(s.dense) - 1)
	if idx != last {
		s.dense[idx] = s.dense[last]
		moved := s.entities[last]
		s.entities[idx] = moved
		s.sparse[moved] = idx
	}
	s.dense = s.dense[:last]
	s.entities = s.entities[:last]
	s.sparse[e] = invalidIndex
}

// Clear drops every component but keeps allocated capacity.
func (s *Store[T]) Clear() {
	s.dense = s.dense[:0]
	s.entities = s.entities[:0]
	for i := range s.sparse {
		s.sparse[i] = invalidIndex
	}
}

// ensure grows the sparse lookup to cover e.
func (s *Store[T]) ensure(e Entity) {
	for uint32(len(s.sparse)) <= uint32(e) {
		s.sparse = append(s.sparse, invalidIndex)
	}
}
