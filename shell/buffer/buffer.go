// Package buffer implements the owned, length/capacity-tracked buffers
// that cross the library boundary. One generic type replaces the whole
// per-element-type wrapper family: copy-in construction, slice views,
// deep copies and an explicit, idempotent release.
package buffer

// Buffer owns a contiguous allocation of T. After Release the buffer is
// poisoned: views are nil and appends are dropped.
type Buffer[T any] struct {
	items    []T
	released bool
}

// FromSlice copies src into a freshly owned allocation.
func FromSlice[T any](src []T) *Buffer[T] {
	items := make([]T, len(src))
	copy(items, src)
	return &Buffer[T]{items: items}
}

// WithCapacity returns an empty buffer that can hold n elements
// before reallocating.
func WithCapacity[T any](n int) *Buffer[T] {
	return &Buffer[T]{items: make([]T, 0, n)}
}

// View returns the live element slice. The slice is borrowed: it is
// invalidated by Append and by Release.
func (b *Buffer[T]) View() []T {
	if b.released {
		return nil
	}
	return b.items
}

func (b *Buffer[T]) Len() int {
	if b.released {
		return 0
	}
	return len(b.items)
}

func (b *Buffer[T]) Cap() int {
	if b.released {
		return 0
	}
	return cap(b.items)
}

// Append grows the buffer, doubling capacity when exhausted.
func (b *Buffer[T]) Append(vs ...T) {
	if b.released {
		return
	}
	b.items = append(b.items, vs...)
}

// DeepCopy returns a new buffer owning a copy of the elements.
// Copying a released buffer yields an empty, live buffer.
func (b *Buffer[T]) DeepCopy() *Buffer[T] {
	return FromSlice(b.View())
}

// Release drops the allocation. Safe to call more than once.
func (b *Buffer[T]) Release() {
	b.items = nil
	b.released = true
}

// Released reports whether the buffer has been released.
func (b *Buffer[T]) Released() bool { return b.released }
