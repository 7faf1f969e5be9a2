package record

// MapAdapter adapts a plain Go map into a Source. Source requires a
// reference type so two observations of "the same" record share identity;
// a bare map[string]any satisfies neither requirement in general (its
// address isn't stable enough for runtime.SetFinalizer), so callers
// construct one *MapAdapter per logical record and observe the pointer.
type MapAdapter struct {
	data      map[string]any
	prototype *MapAdapter
}

// NewMap wraps data (or a fresh empty map, if data is nil) as a Source.
func NewMap(data map[string]any) *MapAdapter {
	if data == nil {
		data = map[string]any{}
	}
	return &MapAdapter{data: data}
}

func (m *MapAdapter) Get(key Key) (any, bool) {
	k, ok := key.(string)
	if !ok {
		return nil, false
	}
	v, ok := m.data[k]
	return v, ok
}

func (m *MapAdapter) Set(key Key, value any) {
	k, ok := key.(string)
	if !ok {
		return
	}
	m.data[k] = value
}

func (m *MapAdapter) Delete(key Key) {
	k, ok := key.(string)
	if !ok {
		return
	}
	delete(m.data, k)
}

func (m *MapAdapter) Keys() []Key {
	keys := make([]Key, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// SetPrototype installs the record m inherits from when Options.Prototypes
// is enabled. Pass nil to clear it.
func (m *MapAdapter) SetPrototype(parent *MapAdapter) {
	m.prototype = parent
}

func (m *MapAdapter) Prototype() (any, bool) {
	if m.prototype == nil {
		return nil, false
	}
	return m.prototype, true
}

// SliceAdapter adapts a plain Go slice into a Sequence, for the same
// reference-identity reason MapAdapter exists.
type SliceAdapter struct {
	data []any
}

// NewSlice wraps data as a Sequence.
func NewSlice(data []any) *SliceAdapter {
	return &SliceAdapter{data: data}
}

func (s *SliceAdapter) Get(key Key) (any, bool) {
	i, ok := key.(int)
	if !ok || i < 0 || i >= len(s.data) {
		return nil, false
	}
	return s.data[i], true
}

func (s *SliceAdapter) Set(key Key, value any) {
	i, ok := key.(int)
	if !ok || i < 0 {
		return
	}
	for i >= len(s.data) {
		s.data = append(s.data, nil)
	}
	s.data[i] = value
}

func (s *SliceAdapter) Delete(key Key) {
	i, ok := key.(int)
	if !ok || i < 0 || i >= len(s.data) {
		return
	}
	s.data = append(s.data[:i], s.data[i+1:]...)
}

func (s *SliceAdapter) Keys() []Key {
	keys := make([]Key, len(s.data))
	for i := range s.data {
		keys[i] = i
	}
	return keys
}

func (s *SliceAdapter) Len() int { return len(s.data) }

// SetLen grows or truncates the sequence to n elements, zero-filling on
// growth. Always takes effect, even when n equals the current length,
// matching the pseudo "length" key's always-significant write semantics.
func (s *SliceAdapter) SetLen(n int) {
	switch {
	case n < 0:
		return
	case n < len(s.data):
		s.data = s.data[:n]
	case n > len(s.data):
		s.data = append(s.data, make([]any, n-len(s.data))...)
	}
}

// Values returns the underlying slice.
func (s *SliceAdapter) Values() []any { return s.data }
