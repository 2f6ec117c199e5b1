package record

// Record is one persisted entity: an ordered mapping of unique field names
// to values, tagged with the collection it belongs to.
//
// The collection tag is empty until a Model accepts the record for creation.
// Records perform no validation; field whitelisting is the Model's job.
type Record struct {
	collection string
	keys       []string
	values     map[string]Value
}

// New creates an empty Record with no collection tag.
func New() *Record {
	return &Record{values: make(map[string]Value)}
}

// NewIn creates an empty Record tagged with the given collection.
func NewIn(collection string) *Record {
	r := New()
	r.collection = collection
	return r
}

// CollectionName returns the collection tag, or "" if none was set.
func (r *Record) CollectionName() string {
	return r.collection
}

// SetCollectionName overwrites the collection tag.
func (r *Record) SetCollectionName(name string) {
	r.collection = name
}

// Set assigns v to key. A new key is appended to the end of the field
// order; an existing key keeps its position. A nil v is stored as Null.
func (r *Record) Set(key string, v Value) *Record {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if v == nil {
		v = Null{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Delete removes key, preserving the order of the remaining fields.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Values returns the field values in the same order as Keys.
func (r *Record) Values() []Value {
	vals := make([]Value, len(r.keys))
	for i, k := range r.keys {
		vals[i] = r.values[k]
	}
	return vals
}

// Each calls fn for every field in order. Keys and values passed to fn
// always correspond positionally.
func (r *Record) Each(fn func(key string, v Value)) {
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// Clone returns a copy of the record. Values are shared; they are immutable
// apart from Bytes and Array, which callers must not mutate.
func (r *Record) Clone() *Record {
	c := &Record{
		collection: r.collection,
		keys:       make([]string, len(r.keys)),
		values:     make(map[string]Value, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}
