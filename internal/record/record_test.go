package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check that every variant satisfies Value
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = String("s")
	var _ Value = Bytes{0x1}
	var _ Value = Date{Year: 2024, Month: time.March, Day: 1}
	var _ Value = TimestampOf(time.Unix(0, 0))
	var _ Value = Array{Int(1), String("a")}
}

func TestRecordSetPreservesOrder(t *testing.T) {
	r := New()
	r.Set("title", String("Animal Farm"))
	r.Set("isbn", String("123"))
	r.Set("rrp", Float(9.99))

	assert.Equal(t, []string{"title", "isbn", "rrp"}, r.Keys())
	assert.Equal(t, []Value{String("Animal Farm"), String("123"), Float(9.99)}, r.Values())
	assert.Equal(t, 3, r.Len())
}

func TestRecordSetExistingKeyKeepsPosition(t *testing.T) {
	r := New()
	r.Set("a", Int(1)).Set("b", Int(2)).Set("a", Int(3))

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(3), v)
}

func TestRecordSetNilStoresNull(t *testing.T) {
	r := New()
	r.Set("x", nil)

	v, ok := r.Get("x")
	require.True(t, ok)
	assert.Equal(t, Null{}, v)
}

func TestRecordDelete(t *testing.T) {
	r := New()
	r.Set("a", Int(1)).Set("b", Int(2)).Set("c", Int(3))
	r.Delete("b")
	r.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, r.Keys())
	assert.False(t, r.Has("b"))
}

func TestRecordEachKeysAndValuesCorrespond(t *testing.T) {
	r := New()
	r.Set("isbn", String("123")).Set("title", String("Animal Farm"))

	var keys []string
	var vals []Value
	r.Each(func(k string, v Value) {
		keys = append(keys, k)
		vals = append(vals, v)
	})

	assert.Equal(t, r.Keys(), keys)
	assert.Equal(t, r.Values(), vals)
}

func TestRecordCollectionName(t *testing.T) {
	r := New()
	assert.Empty(t, r.CollectionName())

	r.SetCollectionName("books_books")
	assert.Equal(t, "books_books", r.CollectionName())

	assert.Equal(t, "other", NewIn("other").CollectionName())
}

func TestRecordCloneIsIndependent(t *testing.T) {
	r := NewIn("books")
	r.Set("a", Int(1))

	c := r.Clone()
	c.Set("b", Int(2))
	c.SetCollectionName("x")

	assert.Equal(t, []string{"a"}, r.Keys())
	assert.Equal(t, "books", r.CollectionName())
	assert.Equal(t, []string{"a", "b"}, c.Keys())
}

func TestKeysReturnsCopy(t *testing.T) {
	r := New()
	r.Set("a", Int(1))
	keys := r.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"a"}, r.Keys())
}

func TestRecordSetEmptyEncodesAsArray(t *testing.T) {
	s := NewRecordSet()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "[]", s.Encode())

	var nilSet *RecordSet
	assert.Equal(t, 0, nilSet.Len())
}

func TestRecordSetEncodePreservesInsertionOrderAndDuplicates(t *testing.T) {
	a := New().Set("id", Int(1))
	b := New().Set("id", Int(2))

	s := NewRecordSet()
	s.Append(a)
	s.Append(b)
	s.Append(a)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, `[{"id":1},{"id":2},{"id":1}]`, s.Encode())
	assert.Same(t, b, s.At(1))
}

func TestRecordSetRecordsReturnsCopy(t *testing.T) {
	s := NewRecordSet()
	s.Append(New().Set("id", Int(1)))

	recs := s.Records()
	recs[0] = nil

	assert.NotNil(t, s.At(0))
}

func TestFromNative(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	testCases := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"int", 7, Int(7)},
		{"int32", int32(-3), Int(-3)},
		{"uint8", uint8(200), Int(200)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.25, Float(2.25)},
		{"string", "x", String("x")},
		{"bytes", []byte{1, 2}, Bytes{1, 2}},
		{"time", ts, TimestampOf(ts)},
		{"slice", []any{1, "a", nil}, Array{Int(1), String("a"), Null{}}},
		{"strings", []string{"a", "b"}, Array{String("a"), String("b")}},
		{"value passthrough", Int(9), Int(9)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromNative(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromNativeRejectsUnsupported(t *testing.T) {
	_, err := FromNative(struct{}{})
	assert.Error(t, err)

	_, err = FromNative(uint64(1 << 63))
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "Orwell", Text(String("Orwell")))
	assert.Equal(t, "5", Text(Int(5)))
	assert.Equal(t, "true", Text(Bool(true)))
	assert.Equal(t, "", Text(Null{}))
	assert.Equal(t, "2024-03-01", Text(Date{Year: 2024, Month: time.March, Day: 1}))
	assert.Equal(t, "2.0", Text(Float(2)))
}

func TestDateOf(t *testing.T) {
	d := DateOf(time.Date(1945, time.August, 17, 13, 0, 0, 0, time.UTC))
	assert.Equal(t, Date{Year: 1945, Month: time.August, Day: 17}, d)
	assert.Equal(t, "1945-08-17", d.String())
	assert.Equal(t, time.Date(1945, time.August, 17, 0, 0, 0, 0, time.UTC), d.Time())
}
