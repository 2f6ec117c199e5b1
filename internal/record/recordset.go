package record

import "bytes"

// RecordSet is the ordered result of a retrieval.
// A zero-length RecordSet means "no match" and encodes as [].
type RecordSet struct {
	records []*Record
}

// NewRecordSet creates an empty RecordSet.
func NewRecordSet() *RecordSet {
	return &RecordSet{records: []*Record{}}
}

// Append adds r to the end of the set. Duplicates are kept.
func (s *RecordSet) Append(r *Record) {
	s.records = append(s.records, r)
}

// Len returns the number of records.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the i-th record.
func (s *RecordSet) At(i int) *Record {
	return s.records[i]
}

// Records returns the records in order. The returned slice is a copy.
func (s *RecordSet) Records() []*Record {
	if s == nil {
		return []*Record{}
	}
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// MarshalJSON encodes the set as a JSON array of flat objects.
func (s *RecordSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	if s != nil {
		for i, r := range s.records {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := r.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Encode returns the JSON array text of the set.
func (s *RecordSet) Encode() string {
	b, _ := s.MarshalJSON() // Record.MarshalJSON never fails
	return string(b)
}
