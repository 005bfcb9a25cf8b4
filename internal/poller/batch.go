package poller

// Batch is an ordered list of records awaiting a write.
//
// The zero value is an empty batch ready for use.
type Batch struct {
	records []Record
}

// Append adds a record to the end of the batch.
func (b *Batch) Append(r Record) {
	b.records = append(b.records, r)
}

// Len returns the number of pending records.
func (b *Batch) Len() int {
	return len(b.records)
}

// Records returns a copy of the pending records in insertion order.
func (b *Batch) Records() []Record {
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Clear empties the batch.
func (b *Batch) Clear() {
	b.records = nil
}

// Trim discards the oldest records until at most max remain and returns how
// many were discarded. A max below zero is treated as zero.
func (b *Batch) Trim(max int) int {
	if max < 0 {
		max = 0
	}
	excess := len(b.records) - max
	if excess <= 0 {
		return 0
	}
	kept := make([]Record, max)
	copy(kept, b.records[excess:])
	b.records = kept
	return excess
}
