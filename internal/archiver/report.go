package archiver

// Status classifies the outcome of one entry during an unarchive.
type Status int

const (
	// StatusExtracted means the entry's payload was written (or would
	// have been, in dry-run mode).
	StatusExtracted Status = iota
	// StatusSkipped means the overwrite policy declined the write.
	StatusSkipped
	// StatusFailed means the entry could not be extracted, typically a
	// truncated archive.
	StatusFailed
)

// Item is the per-entry outcome recorded in a Report.
type Item struct {
	Name   string
	Size   uint32
	Status Status
	Err    error // set when Status is StatusFailed
}

// Report collects the per-entry outcomes of unpacking one archive, so
// partial failures stay visible instead of disappearing into logs.
type Report struct {
	Archive string
	Items   []Item
}

// Failed returns how many entries could not be extracted.
func (r Report) Failed() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Extracted returns how many entries were written (or would have been
// in dry-run mode).
func (r Report) Extracted() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == StatusExtracted {
			n++
		}
	}
	return n
}
