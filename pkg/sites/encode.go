package sites

// Encoder maps distinct string values to dense sequential integers in
// first-seen order, so identifier assignment from a user-supplied column is
// reproducible across runs on identical input.
type Encoder struct {
	codes map[string]int
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{codes: make(map[string]int)}
}

// Encode returns the dense code for v, assigning the next code (starting at
// 1) the first time a value is seen.
func (e *Encoder) Encode(v string) int {
	if code, ok := e.codes[v]; ok {
		return code
	}
	code := len(e.codes) + 1
	e.codes[v] = code
	return code
}

// Len returns the number of distinct values seen.
func (e *Encoder) Len() int { return len(e.codes) }
