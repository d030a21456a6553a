package citations

// fenceTracker follows ``` code fences across the raw answer text.
//
// Every third consecutive backtick toggles the fence, which matches a
// non-overlapping count of "```" over the whole text. The tracker is fed
// incrementally so the parity at any byte is known without rescanning.
type fenceTracker struct {
	open  bool
	run   int
	count int
}

// feed consumes one byte of raw text and reports whether it toggled the fence.
func (f *fenceTracker) feed(b byte) bool {
	if b != '`' {
		f.run = 0
		return false
	}
	f.run++
	if f.run < 3 {
		return false
	}
	f.run = 0
	f.count++
	f.open = !f.open
	return true
}

// write feeds a run of raw text.
func (f *fenceTracker) write(s string) {
	for i := 0; i < len(s); i++ {
		f.feed(s[i])
	}
}

// inCode reports whether the text fed so far ends inside an open fence.
func (f *fenceTracker) inCode() bool {
	return f.open
}
