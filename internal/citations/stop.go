package citations

import "strings"

// stopMatcher truncates the stream at a stop sequence that may be split
// across any number of tokens.
type stopMatcher struct {
	seq  string
	hold string
}

// push adds a token and returns the text that is safe to process.
// hit is true once the stop sequence has been seen; the returned text is
// then everything before it.
func (m *stopMatcher) push(token string) (text string, hit bool) {
	if m.seq == "" {
		return token, false
	}

	buf := m.hold + token
	if i := strings.Index(buf, m.seq); i >= 0 {
		m.hold = ""
		return buf[:i], true
	}

	keep := prefixSuffixLen(buf, m.seq)
	m.hold = buf[len(buf)-keep:]
	return buf[:len(buf)-keep], false
}

// flush releases a held partial stop sequence that never completed.
func (m *stopMatcher) flush() string {
	held := m.hold
	m.hold = ""
	return held
}

// prefixSuffixLen returns the length of the longest suffix of s that is a
// strict prefix of seq.
func prefixSuffixLen(s, seq string) int {
	n := min(len(seq)-1, len(s))
	for ; n > 0; n-- {
		if strings.HasSuffix(s, seq[:n]) {
			return n
		}
	}
	return 0
}
