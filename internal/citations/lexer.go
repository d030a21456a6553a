package citations

// lexState is the position of the processor relative to a citation marker.
type lexState int

const (
	// stateScanning copies plain text and looks for an opening bracket.
	stateScanning lexState = iota

	// statePartialMarker means the buffer ends inside something that may
	// still become a marker. The suffix is held for the next token.
	statePartialMarker

	// stateResolvingMarker means a complete marker was found and its
	// numbers are being mapped to documents.
	stateResolvingMarker
)

func (s lexState) String() string {
	switch s {
	case stateScanning:
		return "scanning"
	case statePartialMarker:
		return "partial"
	case stateResolvingMarker:
		return "resolving"
	default:
		return "unknown"
	}
}

// markerKind classifies the text starting at an opening bracket.
type markerKind int

const (
	// markerNone means the opening bracket is literal text.
	markerNone markerKind = iota

	// markerPartial means the input ended before the marker could be classified.
	markerPartial

	// markerUnresolved is [n] or [n, m, ...].
	markerUnresolved

	// markerResolved is [[n]] or [[n, m, ...]].
	markerResolved
)

// marker is the result of scanning from an opening bracket.
type marker struct {
	kind markerKind

	// size is the byte length of a complete marker.
	size int

	// numbers holds the digit runs inside a complete marker, in order.
	numbers []string
}

// complete reports whether the marker is a full unresolved or resolved marker.
func (m marker) complete() bool {
	return m.kind == markerUnresolved || m.kind == markerResolved
}

// state maps the scan result onto the processor's lexer state.
func (m marker) state() lexState {
	switch m.kind {
	case markerPartial:
		return statePartialMarker
	case markerUnresolved, markerResolved:
		return stateResolvingMarker
	default:
		return stateScanning
	}
}

// scanMarker classifies s, which must start with '['.
//
// One or two opening brackets may start a marker. A run of three or more
// is literal at its first bracket unless it reaches the end of the input,
// in which case more brackets or digits could still follow. Spaces are
// allowed after commas only.
func scanMarker(s string) marker {
	brackets := 0
	for brackets < len(s) && s[brackets] == '[' {
		brackets++
	}
	if brackets == len(s) {
		return marker{kind: markerPartial}
	}
	if brackets > 2 {
		return marker{kind: markerNone}
	}

	i := brackets
	var numbers []string
	for {
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == len(s) {
			return marker{kind: markerPartial}
		}
		if i == start {
			return marker{kind: markerNone}
		}
		numbers = append(numbers, s[start:i])

		if s[i] != ',' {
			break
		}
		i++
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i == len(s) {
			return marker{kind: markerPartial}
		}
	}

	if s[i] != ']' {
		return marker{kind: markerNone}
	}
	i++
	if brackets == 1 {
		return marker{kind: markerUnresolved, size: i, numbers: numbers}
	}

	// [[n] still needs its second closing bracket.
	if i == len(s) {
		return marker{kind: markerPartial}
	}
	if s[i] != ']' {
		return marker{kind: markerNone}
	}
	return marker{kind: markerResolved, size: i + 1, numbers: numbers}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
