// Package citations rewrites citation markers in a streamed LLM answer.
//
// The model is shown a numbered list of context documents and cites them
// inline as [n] or [n, m]. A Processor consumes the answer one token at a
// time and turns every valid marker into a display link of the form
// [[k]](url), where k is the number the user sees. Everything else is
// forwarded unchanged as soon as it can no longer be part of a marker.
//
// A Processor holds the state of exactly one answer. It never blocks and
// starts no goroutines. Callers that stream several answers concurrently
// create one Processor per answer.
//
// # Marker Grammar
//
//   - [n] and [n, m, ...] are unresolved markers. They are rewritten.
//   - [[n]] and [[n, m, ...]] are already resolved. They pass through
//     unchanged but still register citations.
//
// Numbers are 1-based positions in the context document list. Numbers
// outside the list are left in the text verbatim. Markers inside an open
// ``` code fence are never touched.
package citations
