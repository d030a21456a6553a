// Package xapian opens a Xapian database read-only as a driven.SearchEngine.
//
// Build requires:
//   - Xapian development libraries (apt install libxapian-dev, or
//     brew install xapian)
//   - the sercha xapian_wrapper.h on CGO_CPPFLAGS
package xapian
