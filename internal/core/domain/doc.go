// Package domain holds the entities shared by every layer of sercha-chat:
// indexed documents and their chunks, search results, the documents handed
// to the model for one answer, and the citation events streamed back.
//
// It imports only the standard library. Ports, services and adapters all
// depend on domain, never the reverse.
package domain
