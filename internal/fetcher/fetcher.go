package fetcher

import "context"

// Fetcher is the fetch collaborator the extraction core consumes. The
// core never initiates network I/O itself; callers hand it fully
// rendered UTF-8 HTML obtained through an implementation of this
// interface (or a browser pipeline out of this repo's scope).
type Fetcher interface {
	// FetchHTML retrieves one page and returns its body as a string.
	FetchHTML(ctx context.Context, url string) (string, error)
}

// SessionCache is a caller-owned URL→HTML cache passed into batch
// scraping, so repeated references to one listing within a session cost
// one fetch. It is plain data on purpose: the extractor never reads
// module-level mutable state.
type SessionCache map[string]string
