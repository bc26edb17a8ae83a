package vaultmesh

import "github.com/synnergy-network/vaultmesh/xoraddr"

// ClientEventKind tags the kind of progress event a Client reports on its
// optional event channel.
type ClientEventKind int

const (
	// EventUploadComplete is emitted once after a DataPut's upload pipeline
	// run, whether or not every chunk succeeded.
	EventUploadComplete ClientEventKind = iota
)

// UploadSummary reports the outcome of one DataPut's upload pipeline run:
// how many chunks were attempted, skipped as already paid, and left
// failed after every retry pass. Supplements the core spec with the
// progress reporting the original client surfaces to callers uploading
// large blobs.
type UploadSummary struct {
	DataMapAddress xoraddr.Address
	ChunksTotal    int
	ChunksSkipped  int
	ChunksFailed   int
}

// ClientEvent is one message on a Client's optional event channel.
type ClientEvent struct {
	Kind    ClientEventKind
	Summary UploadSummary
}

// emit sends ev on the client's event channel without blocking if the
// caller never drains it or never configured one.
func (c *Client) emit(ev ClientEvent) {
	if c.Events == nil {
		return
	}
	select {
	case c.Events <- ev:
	default:
	}
}
