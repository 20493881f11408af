package parse

import (
	"context"
	"encoding/json"
)

// Extractor is the text-extraction collaborator: free text in, a JSON object
// loosely matching the filter schema out. It may time out, return malformed
// JSON, or invent keys; the service tolerates all of it.
type Extractor interface {
	ExtractFilters(ctx context.Context, query string) (json.RawMessage, error)
}
