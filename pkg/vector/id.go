package vector

import (
	"strconv"

	"github.com/google/uuid"
)

// documentNamespace seeds deterministic document IDs.
var documentNamespace = uuid.MustParse("3f0d7c62-5f55-4c37-9a1e-2c8f0f6a9b10")

// DocumentID returns the stable ID of the document for a turn. IDs are
// UUIDs so that every backend, including qdrant, accepts them.
func DocumentID(conversationID string, turnNumber int) string {
	return uuid.NewSHA1(documentNamespace, []byte(conversationID+"/"+strconv.Itoa(turnNumber))).String()
}

// DefaultTopK is used when a query does not set TopK.
const DefaultTopK = 10
