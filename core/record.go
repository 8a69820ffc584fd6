package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// VectorRecord is a single record in one namespace of the external vector
// store: the raw text plus its scalar metadata. Records are only persisted
// after their metadata passes schema validation for the namespace.
type VectorRecord struct {
	Text      string    `json:"text"`
	Namespace Namespace `json:"namespace"`
	Metadata  Metadata  `json:"metadata"`
}

// Identity derives the deduplication identity for the record:
// artifact_id when present, else doc_id plus chunk index, else a content
// hash. Two records sharing (namespace, identity) are considered duplicates.
func (r VectorRecord) Identity() string {
	if id := r.Metadata.String(KeyArtifactID); id != "" {
		return id
	}
	if doc := r.Metadata.String(KeyDocID); doc != "" {
		return fmt.Sprintf("%s#%v", doc, chunkIndex(r.Metadata))
	}
	sum := sha256.Sum256([]byte(string(r.Namespace) + "\x00" + r.Text))
	return hex.EncodeToString(sum[:16])
}

// DedupeKey combines namespace and identity into the full merge key.
func (r VectorRecord) DedupeKey() string {
	return string(r.Namespace) + "/" + r.Identity()
}

// chunkIndex tolerates the numeric representations a JSON round-trip can
// produce for the chunk_index field.
func chunkIndex(m Metadata) int {
	switch v := m[KeyChunkIndex].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
