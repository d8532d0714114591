package entity

import (
	"strings"
	"time"
)

// GeneralNamespace is the reserved first key segment for images that belong
// to no specific user. It is never stored as an owner id.
const GeneralNamespace = "general"

// ImageRecord is one version of a stored image's metadata. Identity is the
// composite (ObjectKey, CreatedAt): re-uploads under the same key coexist as
// distinct versions.
type ImageRecord struct {
	ObjectKey string    `json:"object_key"`
	CreatedAt time.Time `json:"created_at"`

	BucketName  string `json:"bucket_name"`
	FileName    string `json:"file_name"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`

	OwnerID *string `json:"owner_id,omitempty"`

	InferenceResults []Label       `json:"inference_results,omitempty"`
	Classification   *PairwiseRule `json:"recyclability_classification,omitempty"`
}

// Label is one ranked result from the labeling oracle. Confidence is a
// percentage in [0, 100].
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// SplitObjectKey derives the owner and file name from an object key of the
// form {owner|general}/{...}/{file}. Owner is nil for the general namespace.
func SplitObjectKey(objectKey string) (owner *string, fileName string) {
	parts := strings.Split(objectKey, "/")

	fileName = parts[len(parts)-1]

	if parts[0] != GeneralNamespace && parts[0] != "" && len(parts) > 1 {
		owner = &parts[0]
	}

	return owner, fileName
}
