package embedcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// cacheKey identifies one embedding: the same text embedded by another
// model or for another task type is a different vector.
type cacheKey struct {
	Model       string
	TaskType    string
	ContentHash string
}

func newCacheKey(modelName, taskType, text string) cacheKey {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	sum := sha256.Sum256([]byte(text))
	return cacheKey{
		Model:       modelName,
		TaskType:    taskType,
		ContentHash: hex.EncodeToString(sum[:]),
	}
}

func (k cacheKey) String() string {
	return "embed:" + k.Model + ":" + k.TaskType + ":" + k.ContentHash
}

func cloneVector(values []float32) []float32 {
	if values == nil {
		return nil
	}
	out := make([]float32, len(values))
	copy(out, values)
	return out
}
