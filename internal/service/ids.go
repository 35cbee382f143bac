package service

import (
	"strings"

	"github.com/google/uuid"
)

const storageHandlePrefix = "tbl_"

// newStorageHandle returns a segment name that is a valid SQL identifier:
// a letter prefix followed by 32 lowercase hex digits.
func newStorageHandle() string {
	return storageHandlePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// isCollectionID rejects ids that can never match a collection row.
func isCollectionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
