package service

import (
	"strings"

	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return appErr.Invalidf("owner id is required")
	}
	return nil
}

func errCollectionNotFound(id string) error {
	return appErr.NotFoundf("collection %s", id)
}
