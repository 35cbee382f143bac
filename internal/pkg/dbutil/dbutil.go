package dbutil

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

var limitRegex = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Finalize turns a gendry-built query into postgres form: LIMIT ?,? becomes
// LIMIT ? OFFSET ? and placeholders are rebound to $n.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	loc := limitRegex.FindStringIndex(query)
	if loc != nil {
		prefix := query[:loc[0]]
		qCount := strings.Count(prefix, "?")
		if qCount+1 < len(args) {
			args[qCount], args[qCount+1] = args[qCount+1], args[qCount]
			query = limitRegex.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

func IsConflict(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// Wrap classifies an error returned by the backing store. Unique violations
// become ErrConflict, sql.ErrNoRows becomes ErrNotFound, everything else is
// ErrUnavailable. Already classified errors pass through.
func Wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case appErr.HasKind(err):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return appErr.ErrNotFound
	case IsConflict(err):
		return appErr.Conflictf("%v", err)
	default:
		return appErr.Unavailable(err)
	}
}
