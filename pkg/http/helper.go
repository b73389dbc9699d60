package http

import (
	"net/http"
	"strconv"

	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
)

// ExtractLimitOffset reads pagination from the query string and clamps it to
// the configured bounds. Absent parameters get the defaults; non-numeric ones
// are an input error rather than silently page one.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + raw)
		}
		limit = parsed
	}

	var offset int64
	if raw := query.Get("offset"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + raw)
		}
		offset = parsed
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}
