package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/NICOLA-200/pms-restful/pkg/errors"
	"github.com/NICOLA-200/pms-restful/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// PaginationParams extracts page, limit, and the search key from the query
// string. The search key is read from searchKey, with searchkey and search
// accepted as fallbacks.
func PaginationParams(r *http.Request) (pagination.Params, error) {
	page, err := ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	query := r.URL.Query()
	search := ""
	for _, key := range []string{"searchKey", "searchkey", "search"} {
		if search = strings.TrimSpace(query.Get(key)); search != "" {
			break
		}
	}
	return pagination.Params{
		Page:      page,
		Limit:     limit,
		SearchKey: search,
	}, nil
}
