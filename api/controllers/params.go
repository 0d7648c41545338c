package controllers

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/NICOLA-200/pms-restful/pkg/errors"
	"github.com/go-chi/chi/v5"
)

func parseIDParam(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").
			WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
