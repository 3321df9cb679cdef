package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"algo_tracker/internal/common"
)

// pathID reads the numeric URL parameter key. Anything that is not a
// positive integer cannot name an entity, so it reads as not found.
func pathID(r *http.Request, key, entity string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Errorf("%s not found: %w", entity, common.ErrNotFound)
	}
	return id, nil
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
