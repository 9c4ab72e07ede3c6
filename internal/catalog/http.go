package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxPageSize is the server-side page_size cap advertised to clients.
const maxPageSize = 100

// listingResponse is the paged listing envelope.
type listingResponse struct {
	Items []Item `json:"items"`
	Pages int    `json:"pages"`
	Total int    `json:"total"`
}

// Handler serves the paged instrument listing over chi, the same
// router/middleware shape as the worker's admin surface.
func Handler(store *Store, log zerolog.Logger) http.Handler {
	log = log.With().Str("component", "catalog_http").Logger()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/api/v1/instruments", func(w http.ResponseWriter, req *http.Request) {
		page := queryInt(req, "page", 1)
		pageSize := queryInt(req, "page_size", maxPageSize)
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		items, pages, total, err := store.Page(page, pageSize)
		if err != nil {
			log.Error().Err(err).Msg("listing query failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []Item{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(listingResponse{Items: items, Pages: pages, Total: total})
	})

	return r
}

func queryInt(req *http.Request, key string, fallback int) int {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
