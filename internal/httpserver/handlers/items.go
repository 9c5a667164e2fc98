package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tlama/internal/logger"
)

const maxListLimit = 500

type itemsResponse struct {
	Count int             `json:"count"`
	Items []domain.Record `json:"items"`
}

// Items lists cached items ranked by score. ?q= filters by name, ?limit=
// caps the result.
func Items(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := maxListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxListLimit)
		}

		var (
			items []*domain.Item
			err   error
		)
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			items, err = d.Items.Search(r.Context(), q)
		} else {
			items, err = d.Items.LoadAll(r.Context())
		}
		if err != nil {
			d.Logger.Error("failed to list items", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list items")
			return
		}

		if len(items) > limit {
			items = items[:limit]
		}
		writeJSON(w, http.StatusOK, itemsResponse{Count: len(items), Items: records(items)})
	}
}

// ItemLookup returns one cached item by its URL.
func ItemLookup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := itemURL(d, r.URL.Query().Get("url"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		item, err := d.Items.Load(r.Context(), url)
		if err != nil {
			writeItemError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, item.Record())
	}
}

type flagRequest struct {
	URL   string `json:"url"`
	Flag  string `json:"flag"`
	Value bool   `json:"value"`
}

// Flag sets an annotation (owned or flagged) on a cached item.
func Flag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flagRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		url, err := itemURL(d, req.URL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		item, err := d.Items.SetFlag(r.Context(), url, req.Flag, req.Value)
		if err != nil {
			writeItemError(w, d, err)
			return
		}

		d.Logger.Info("item annotation updated",
			logger.String("url", item.URL),
			logger.String("flag", req.Flag),
			logger.Bool("value", req.Value),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, item.Record())
	}
}

var errURLRequired = errors.New("url is required")

// itemURL turns a request reference into the item identifier the cache
// is keyed by.
func itemURL(d deps.Deps, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errURLRequired
	}
	if d.ItemURLs == nil {
		return ref, nil
	}
	return d.ItemURLs.ItemURL(ref)
}

func writeItemError(w http.ResponseWriter, d deps.Deps, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, domain.ErrUnknownFlag):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		d.Logger.Error("item request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func records(items []*domain.Item) []domain.Record {
	out := make([]domain.Record, 0, len(items))
	for _, it := range items {
		out = append(out, it.Record())
	}
	return out
}
