package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hooklog/internal/model"
	"hooklog/internal/store"

	"github.com/cloudevents/sdk-go/v2/event"
)

const cloudEventsBatchContentType = "application/cloudevents-batch+json"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	storeStatus := "ok"
	code := http.StatusOK
	if err := s.service.StoreHealth(ctx); err != nil {
		storeStatus = err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":       "ok",
		"service":      "hooklog",
		"store":        s.storeMode,
		"store_status": storeStatus,
		"time":         time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if err := s.authorizeRead(r); err != nil {
		if errors.Is(err, errRateLimited) {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	limit := store.MaxRecent
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	items, err := s.service.RecentRecords(r.Context(), limit)
	if err != nil {
		s.logger.Error(err, "query recent events failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "cloudevents") {
		batch, err := toCloudEvents(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSONAs(w, http.StatusOK, cloudEventsBatchContentType, batch)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func toCloudEvents(items []model.StoredRecord) ([]event.Event, error) {
	out := make([]event.Event, 0, len(items))
	for i := range items {
		ce, err := items[i].ToCloudEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, ce)
	}
	return out, nil
}
