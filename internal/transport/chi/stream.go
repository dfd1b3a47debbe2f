package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
	"github.com/kailas-cloud/searchcore/internal/logger"
)

// SSE event names.
const (
	eventProgress = "progress"
	eventDone     = "done"
	eventError    = "error"
)

// SearchStream handles POST /v1/search/stream. Every batch is sent as a
// progress event; a done event carries the summary. Closing the connection
// cancels the search.
func (s *Server) SearchStream(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "query is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := logger.With(r.Context(), zap.String("stream", "search"))
	log := logger.FromContext(ctx)
	rc := http.NewResponseController(w)
	send := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			log.Warn("Failed to encode stream event", zap.String("event", event), zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return
		}
		_ = rc.Flush()
	}

	opts := searchOptions(req)
	opts.Progressive = true

	batch := 0
	resp, err := s.search.Search(ctx, req.Query, opts, func(results []result.Result, final bool) {
		batch++
		send(eventProgress, ProgressEvent{Batch: batch, Results: resultsToItems(results), Final: final})
	})
	if err != nil {
		log.Warn("Stream search failed", zap.Error(err))
		send(eventError, ErrorResponse{Code: ErrorCodeInternal, Message: safeDomainMessage(err)})
		return
	}
	if ctx.Err() != nil {
		return
	}

	send(eventDone, searchResponseFrom(resp))
}
