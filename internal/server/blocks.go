package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/FeyP/drupal-twitter-feed/internal/block"
	"github.com/FeyP/drupal-twitter-feed/internal/observability/middleware"
)

type blockSummary struct {
	ID string `json:"id"`
	block.Settings
}

type blocksResponse struct {
	MaxTweets    int            `json:"max_tweets"`
	CountOptions []int          `json:"count_options"`
	Blocks       []blockSummary `json:"blocks"`
}

// listBlocks returns the configured blocks sorted by id, together with the
// counts an editor may choose from.
func (s *Server) listBlocks(w http.ResponseWriter, r *http.Request) {
	resp := blocksResponse{
		MaxTweets:    s.maxTweets,
		CountOptions: block.CountOptions(s.maxTweets),
		Blocks:       make([]blockSummary, 0, len(s.blocks)),
	}
	for id, settings := range s.blocks {
		resp.Blocks = append(resp.Blocks, blockSummary{ID: id, Settings: settings})
	}
	slices.SortFunc(resp.Blocks, func(a, b blockSummary) int {
		return strings.Compare(a.ID, b.ID)
	})

	writeJSON(r.Context(), w, resp, http.StatusOK)
}

func (s *Server) blockJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	settings, ok := s.blocks[id]
	if !ok {
		writeJSONError(ctx, w, &ErrorResponse{
			Err: Error{Message: fmt.Sprintf("block %q is not configured", id), Type: errTypeNotFound},
		})
		return
	}
	middleware.SetLogAttrs(ctx, slog.String("block_id", id))

	s.renderJSON(w, r, settings.Request())
}

// timelineJSON runs a cycle for the username and count given in the query.
// Without a count, the configured maximum is used.
func (s *Server) timelineJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	req := block.Request{Username: query.Get("username"), Count: s.maxTweets}
	if raw := query.Get("count"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(ctx, w, &ErrorResponse{
				Err: Error{Message: fmt.Sprintf("count %q is not an integer", raw), Type: errTypeInvalidRequest},
			})
			return
		}
		req.Count = count
	}
	if req.Count > s.maxTweets {
		writeJSONError(ctx, w, &ErrorResponse{
			Err: Error{Message: fmt.Sprintf("count %d exceeds maximum of %d", req.Count, s.maxTweets), Type: errTypeInvalidRequest},
		})
		return
	}

	s.renderJSON(w, r, req)
}

func (s *Server) renderJSON(w http.ResponseWriter, r *http.Request, req block.Request) {
	ctx := r.Context()

	view, err := s.renderer.Render(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "block render failed", "username", req.Username, "error", err)
		writeJSONError(ctx, w, errorResponseFor(err))
		return
	}

	writeJSON(ctx, w, view, http.StatusOK)
}

// blockHTML renders a configured block as an HTML fragment. Failed cycles
// produce the unavailable placeholder rather than an error page.
func (s *Server) blockHTML(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	settings, ok := s.blocks[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	middleware.SetLogAttrs(ctx, slog.String("block_id", id))

	var buf bytes.Buffer
	view, err := s.renderer.Render(ctx, settings.Request())
	if err != nil {
		slog.ErrorContext(ctx, "block render failed", "block_id", id, "error", err)
		err = block.WriteUnavailableHTML(&buf, settings.Username)
	} else {
		err = block.WriteHTML(&buf, view, s.renderer.ProfileURL(view.Username))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to render HTML", "block_id", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
