package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/heyfeelings-official/little-microphones/internal/feed"
)

// GetProgramFeed serves a program's playlist as podcast RSS, addressed
// by its public share token.
func (h *Handlers) GetProgramFeed(w http.ResponseWriter, r *http.Request) {
	lmid, world, ok := h.resolveShareLink(w, r)
	if !ok {
		return
	}

	segments, _, err := h.loadProgram(r, lmid, world)
	if err != nil {
		log.Printf("Error listing recordings for %s/%s: %v", lmid, world, err)
		respondError(w, http.StatusBadGateway, "Failed to list recordings")
		return
	}

	program := feed.Program{Lmid: lmid, World: world, ShareID: mux.Vars(r)["shareId"]}
	rss, err := feed.GenerateRSS(program, segments, feed.BaseURL(h.cfg.BaseURL, r))
	if err != nil {
		log.Printf("Error generating RSS for %s/%s: %v", lmid, world, err)
		respondError(w, http.StatusInternalServerError, "Failed to generate feed")
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("Error writing RSS response: %v", err)
	}
}
