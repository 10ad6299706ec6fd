package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/heyfeelings-official/little-microphones/internal/db"
	"github.com/heyfeelings-official/little-microphones/internal/metrics"
	"github.com/heyfeelings-official/little-microphones/internal/models"
	"github.com/heyfeelings-official/little-microphones/internal/playlist"
	"github.com/heyfeelings-official/little-microphones/internal/storage"
)

type buildRadioRequest struct {
	Lmid       string              `json:"lmid"`
	World      string              `json:"world"`
	Recordings map[string][]string `json:"recordings"`
}

// BuildRadioProgram assembles the playlist for a program and delivers
// its manifest: uploaded to the CDN when storage is configured,
// returned inline as a data URI otherwise.
func (h *Handlers) BuildRadioProgram(w http.ResponseWriter, r *http.Request) {
	var req buildRadioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Lmid == "" || req.World == "" {
		respondError(w, http.StatusBadRequest, "lmid and world are required")
		return
	}

	segments, err := h.builder.Build(req.Lmid, req.World, req.Recordings)
	if errors.Is(err, playlist.ErrNoRecordings) {
		respondError(w, http.StatusBadRequest, "No recordings to build a playlist from")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build playlist")
		return
	}

	manifest := playlist.Manifest(segments)
	url, delivery, err := h.deliverManifest(r, req.Lmid, req.World, manifest)
	if err != nil {
		log.Printf("Error uploading manifest for %s/%s: %v", req.Lmid, req.World, err)
		respondError(w, http.StatusBadGateway, "Failed to upload playlist manifest")
		return
	}
	metrics.PlaylistBuilds.WithLabelValues(delivery).Inc()

	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"url":             url,
		"questionCount":   len(req.Recordings),
		"totalRecordings": countRecordings(req.Recordings),
		"totalSegments":   len(segments),
	})
}

// deliverManifest uploads the manifest when storage credentials exist
// and falls back to an inline data URI when they do not, so a
// partially configured deployment degrades instead of failing.
func (h *Handlers) deliverManifest(r *http.Request, lmid, world, manifest string) (string, string, error) {
	if !h.storage.Configured() {
		return storage.DataURI("application/vnd.apple.mpegurl", []byte(manifest)), "inline", nil
	}
	url, err := h.storage.Upload(r.Context(), playlist.ManifestPath(lmid, world), "application/vnd.apple.mpegurl", []byte(manifest))
	if err != nil {
		return "", "", err
	}
	return url, "cdn", nil
}

// GetRadioProgram resolves a public share token to its program, lists
// the program's current recordings, and returns the rebuilt playlist.
// The playlist always reflects the storage zone's current contents.
func (h *Handlers) GetRadioProgram(w http.ResponseWriter, r *http.Request) {
	lmid, world, ok := h.resolveShareLink(w, r)
	if !ok {
		return
	}

	segments, recordings, err := h.loadProgram(r, lmid, world)
	if err != nil {
		log.Printf("Error listing recordings for %s/%s: %v", lmid, world, err)
		respondError(w, http.StatusBadGateway, "Failed to list recordings")
		return
	}

	response := map[string]any{
		"success":         true,
		"lmid":            lmid,
		"world":           world,
		"questionCount":   len(recordings),
		"totalRecordings": countRecordings(recordings),
		"segments":        segments,
	}
	if len(segments) > 0 {
		manifest := playlist.Manifest(segments)
		url, delivery, err := h.deliverManifest(r, lmid, world, manifest)
		if err != nil {
			log.Printf("Error uploading manifest for %s/%s: %v", lmid, world, err)
			respondError(w, http.StatusBadGateway, "Failed to upload playlist manifest")
			return
		}
		metrics.PlaylistBuilds.WithLabelValues(delivery).Inc()
		response["url"] = url
	}
	respondJSON(w, http.StatusOK, response)
}

// resolveShareLink maps the shareId path variable and world query
// parameter to a program. Unknown tokens 404 before any storage call.
func (h *Handlers) resolveShareLink(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	shareID := mux.Vars(r)["shareId"]
	world := r.URL.Query().Get("world")
	if world == "" {
		respondError(w, http.StatusBadRequest, "world query parameter is required")
		return "", "", false
	}

	row, err := db.GetByShareID(shareID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Unknown share link")
		return "", "", false
	}
	if err != nil {
		log.Printf("Error resolving share id %s: %v", shareID, err)
		respondError(w, http.StatusInternalServerError, "Failed to resolve share link")
		return "", "", false
	}
	return strconv.Itoa(row.ID), world, true
}

// loadProgram lists the program's recordings from storage and builds
// its segment sequence. A program with no recordings yet yields an
// empty sequence, not an error, so pages can show their waiting state.
func (h *Handlers) loadProgram(r *http.Request, lmid, world string) ([]models.Segment, map[string][]string, error) {
	filenames, err := h.storage.List(r.Context(), lmid+"/"+world)
	if err != nil {
		return nil, nil, err
	}

	recordings := playlist.GroupRecordings(filenames)
	if len(recordings) == 0 {
		return []models.Segment{}, recordings, nil
	}

	segments, err := h.builder.Build(lmid, world, recordings)
	if err != nil {
		return nil, nil, err
	}
	return segments, recordings, nil
}

func countRecordings(recordings map[string][]string) int {
	total := 0
	for _, files := range recordings {
		total += len(files)
	}
	return total
}
