// Package main implements a mock marketplace panel API for local development.
// It serves the latest-collection and collection-items endpoints from a JSON
// fixture, and lets a developer publish new collections at runtime so the
// watcher has something to detect.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

type collection struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type fixture struct {
	Collections []collection                 `json:"collections"`
	Items       map[string][]json.RawMessage `json:"items"`
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type itemsData struct {
	Items any `json:"items"`
}

// marketplace holds the mutable mock state.
type marketplace struct {
	mu          sync.RWMutex
	collections []collection
	items       map[string][]json.RawMessage
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/marketplace.json", "path to marketplace fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fx, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "collections", len(fx.Collections), "item_sets", len(fx.Items))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, newMarketplace(fx))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMarketplace(fx *fixture) *marketplace {
	items := fx.Items
	if items == nil {
		items = map[string][]json.RawMessage{}
	}
	return &marketplace{collections: fx.Collections, items: items}
}

func newMux(logger *slog.Logger, m *marketplace) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /panel/collections", latestHandler(logger, m))
	mux.HandleFunc("POST /panel/collections/nfts", itemsHandler(logger, m))
	mux.HandleFunc("POST /_mock/collections", publishHandler(logger, m))
	return mux
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &fx, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

// latestHandler answers with the newest collection, i.e. the highest id.
func latestHandler(logger *slog.Logger, m *marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SortBy string `json:"sortBy"`
			Limit  int    `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Code: 400, Message: "invalid body"})
			return
		}

		m.mu.RLock()
		var newest *collection
		for i := range m.collections {
			if newest == nil || m.collections[i].ID > newest.ID {
				c := m.collections[i]
				newest = &c
			}
		}
		m.mu.RUnlock()

		items := []collection{}
		if newest != nil {
			items = append(items, *newest)
		}
		writeJSON(w, http.StatusOK, envelope{Data: itemsData{Items: items}})
		logger.Info("latest", "sort_by", req.SortBy, "returned", len(items))
	}
}

// itemsHandler answers with one page of a collection's items. Without a limit
// the whole set is returned as page 1.
func itemsHandler(logger *slog.Logger, m *marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Page         int   `json:"page"`
			CollectionID int64 `json:"collectionId"`
			Limit        int   `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Code: 400, Message: "invalid body"})
			return
		}

		m.mu.RLock()
		all := m.items[strconv.FormatInt(req.CollectionID, 10)]
		m.mu.RUnlock()

		page := pageOf(all, req.Page, req.Limit)
		writeJSON(w, http.StatusOK, envelope{Data: itemsData{Items: page}})
		logger.Info("items",
			"collection_id", req.CollectionID,
			"page", req.Page,
			"limit", req.Limit,
			"returned", len(page),
		)
	}
}

func pageOf(all []json.RawMessage, page, limit int) []json.RawMessage {
	if limit <= 0 {
		limit = len(all)
		page = 1
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []json.RawMessage{}
	}
	return all[start:min(start+limit, len(all))]
}

// publishHandler adds a collection so the next latest query reports it.
func publishHandler(logger *slog.Logger, m *marketplace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c collection
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.ID <= 0 || c.Slug == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and slug are required"})
			return
		}

		m.mu.Lock()
		m.collections = append(m.collections, c)
		m.mu.Unlock()

		writeJSON(w, http.StatusCreated, c)
		logger.Info("published collection", "id", c.ID, "slug", c.Slug)
	}
}
