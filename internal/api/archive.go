package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/prombank/internal/transfer"
	"github.com/JaimeStill/prombank/pkg/handlers"
	"github.com/JaimeStill/prombank/pkg/routes"
	"github.com/JaimeStill/prombank/pkg/storage"
)

// archiveHandler serves export archives kept in blob storage under
// transfer.ArchivePrefix. Routes address archives by name, without the prefix.
type archiveHandler struct {
	transfer    transfer.System
	store       storage.System
	logger      *slog.Logger
	maxListSize int32
}

func newArchiveHandler(
	xfer transfer.System,
	store storage.System,
	logger *slog.Logger,
	maxListSize int32,
) *archiveHandler {
	return &archiveHandler{
		transfer:    xfer,
		store:       store,
		logger:      logger.With("handler", "archives"),
		maxListSize: maxListSize,
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/exports",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "POST", Pattern: "", Handler: h.create},
			{Method: "GET", Pattern: "/{name}/download", Handler: h.download},
			{Method: "GET", Pattern: "/{name}", Handler: h.find},
			{Method: "DELETE", Pattern: "/{name}", Handler: h.delete},
		},
	}
}

func (h *archiveHandler) list(w http.ResponseWriter, r *http.Request) {
	maxResults, err := storage.ParseMaxResults(
		r.URL.Query().Get("max_results"),
		h.maxListSize,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.store.List(
		r.Context(),
		transfer.ArchivePrefix,
		r.URL.Query().Get("marker"),
		maxResults,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// create archives a fresh export, taking the same query options as GET /export.
func (h *archiveHandler) create(w http.ResponseWriter, r *http.Request) {
	opts, err := transfer.ExportOptionsFromQuery(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	meta, err := h.transfer.Archive(r.Context(), opts)
	if err != nil {
		handlers.RespondError(w, h.logger, transfer.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, meta)
}

func (h *archiveHandler) find(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.Find(r.Context(), archiveKey(r))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, meta)
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	result, err := h.store.Download(r.Context(), transfer.ArchivePrefix+name)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)

	if result.ContentLength > 0 {
		w.Header().Set(
			"Content-Length",
			strconv.FormatInt(result.ContentLength, 10),
		)
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", name),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, result.Body)
}

func (h *archiveHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), archiveKey(r)); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func archiveKey(r *http.Request) string {
	return transfer.ArchivePrefix + r.PathValue("name")
}
