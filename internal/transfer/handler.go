package transfer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/pkg/handlers"
	"github.com/JaimeStill/prombank/pkg/routes"
)

// Handler provides HTTP endpoints for import and export operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	config        Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	cfg Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "transfer"),
		config:        cfg,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for import and export endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/import", Handler: h.Import},
			{Method: "POST", Pattern: "/import/fabric", Handler: h.Fabric},
			{Method: "POST", Pattern: "/import/text", Handler: h.Text},
			{Method: "GET", Pattern: "/export", Handler: h.Export},
		},
	}
}

// Import processes a multipart upload. The format defaults to the one
// implied by the file name, then json.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.rejectForm(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: file required", ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	format, err := requestFormat(r.FormValue("format_type"), header.Filename)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	opts := ImportOptions{
		Format:          format,
		DefaultCategory: r.FormValue("default_category"),
	}
	if v := r.FormValue("source_type"); v != "" {
		opts.SourceType = &v
	}
	if opts.SkipDuplicates, err = formBool(r, "skip_duplicates", true); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if opts.UpdateExisting, err = formBool(r, "update_existing", false); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Import(r.Context(), data, opts)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result.Report("Import completed", h.config.ErrorLimit))
}

// Fabric imports a Fabric pattern directory on the server. patterns_dir
// defaults to the configured fabric directory.
func (h *Handler) Fabric(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := parseForm(r, h.maxUploadSize); err != nil {
		h.rejectForm(w, err)
		return
	}

	root := r.FormValue("patterns_dir")
	if root == "" {
		root = h.config.FabricDir
	}
	if root == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: patterns_dir required", ErrValidation))
		return
	}

	skip, err := formBool(r, "skip_duplicates", true)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.ImportFabric(r.Context(), root, FabricOptions{SkipDuplicates: skip})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result.Report("Fabric patterns import completed", h.config.ErrorLimit))
}

// Text imports prompts from form text fields.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := parseForm(r, h.maxUploadSize); err != nil {
		h.rejectForm(w, err)
		return
	}

	cmd := TextImport{
		Content:  r.FormValue("content"),
		Title:    r.FormValue("title"),
		Category: r.FormValue("category"),
		Tags:     r.FormValue("tags"),
	}
	if strings.TrimSpace(cmd.Content) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: content required", ErrValidation))
		return
	}

	if v := r.FormValue("format_type"); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		cmd.Format = f
	}

	result, err := h.sys.Text(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result.Report("Text import completed", h.config.ErrorLimit))
}

// Export writes an export document as an attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	opts, err := ExportOptionsFromQuery(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.Export(r.Context(), opts)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+doc.Filename)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc.Content)
}

// ExportOptionsFromQuery reads format_type (default json), repeated or
// comma-separated prompt_ids, include_versions (default false), and
// include_metadata (default true).
func ExportOptionsFromQuery(r *http.Request) (ExportOptions, error) {
	values := r.URL.Query()
	opts := ExportOptions{Format: FormatJSON}

	if v := values.Get("format_type"); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}

	for _, raw := range values["prompt_ids"] {
		for s := range strings.SplitSeq(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return opts, fmt.Errorf("%w: prompt_ids must be UUIDs", ErrValidation)
			}
			opts.IDs = append(opts.IDs, id)
		}
	}

	var err error
	if opts.IncludeVersions, err = queryBool(values.Get("include_versions"), "include_versions", false); err != nil {
		return opts, err
	}
	if opts.IncludeMetadata, err = queryBool(values.Get("include_metadata"), "include_metadata", true); err != nil {
		return opts, err
	}

	return opts, nil
}

func (h *Handler) rejectForm(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: upload exceeds %d bytes", ErrValidation, tooLarge.Limit))
		return
	}
	handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrValidation, err))
}

func parseForm(r *http.Request, maxMemory int64) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

func requestFormat(declared, filename string) (Format, error) {
	if declared != "" {
		return ParseFormat(declared)
	}
	if f, err := DetectFormat(filename); err == nil {
		return f, nil
	}
	return FormatJSON, nil
}

func formBool(r *http.Request, key string, def bool) (bool, error) {
	return queryBool(r.FormValue(key), key, def)
}

func queryBool(s, key string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrValidation, key)
	}
	return b, nil
}
