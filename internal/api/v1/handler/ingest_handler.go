package handler

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/middleware"
	"fintrack/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxVoiceUploadBytes caps voice recordings at 25 MB.
const maxVoiceUploadBytes = 25 << 20

// IngestHandler handles free-form ingestion endpoints
type IngestHandler struct {
	ingestSvc service.IngestService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(ingestSvc service.IngestService, validate *validator.Validate, logger zerolog.Logger) *IngestHandler {
	return &IngestHandler{ingestSvc: ingestSvc, validate: validate, logger: logger}
}

// RegisterRoutes mounts ingestion routes
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/ingest/text", authMw(http.HandlerFunc(h.ingestText)))
	mux.Handle("/ingest/voice", authMw(http.HandlerFunc(h.ingestVoice)))
}

// ingestText godoc
// @Summary Ingest free-form text
// @Description Parses natural-language text into transactions and debts and records them. A quota denial aborts the batch.
// @Tags ingest
// @Accept json
// @Produce json
// @Param input body dto.IngestTextDTO true "Text to parse"
// @Success 200 {object} dto.IngestResultDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {object} handler.limitExceededBody "Limit exceeded"
// @Router /ingest/text [post]
func (h *IngestHandler) ingestText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.IngestTextDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.ingestSvc.IngestText(r.Context(), ref, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngestResultDTO(result))
}

// ingestVoice godoc
// @Summary Ingest a voice recording
// @Description Accepts a multipart audio upload, transcribes and parses it, and records the extracted items. Voice inputs are limited per billing period for free users.
// @Tags ingest
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Audio recording"
// @Success 200 {object} dto.IngestResultDTO
// @Failure 400 {string} string "Missing or oversized audio file"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {object} handler.limitExceededBody "Voice input limit exceeded"
// @Router /ingest/voice [post]
func (h *IngestHandler) ingestVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVoiceUploadBytes)
	if err := r.ParseMultipartForm(maxVoiceUploadBytes); err != nil {
		http.Error(w, "Invalid multipart payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "Missing audio file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn().Err(closeErr).Msg("Failed to close uploaded file")
		}
	}()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.ingestSvc.IngestVoice(r.Context(), ref, file, contentType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngestResultDTO(result))
}

func toIngestResultDTO(result *service.IngestResult) dto.IngestResultDTO {
	resp := dto.IngestResultDTO{
		Transactions: make([]dto.TransactionResponseDTO, 0, len(result.Transactions)),
		Debts:        make([]dto.DebtResponseDTO, 0, len(result.Debts)),
		Skipped:      result.Skipped,
	}
	for i := range result.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionDTO(&result.Transactions[i]))
	}
	for i := range result.Debts {
		resp.Debts = append(resp.Debts, toDebtDTO(&result.Debts[i]))
	}
	return resp
}
