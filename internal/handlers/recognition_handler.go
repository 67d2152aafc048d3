package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"speechcheck/internal/models"
	"speechcheck/internal/service"
)

// RecognitionHandler accepts recordings and client-side transcriptions
type RecognitionHandler struct {
	recognitionService *service.RecognitionService
	uploadMaxSize      int64
}

// NewRecognitionHandler creates a new recognition handler
func NewRecognitionHandler(recognitionService *service.RecognitionService, uploadMaxSize int64) *RecognitionHandler {
	return &RecognitionHandler{
		recognitionService: recognitionService,
		uploadMaxSize:      uploadMaxSize,
	}
}

// SpeechToText transcribes an uploaded clip and scores it against the target
func (h *RecognitionHandler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondBadRequest(w, "audio", "Audio file is too large")
			return
		}
		respondBadRequest(w, "", ErrInvalidFormData)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondBadRequest(w, "audio", "No audio file provided")
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read audio file", "", err)
		return
	}

	targetID, ok := parseTargetID(w, r.FormValue("targetSentenceId"))
	if !ok {
		return
	}

	sub := service.AudioSubmission{
		Audio:            buf.Bytes(),
		ContentType:      header.Header.Get("Content-Type"),
		UserID:           r.FormValue("userId"),
		TargetSentenceID: targetID,
		Language:         r.FormValue("language"),
		Model:            r.FormValue("model"),
		Punctuation:      formFlag(r.FormValue("punctuation")),
		Enhanced:         formFlag(r.FormValue("enhanced")),
	}

	outcome, err := h.recognitionService.SubmitRecognition(r.Context(), sub)
	if err != nil {
		respondServiceError(w, "Speech recognition failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "result": outcome})
}

// webSpeechRequest is the body posted by the browser recognizer. targetText
// is accepted for older clients and ignored; the catalog holds the target.
type webSpeechRequest struct {
	UserID           string               `json:"userId"`
	TargetSentenceID flexibleID           `json:"targetSentenceId"`
	RecognizedText   string               `json:"recognizedText"`
	Confidence       float64              `json:"confidence"`
	Alternatives     []models.Alternative `json:"alternatives"`
	Language         string               `json:"language"`
	TargetText       string               `json:"targetText"`
}

// WebSpeech records a transcription produced in the browser
func (h *RecognitionHandler) WebSpeech(w http.ResponseWriter, r *http.Request) {
	var req webSpeechRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := h.recognitionService.SubmitPretranscribed(r.Context(), service.PretranscribedSubmission{
		UserID:           req.UserID,
		TargetSentenceID: int64(req.TargetSentenceID),
		RecognizedText:   req.RecognizedText,
		Confidence:       req.Confidence,
		Alternatives:     req.Alternatives,
		Language:         req.Language,
	})
	if err != nil {
		respondServiceError(w, "Failed to record web speech result", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "result": outcome})
}

// formFlag reads an optional boolean form field. Only "false" disables;
// an absent field keeps the configured default.
func formFlag(value string) *bool {
	if value == "" {
		return nil
	}
	enabled := !strings.EqualFold(value, "false")
	return &enabled
}

func parseTargetID(w http.ResponseWriter, value string) (int64, bool) {
	if value == "" {
		respondBadRequest(w, "targetSentenceId", "targetSentenceId is required")
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondBadRequest(w, "targetSentenceId", "targetSentenceId must be a number")
		return 0, false
	}
	return id, true
}

// flexibleID accepts an id sent either as a JSON number or a numeric string
type flexibleID int64

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.New("targetSentenceId must be a number")
	}
	*id = flexibleID(n)
	return nil
}

var _ json.Unmarshaler = (*flexibleID)(nil)
