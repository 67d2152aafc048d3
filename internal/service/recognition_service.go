package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"speechcheck/internal/models"
	"speechcheck/internal/repository"
	"speechcheck/internal/scoring"
	"speechcheck/internal/speech"
	"speechcheck/internal/telemetry"
	"speechcheck/internal/validation"
)

// RecognitionOptions are the per-submission provider settings
type RecognitionOptions struct {
	Language    string
	Model       string
	Punctuation bool
	Enhanced    bool
}

// DefaultRecognitionOptions are used when neither config nor the caller sets a value
var DefaultRecognitionOptions = RecognitionOptions{
	Language:    "en-US",
	Model:       "latest_long",
	Punctuation: true,
	Enhanced:    true,
}

// AudioSubmission is a recorded clip sent for server-side transcription.
// Empty or nil option fields fall back to the service defaults.
type AudioSubmission struct {
	Audio            []byte
	ContentType      string
	UserID           string
	TargetSentenceID int64
	Language         string
	Model            string
	Punctuation      *bool
	Enhanced         *bool
}

// PretranscribedSubmission is a transcription produced by a client-side engine
type PretranscribedSubmission struct {
	UserID           string
	TargetSentenceID int64
	RecognizedText   string
	Confidence       float64
	Alternatives     []models.Alternative
	Language         string
}

// RecognitionService runs the submission pipeline: resolve target,
// transcribe, score, persist
type RecognitionService struct {
	targetRepo      *repository.TargetRepository
	recognitionRepo *repository.RecognitionRepository
	transcriber     speech.Transcriber
	defaults        RecognitionOptions
	metrics         *telemetry.RecognitionMetrics
	tracer          trace.Tracer
	now             func() time.Time
}

// NewRecognitionService creates a new recognition service. transcriber may be
// nil, in which case audio submissions fail with an external service error.
func NewRecognitionService(targetRepo *repository.TargetRepository, recognitionRepo *repository.RecognitionRepository, transcriber speech.Transcriber, defaults RecognitionOptions) *RecognitionService {
	return &RecognitionService{
		targetRepo:      targetRepo,
		recognitionRepo: recognitionRepo,
		transcriber:     transcriber,
		defaults:        defaults,
		metrics:         telemetry.NewRecognitionMetrics(),
		tracer:          telemetry.Tracer(),
		now:             time.Now,
	}
}

// resolve applies defaults to the submission's options
func (o RecognitionOptions) resolve(sub *AudioSubmission) RecognitionOptions {
	opts := o
	if lang := strings.TrimSpace(sub.Language); lang != "" {
		opts.Language = lang
	}
	if model := strings.TrimSpace(sub.Model); model != "" {
		opts.Model = model
	}
	if sub.Punctuation != nil {
		opts.Punctuation = *sub.Punctuation
	}
	if sub.Enhanced != nil {
		opts.Enhanced = *sub.Enhanced
	}
	return opts
}

// SubmitRecognition transcribes one audio clip with the external provider and
// stores the scored result. Nothing is stored when the provider call fails.
func (s *RecognitionService) SubmitRecognition(ctx context.Context, sub AudioSubmission) (outcome *models.RecognitionOutcome, err error) {
	ctx, span := s.tracer.Start(ctx, "recognition.submit", trace.WithAttributes(
		attribute.String("engine", models.EngineGoogle),
		attribute.Int64("target_sentence_id", sub.TargetSentenceID),
		attribute.Int("audio_bytes", len(sub.Audio)),
	))
	defer func() { s.finish(ctx, span, models.EngineGoogle, outcome, err) }()

	if len(sub.Audio) == 0 {
		return nil, invalidField("audio", "No audio file provided")
	}
	if err := validateSubmitter(sub.UserID, sub.TargetSentenceID); err != nil {
		return nil, err
	}

	target, err := s.resolveTarget(ctx, sub.TargetSentenceID)
	if err != nil {
		return nil, err
	}

	if s.transcriber == nil {
		return nil, externalServiceError(errors.New("speech provider is not configured"))
	}

	opts := s.defaults.resolve(&sub)
	start := s.now()
	transcription, err := s.transcriber.Recognize(ctx, speech.Request{
		Audio:       sub.Audio,
		Encoding:    speech.EncodingForMIME(sub.ContentType),
		Language:    opts.Language,
		Model:       opts.Model,
		Punctuation: opts.Punctuation,
		Enhanced:    opts.Enhanced,
	})
	elapsed := s.now().Sub(start)
	s.metrics.RecordProviderLatency(ctx, elapsed, err != nil)
	if err != nil {
		return nil, externalServiceError(err)
	}

	alternatives := make([]models.Alternative, 0, len(transcription.Alternatives))
	for _, alt := range transcription.Alternatives {
		alternatives = append(alternatives, models.Alternative{Text: alt.Transcript, Confidence: alt.Confidence})
	}

	session := &models.RecognitionSession{
		ID:               uuid.New().String(),
		UserID:           sub.UserID,
		TargetSentenceID: target.ID,
		AudioDuration:    float64(len(sub.Audio)) / 1000,
		Engine:           models.EngineGoogle,
		Language:         opts.Language,
	}
	result := &models.RecognitionResult{
		TargetText:      target.Content,
		RecognizedText:  transcription.Transcript,
		ConfidenceScore: transcription.Confidence,
		Alternatives:    alternatives,
		ProcessingTime:  elapsed.Milliseconds(),
	}

	return s.persist(ctx, session, result)
}

// SubmitPretranscribed stores a result whose transcription came from the
// client. The caller's text and confidence are trusted; the target text is
// always read from the catalog.
func (s *RecognitionService) SubmitPretranscribed(ctx context.Context, sub PretranscribedSubmission) (outcome *models.RecognitionOutcome, err error) {
	ctx, span := s.tracer.Start(ctx, "recognition.submit_pretranscribed", trace.WithAttributes(
		attribute.String("engine", models.EngineWebSpeech),
		attribute.Int64("target_sentence_id", sub.TargetSentenceID),
	))
	defer func() { s.finish(ctx, span, models.EngineWebSpeech, outcome, err) }()

	if err := validateSubmitter(sub.UserID, sub.TargetSentenceID); err != nil {
		return nil, err
	}
	if err := validation.ValidateConfidence("confidence", sub.Confidence); err != nil {
		return nil, validationError(err)
	}
	for i, alt := range sub.Alternatives {
		if err := validation.ValidateConfidence(fmt.Sprintf("alternatives[%d].confidence", i), alt.Confidence); err != nil {
			return nil, validationError(err)
		}
	}

	target, err := s.resolveTarget(ctx, sub.TargetSentenceID)
	if err != nil {
		return nil, err
	}

	language := strings.TrimSpace(sub.Language)
	if language == "" {
		language = s.defaults.Language
	}

	session := &models.RecognitionSession{
		ID:               uuid.New().String(),
		UserID:           sub.UserID,
		TargetSentenceID: target.ID,
		AudioDuration:    0,
		Engine:           models.EngineWebSpeech,
		Language:         language,
	}
	result := &models.RecognitionResult{
		TargetText:      target.Content,
		RecognizedText:  sub.RecognizedText,
		ConfidenceScore: sub.Confidence,
		Alternatives:    sub.Alternatives,
		ProcessingTime:  0,
	}

	return s.persist(ctx, session, result)
}

func validateSubmitter(userID string, targetID int64) error {
	if strings.TrimSpace(userID) == "" {
		return invalidField("userId", "userId is required")
	}
	if targetID <= 0 {
		return invalidField("targetSentenceId", "targetSentenceId is required")
	}
	return nil
}

func (s *RecognitionService) resolveTarget(ctx context.Context, id int64) (*models.TargetItem, error) {
	target, err := s.targetRepo.GetItemByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if target == nil {
		return nil, notFoundError("Target sentence not found")
	}
	return target, nil
}

// persist scores the result and writes it with its session
func (s *RecognitionService) persist(ctx context.Context, session *models.RecognitionSession, result *models.RecognitionResult) (*models.RecognitionOutcome, error) {
	now := s.now().UTC()
	session.SessionDate = now
	result.CreatedAt = now
	result.IsCorrect = scoring.Score(result.TargetText, result.RecognizedText)
	if result.Alternatives == nil {
		result.Alternatives = []models.Alternative{}
	}

	if err := s.recognitionRepo.CreateSessionWithResult(ctx, session, result); err != nil {
		return nil, persistenceError(err)
	}

	log.Printf("Recognition stored: session=%s user=%s target=%d engine=%s correct=%t confidence=%.2f time=%dms",
		session.ID, session.UserID, session.TargetSentenceID, session.Engine,
		result.IsCorrect, result.ConfidenceScore, result.ProcessingTime)

	return &models.RecognitionOutcome{
		SessionID:      session.ID,
		TargetText:     result.TargetText,
		RecognizedText: result.RecognizedText,
		Confidence:     result.ConfidenceScore,
		IsCorrect:      result.IsCorrect,
		Alternatives:   result.Alternatives,
		ProcessingTime: result.ProcessingTime,
	}, nil
}

func (s *RecognitionService) finish(ctx context.Context, span trace.Span, engine string, outcome *models.RecognitionOutcome, err error) {
	defer span.End()

	result := "error"
	switch {
	case err != nil:
		if kind := KindOf(err); kind != "" {
			result = string(kind)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("Recognition failed: engine=%s kind=%s error=%v", engine, KindOf(err), err)
	case outcome.IsCorrect:
		result = "correct"
		span.SetAttributes(attribute.Bool("is_correct", true))
	default:
		result = "incorrect"
		span.SetAttributes(attribute.Bool("is_correct", false))
	}
	s.metrics.RecordSubmission(ctx, engine, result)
}

// ListResults returns stored results, newest first
func (s *RecognitionService) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.ResultRow, error) {
	if filter.Limit != 0 {
		if err := validation.ValidateLimit(filter.Limit); err != nil {
			return nil, validationError(err)
		}
	}
	rows, err := s.recognitionRepo.ListResults(ctx, filter)
	if err != nil {
		return nil, persistenceError(err)
	}
	return rows, nil
}
