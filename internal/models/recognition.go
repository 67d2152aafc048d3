package models

import "time"

// Engines that can produce a transcription
const (
	EngineGoogle    = "google"
	EngineWebSpeech = "web-speech-api"
)

// RecognitionSession records one audio submission attempt
type RecognitionSession struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	TargetSentenceID int64     `json:"target_sentence_id"`
	AudioDuration    float64   `json:"audio_duration"`
	Engine           string    `json:"stt_model"`
	Language         string    `json:"stt_language"`
	SessionDate      time.Time `json:"session_date"`
}

// Alternative is a lower-ranked transcription returned alongside the primary one
type Alternative struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// RecognitionResult is the scored outcome of exactly one session
type RecognitionResult struct {
	ID              int64         `json:"id"`
	SessionID       string        `json:"session_id"`
	TargetText      string        `json:"target_text"`
	RecognizedText  string        `json:"recognized_text"`
	ConfidenceScore float64       `json:"confidence_score"`
	IsCorrect       bool          `json:"is_correct"`
	Alternatives    []Alternative `json:"alternatives"`
	ProcessingTime  int64         `json:"processing_time"`
	CreatedAt       time.Time     `json:"created_at"`
}

// RecognitionOutcome is what a submission returns to its caller
type RecognitionOutcome struct {
	SessionID      string        `json:"sessionId"`
	TargetText     string        `json:"targetText"`
	RecognizedText string        `json:"recognizedText"`
	Confidence     float64       `json:"confidence"`
	IsCorrect      bool          `json:"isCorrect"`
	Alternatives   []Alternative `json:"alternatives"`
	ProcessingTime int64         `json:"processingTime"`
}

// ResultRow is a result joined with its session and the display fields of
// the user and target item. Joined fields are nil once the row they came
// from has been deleted.
type ResultRow struct {
	RecognitionResult
	UserID           string    `json:"user_id"`
	TargetSentenceID int64     `json:"target_sentence_id"`
	SessionDate      time.Time `json:"session_date"`
	Username         *string   `json:"username"`
	Age              *int      `json:"age"`
	Gender           *string   `json:"gender"`
	SentenceContent  *string   `json:"sentence_content"`
	SentenceType     *string   `json:"sentence_type"`
}

// DefaultResultLimit caps a results listing when no limit is given
const DefaultResultLimit = 100

// ResultFilter narrows a results listing
type ResultFilter struct {
	UserID     string
	SentenceID int64
	Limit      int
}
