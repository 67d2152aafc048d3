// Package speech talks to the external transcription provider.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// MaxAlternatives is how many hypotheses the provider is asked for
const MaxAlternatives = 3

// Encoding hints understood by Google Speech-to-Text
const (
	EncodingWebMOpus = "WEBM_OPUS"
	EncodingOggOpus  = "OGG_OPUS"
	EncodingLinear16 = "LINEAR16"
	EncodingFLAC     = "FLAC"
	EncodingMP3      = "MP3"
)

// Request is one synchronous recognition call
type Request struct {
	Audio       []byte
	Encoding    string
	Language    string
	Model       string
	Punctuation bool
	Enhanced    bool
}

// Alternative is one lower-ranked hypothesis
type Alternative struct {
	Transcript string
	Confidence float64
}

// Transcription is the provider's answer. An empty Transcript with zero
// confidence means the provider heard nothing.
type Transcription struct {
	Transcript   string
	Confidence   float64
	Alternatives []Alternative
}

// Transcriber turns audio into text
type Transcriber interface {
	Recognize(ctx context.Context, req Request) (*Transcription, error)
}

// APIError is returned when the provider rejects a request
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("speech API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("speech API error: %s", e.Message)
}

// EncodingForMIME maps an uploaded audio content type to the provider's
// encoding hint. Browsers record WebM/Opus, so that is the fallback.
func EncodingForMIME(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "audio/ogg", "audio/opus":
		return EncodingOggOpus
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/l16":
		return EncodingLinear16
	case "audio/flac", "audio/x-flac":
		return EncodingFLAC
	case "audio/mpeg", "audio/mp3":
		return EncodingMP3
	default:
		return EncodingWebMOpus
	}
}
