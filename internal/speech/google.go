package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// maxResponseSize bounds how much of a provider response is read
const maxResponseSize = 4 << 20

// GoogleConfig configures the Google Speech-to-Text client
type GoogleConfig struct {
	Endpoint        string
	APIKey          string
	CredentialsFile string
	Timeout         time.Duration
}

// GoogleClient calls the Speech-to-Text v1 speech:recognize method
type GoogleClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewGoogleClient builds a client. An API key is sent as a query parameter;
// without one the client authenticates with a service account file or
// Application Default Credentials.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("speech endpoint is required")
	}

	var httpClient *http.Client
	switch {
	case cfg.APIKey != "":
		httpClient = &http.Client{}
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		httpClient = oauth2.NewClient(ctx, creds.TokenSource)
	default:
		client, err := google.DefaultClient(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("no API key and no default credentials: %w", err)
		}
		httpClient = client
	}
	httpClient.Timeout = cfg.Timeout

	return &GoogleClient{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string `json:"encoding"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	EnableWordTimeOffsets      bool   `json:"enableWordTimeOffsets"`
	Model                      string `json:"model,omitempty"`
	UseEnhanced                bool   `json:"useEnhanced"`
	MaxAlternatives            int    `json:"maxAlternatives"`
}

type recognitionAudio struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Recognize sends the audio bytes unchanged, base64 encoded, in a single
// blocking call. There is no retry.
func (c *GoogleClient) Recognize(ctx context.Context, req Request) (*Transcription, error) {
	encoding := req.Encoding
	if encoding == "" {
		encoding = EncodingWebMOpus
	}

	body, err := json.Marshal(recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   encoding,
			LanguageCode:               req.Language,
			EnableAutomaticPunctuation: req.Punctuation,
			EnableWordTimeOffsets:      false,
			Model:                      req.Model,
			UseEnhanced:                req.Enhanced,
			MaxAlternatives:            MaxAlternatives,
		},
		Audio: recognitionAudio{Content: base64.StdEncoding.EncodeToString(req.Audio)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.endpoint
	if c.apiKey != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid speech endpoint: %w", err)
		}
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// the URL may carry the API key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("failed to decode speech response: %w", err)
	}

	if parsed.Error != nil || resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if parsed.Error != nil {
			apiErr.Message = parsed.Error.Message
			var envelope struct {
				Error json.RawMessage `json:"error"`
			}
			if json.Unmarshal(raw, &envelope) == nil {
				apiErr.Details = envelope.Error
			}
		}
		return nil, apiErr
	}

	return toTranscription(&parsed), nil
}

func toTranscription(resp *recognizeResponse) *Transcription {
	t := &Transcription{Alternatives: []Alternative{}}
	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return t
	}

	alts := resp.Results[0].Alternatives
	t.Transcript = alts[0].Transcript
	t.Confidence = clamp(alts[0].Confidence)
	for _, alt := range alts[1:] {
		t.Alternatives = append(t.Alternatives, Alternative{
			Transcript: alt.Transcript,
			Confidence: clamp(alt.Confidence),
		})
	}
	return t
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
