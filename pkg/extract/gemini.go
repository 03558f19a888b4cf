package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1/models"

// geminiPrompt is the fixed instruction sent with every image.
const geminiPrompt = "Extract full name and date of birth from this ID image. " +
	"Return in JSON format with 'fullName' and 'dob'."

// GeminiExtractor calls a Google generative-language vision model and parses
// its textual reply as an identity-fields JSON object.
type GeminiExtractor struct {
	APIKey   string
	Model    string // e.g. gemini-1.5-pro
	Endpoint string // overridable for tests
	Client   *http.Client
}

// NewGeminiExtractor builds an extractor for the given API key and model
// with a bounded per-call timeout so a hung upstream cannot pin a request.
func NewGeminiExtractor(apiKey, model string) *GeminiExtractor {
	if model == "" {
		model = "gemini-1.5-pro"
	}
	return &GeminiExtractor{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: defaultGeminiEndpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract submits the image with the fixed prompt and decodes the model's
// reply. Any transport error, empty reply or unparseable payload is an
// extraction failure for this image.
func (g *GeminiExtractor) Extract(ctx context.Context, image []byte) (Fields, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: geminiPrompt},
				{InlineData: &geminiInlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Fields{}, err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.Endpoint, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Fields{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return Fields{}, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Fields{}, fmt.Errorf("read extraction reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Fields{}, fmt.Errorf("extraction service status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Fields{}, fmt.Errorf("decode extraction reply: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Fields{}, ErrNoText
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return Fields{}, ErrNoText
	}
	return decodeFields(text)
}
