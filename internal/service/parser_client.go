package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/model"

	"github.com/rs/zerolog"
)

// ParsedItem is one financial item extracted from free-form input by the
// parser service. Kind selects which fields are meaningful.
type ParsedItem struct {
	Kind        string                `json:"kind"` // "transaction" or "debt"
	AmountCents int64                 `json:"amount_cents"`
	Type        model.TransactionType `json:"type"`
	Category    string                `json:"category"`
	Description string                `json:"description"`

	// Debt-only fields.
	DebtType         model.DebtType `json:"debt_type"`
	PersonName       string         `json:"person_name"`
	Currency         string         `json:"currency"`
	MoneyTransferred bool           `json:"money_transferred"`
}

const (
	ParsedKindTransaction = "transaction"
	ParsedKindDebt        = "debt"
)

// ParserClient talks to the Python parser service that turns natural
// language and voice recordings into structured financial items.
type ParserClient interface {
	ParseText(ctx context.Context, userID, text string) ([]ParsedItem, error)
	ParseVoice(ctx context.Context, userID, audioURL string) ([]ParsedItem, error)
}

type parserClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewParserClient creates a ParserClient against the given base URL.
func NewParserClient(baseURL string, logger zerolog.Logger) ParserClient {
	return &parserClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger.With().Str("service", "ParserClient").Logger(),
	}
}

type parseTextRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type parseVoiceRequest struct {
	UserID   string `json:"user_id"`
	AudioURL string `json:"audio_url"`
}

type parseResponse struct {
	Items []ParsedItem `json:"items"`
}

func (c *parserClient) ParseText(ctx context.Context, userID, text string) ([]ParsedItem, error) {
	return c.post(ctx, "/parse/text", parseTextRequest{UserID: userID, Text: text})
}

func (c *parserClient) ParseVoice(ctx context.Context, userID, audioURL string) ([]ParsedItem, error) {
	return c.post(ctx, "/parse/voice", parseVoiceRequest{UserID: userID, AudioURL: audioURL})
}

func (c *parserClient) post(ctx context.Context, path string, body interface{}) ([]ParsedItem, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request to parser service: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			c.logger.Warn().Err(readErr).Int("status_code", resp.StatusCode).Msg("Failed to read error body from parser service")
			return nil, fmt.Errorf("parser service returned status %d", resp.StatusCode)
		}
		errorMsg := string(bodyBytes)
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("error_body", errorMsg).
			Msg("Parser service returned error")
		return nil, fmt.Errorf("parser service returned status %d: %s", resp.StatusCode, errorMsg)
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding parser response: %w", err)
	}
	return parsed.Items, nil
}
