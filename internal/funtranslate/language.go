package funtranslate

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLanguageEndpoint is the Google Cloud Translation v2 REST endpoint.
const DefaultLanguageEndpoint = "https://translation.googleapis.com/language/translate/v2"

// LanguageClient translates text between two natural languages.
type LanguageClient interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// GoogleClient talks to a Google Translate v2 compatible endpoint through a Gateway.
type GoogleClient struct {
	gateway  Gateway
	endpoint string
	apiKey   string
	logger   zerolog.Logger
}

func NewGoogleClient(gateway Gateway, endpoint, apiKey string, logger zerolog.Logger) *GoogleClient {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultLanguageEndpoint
	}
	return &GoogleClient{
		gateway:  gateway,
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   logger,
	}
}

type googleTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleTranslateResponse struct {
	Data *struct {
		Translations []struct {
			TranslatedText *string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (c *GoogleClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if c == nil || c.gateway == nil {
		return "", transportFailure(errClientNotInitialized)
	}

	body, err := json.Marshal(googleTranslateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", malformedFailure("marshal language request: %v", err)
	}

	c.logger.Debug().
		Str("endpoint", c.redactedEndpoint()).
		Str("source_lang", sourceLang).
		Str("target_lang", targetLang).
		Msg("language translation request")

	raw, err := c.gateway.Post(ctx, c.requestURL(), body)
	if err != nil {
		return "", err
	}

	var parsed googleTranslateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", malformedFailure("decode language response: %v", err)
	}
	if parsed.Data == nil || len(parsed.Data.Translations) == 0 {
		return "", malformedFailure("language response missing data.translations")
	}
	translated := parsed.Data.Translations[0].TranslatedText
	if translated == nil {
		return "", malformedFailure("language response missing translatedText")
	}
	if strings.TrimSpace(*translated) == "" {
		return "", &Failure{Kind: FailureEmpty}
	}
	return *translated, nil
}

// requestURL appends the credential as the key query parameter. A missing key is sent as-is
// and surfaces as an authorization failure from the vendor.
func (c *GoogleClient) requestURL() string {
	return withQueryParam(c.endpoint, "key", c.apiKey)
}

func (c *GoogleClient) redactedEndpoint() string {
	if c.apiKey == "" {
		return c.requestURL()
	}
	return withQueryParam(c.endpoint, "key", "REDACTED")
}

func withQueryParam(endpoint, key, value string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		separator := "?"
		if strings.Contains(endpoint, "?") {
			separator = "&"
		}
		return endpoint + separator + key + "=" + url.QueryEscape(value)
	}
	query := parsed.Query()
	query.Set(key, value)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
