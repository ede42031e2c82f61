package funtranslate

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultStyleBaseURL is the FunTranslations API root. Category endpoints are "<base><category>.json".
const DefaultStyleBaseURL = "https://api.funtranslations.com/translate/"

var errClientNotInitialized = errors.New("client is not initialized")

// StyleClient rewrites text in a named fun style.
type StyleClient interface {
	Style(ctx context.Context, text, category string) (string, error)
}

// FunTranslationsClient talks to a FunTranslations compatible API through a Gateway.
type FunTranslationsClient struct {
	gateway Gateway
	baseURL string
	logger  zerolog.Logger
}

func NewFunTranslationsClient(gateway Gateway, baseURL string, logger zerolog.Logger) *FunTranslationsClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultStyleBaseURL
	}
	return &FunTranslationsClient{
		gateway: gateway,
		baseURL: baseURL,
		logger:  logger,
	}
}

type styleRequest struct {
	Text string `json:"text"`
}

type styleResponse struct {
	Contents *struct {
		Translated *string `json:"translated"`
	} `json:"contents"`
}

func (c *FunTranslationsClient) Style(ctx context.Context, text, category string) (string, error) {
	if c == nil || c.gateway == nil {
		return "", transportFailure(errClientNotInitialized)
	}

	body, err := json.Marshal(styleRequest{Text: text})
	if err != nil {
		return "", malformedFailure("marshal style request: %v", err)
	}

	endpoint := c.endpointFor(category)
	c.logger.Debug().Str("endpoint", endpoint).Msg("style translation request")

	raw, err := c.gateway.Post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var parsed styleResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", malformedFailure("decode style response: %v", err)
	}
	if parsed.Contents == nil || parsed.Contents.Translated == nil {
		return "", malformedFailure("style response missing contents.translated")
	}
	if strings.TrimSpace(*parsed.Contents.Translated) == "" {
		return "", &Failure{Kind: FailureEmpty}
	}
	return *parsed.Contents.Translated, nil
}

func (c *FunTranslationsClient) endpointFor(category string) string {
	return c.baseURL + url.PathEscape(category) + ".json"
}
