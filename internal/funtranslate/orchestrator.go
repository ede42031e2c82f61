package funtranslate

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/partyplan/internal/language"
)

const (
	// DefaultAuthoringLanguage is assumed when a description carries no language and detection is inconclusive.
	DefaultAuthoringLanguage = "pt-br"
	// DefaultIntermediateLanguage is the language the style vendor understands.
	DefaultIntermediateLanguage = "en"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageNone      Stage = ""
	StageNormalize Stage = "normalize"
	StageStyle     Stage = "style"
	StageRoundTrip Stage = "round_trip"
)

// Request is one pipeline invocation. A nil SourceText means the event has no description.
type Request struct {
	SourceText *string
	Category   string
	// SourceLang is the authoring language when the caller knows it.
	SourceLang string
}

// Outcome is the text the caller should store as the translated description.
// Applied is false when no transformation happened and Text is the original (or empty).
type Outcome struct {
	Text        string      `json:"text"`
	Applied     bool        `json:"applied"`
	Category    string      `json:"category,omitempty"`
	SourceLang  string      `json:"source_lang,omitempty"`
	FailedStage Stage       `json:"failed_stage,omitempty"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
}

// LanguageDetector guesses the language tag of a text, returning "" when unsure.
type LanguageDetector interface {
	Detect(text string) string
}

// Options configures an Orchestrator. Zero values select the defaults.
type Options struct {
	AuthoringLanguage    string
	IntermediateLanguage string
	Detector             LanguageDetector
	Metrics              *Metrics
}

// Orchestrator sequences the language and style clients for one description.
// It holds no per-call state and is safe for concurrent use.
type Orchestrator struct {
	language     LanguageClient
	style        StyleClient
	registry     *Registry
	logger       zerolog.Logger
	authoring    string
	intermediate string
	detector     LanguageDetector
	metrics      *Metrics
}

func NewOrchestrator(
	languageClient LanguageClient,
	styleClient StyleClient,
	registry *Registry,
	logger zerolog.Logger,
	opts Options,
) *Orchestrator {
	if registry == nil {
		registry = DefaultRegistry()
	}
	authoring := language.NormalizeTag(opts.AuthoringLanguage)
	if authoring == "" {
		authoring = DefaultAuthoringLanguage
	}
	intermediate := language.NormalizeTag(opts.IntermediateLanguage)
	if intermediate == "" {
		intermediate = DefaultIntermediateLanguage
	}
	return &Orchestrator{
		language:     languageClient,
		style:        styleClient,
		registry:     registry,
		logger:       logger.With().Str("component", "fun_translation").Logger(),
		authoring:    authoring,
		intermediate: intermediate,
		detector:     opts.Detector,
		metrics:      opts.Metrics,
	}
}

// Registry exposes the category set the orchestrator resolves against.
func (o *Orchestrator) Registry() *Registry {
	if o == nil {
		return nil
	}
	return o.registry
}

// Translate runs the pipeline. It never fails: every failure degrades to the best text available.
func (o *Orchestrator) Translate(ctx context.Context, req Request) Outcome {
	if req.SourceText == nil {
		return Outcome{Text: "", Applied: false}
	}
	original := *req.SourceText

	descriptor, ok := o.registry.Resolve(req.Category)
	if !ok {
		o.logger.Warn().Str("category", req.Category).Msg("fun category not found; keeping original description")
		o.metrics.observeOutcome("", false)
		return Outcome{Text: original, Applied: false}
	}

	sourceLang := o.authoringLanguage(req.SourceLang, original)
	log := o.logger.With().
		Str("category", descriptor.Name).
		Str("source_lang", sourceLang).
		Str("intermediate_lang", o.intermediate).
		Logger()

	fallback := func(stage Stage, err error) Outcome {
		kind := KindOf(err)
		log.Warn().Err(err).Str("stage", string(stage)).Str("failure_kind", string(kind)).
			Msg("fun translation stage failed; keeping original description")
		o.metrics.observeOutcome(descriptor.Name, false)
		return Outcome{
			Text:        original,
			Applied:     false,
			Category:    descriptor.Name,
			SourceLang:  sourceLang,
			FailedStage: stage,
			FailureKind: kind,
		}
	}

	// Text already in the intermediate language goes straight to the style stage.
	sameLanguage := language.SamePrimary(sourceLang, o.intermediate)
	normalized := original
	if sameLanguage {
		log.Debug().Msg("source already in intermediate language; skipping language stages")
		o.metrics.observeSkipped(StageNormalize)
	} else {
		var err error
		normalized, err = o.runLanguage(ctx, StageNormalize, original, sourceLang, o.intermediate)
		if err != nil {
			return fallback(StageNormalize, err)
		}
	}

	styled, err := o.runStyle(ctx, normalized, descriptor.Name)
	if err != nil {
		return fallback(StageStyle, err)
	}

	outcome := Outcome{
		Text:       styled,
		Applied:    true,
		Category:   descriptor.Name,
		SourceLang: sourceLang,
	}

	if descriptor.RoundTrip && sameLanguage {
		o.metrics.observeSkipped(StageRoundTrip)
	} else if descriptor.RoundTrip {
		back, err := o.runLanguage(ctx, StageRoundTrip, styled, o.intermediate, sourceLang)
		if err != nil {
			kind := KindOf(err)
			log.Warn().Err(err).Str("stage", string(StageRoundTrip)).Str("failure_kind", string(kind)).
				Msg("round trip failed; keeping styled text")
			outcome.FailedStage = StageRoundTrip
			outcome.FailureKind = kind
			o.metrics.observeOutcome(descriptor.Name, true)
			return outcome
		}
		outcome.Text = back
	}

	log.Debug().Bool("round_trip", descriptor.RoundTrip).Msg("fun translation applied")
	o.metrics.observeOutcome(descriptor.Name, true)
	return outcome
}

func (o *Orchestrator) runLanguage(ctx context.Context, stage Stage, text, sourceLang, targetLang string) (string, error) {
	if o.language == nil {
		return "", transportFailure(errClientNotInitialized)
	}
	started := time.Now()
	out, err := o.language.Translate(ctx, text, sourceLang, targetLang)
	if err == nil && strings.TrimSpace(out) == "" {
		err = &Failure{Kind: FailureEmpty}
	}
	o.metrics.observeStage(stage, started, err)
	return out, err
}

func (o *Orchestrator) runStyle(ctx context.Context, text, category string) (string, error) {
	if o.style == nil {
		return "", transportFailure(errClientNotInitialized)
	}
	started := time.Now()
	out, err := o.style.Style(ctx, text, category)
	if err == nil && strings.TrimSpace(out) == "" {
		err = &Failure{Kind: FailureEmpty}
	}
	o.metrics.observeStage(StageStyle, started, err)
	return out, err
}

// authoringLanguage picks the explicit tag, then a detected one, then the configured default.
// A detected primary code matching the default keeps the default's regional tag.
func (o *Orchestrator) authoringLanguage(explicit, text string) string {
	if tag := language.NormalizeTag(explicit); tag != "" {
		return tag
	}
	if o.detector != nil {
		if detected := language.NormalizeTag(o.detector.Detect(text)); detected != "" {
			if language.SamePrimary(detected, o.authoring) {
				return o.authoring
			}
			return detected
		}
	}
	return o.authoring
}
