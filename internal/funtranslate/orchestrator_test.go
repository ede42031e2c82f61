package funtranslate

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

type stubCall struct {
	stage  string
	text   string
	source string
	target string
}

type callLog struct {
	calls []stubCall
}

func (l *callLog) stages() []string {
	out := make([]string, 0, len(l.calls))
	for _, call := range l.calls {
		out = append(out, call.stage)
	}
	return out
}

type stubResult struct {
	text string
	err  error
}

type stubLanguageClient struct {
	log     *callLog
	results []stubResult
}

func (c *stubLanguageClient) Translate(_ context.Context, text, sourceLang, targetLang string) (string, error) {
	idx := 0
	for _, call := range c.log.calls {
		if call.stage == "language" {
			idx++
		}
	}
	c.log.calls = append(c.log.calls, stubCall{stage: "language", text: text, source: sourceLang, target: targetLang})
	if idx >= len(c.results) {
		return "", &Failure{Kind: FailureTransport, Err: errors.New("unexpected language call")}
	}
	return c.results[idx].text, c.results[idx].err
}

type stubStyleClient struct {
	log    *callLog
	result stubResult
}

func (c *stubStyleClient) Style(_ context.Context, text, category string) (string, error) {
	c.log.calls = append(c.log.calls, stubCall{stage: "style", text: text, target: category})
	return c.result.text, c.result.err
}

type stubDetector struct {
	code  string
	calls int
}

func (d *stubDetector) Detect(string) string {
	d.calls++
	return d.code
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(
		CategoryDescriptor{Name: "pirate", RoundTrip: true},
		CategoryDescriptor{Name: "minion", RoundTrip: false},
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

func newTestOrchestrator(t *testing.T, lang *stubLanguageClient, style *stubStyleClient, opts Options) *Orchestrator {
	t.Helper()
	return NewOrchestrator(lang, style, testRegistry(t), zerolog.Nop(), opts)
}

func strPtr(s string) *string { return &s }

const (
	natalOriginal = "Ceia de Natal em família"
	natalEnglish  = "Christmas dinner with family"
	natalPirate   = "Christmas dinner wit' me hearty crew, arr!"
	natalBack     = "Ceia de Natal com minha tripulação, arr!"
)

func TestTranslate_NilSourceMakesNoCalls(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	o := newTestOrchestrator(t, &stubLanguageClient{log: log}, &stubStyleClient{log: log}, Options{})

	got := o.Translate(context.Background(), Request{SourceText: nil, Category: "pirate"})
	if got.Text != "" || got.Applied {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if len(log.calls) != 0 {
		t.Fatalf("expected no downstream calls, got %v", log.stages())
	}
}

func TestTranslate_UnresolvedCategoryKeepsOriginal(t *testing.T) {
	t.Parallel()

	for _, category := range []string{"unknown-style", "", "pirates", " yoda "} {
		log := &callLog{}
		o := newTestOrchestrator(t, &stubLanguageClient{log: log}, &stubStyleClient{log: log}, Options{})

		got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: category})
		if got.Text != natalOriginal || got.Applied {
			t.Fatalf("category %q: unexpected outcome: %+v", category, got)
		}
		if len(log.calls) != 0 {
			t.Fatalf("category %q: expected no downstream calls, got %v", category, log.stages())
		}
	}
}

func TestTranslate_CategoryMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{{text: "hello"}}}
	style := &stubStyleClient{log: log, result: stubResult{text: "bello"}}
	o := newTestOrchestrator(t, lang, style, Options{})

	got := o.Translate(context.Background(), Request{SourceText: strPtr("olá"), Category: "  MiNiOn "})
	if !got.Applied || got.Text != "bello" || got.Category != "minion" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if style.log.calls[1].target != "minion" {
		t.Fatalf("expected style call with canonical category name, got %q", style.log.calls[1].target)
	}
}

func TestTranslate_WithoutRoundTripMakesTwoCalls(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{{text: natalEnglish}}}
	style := &stubStyleClient{log: log, result: stubResult{text: "Bello! Christmas banana dinner"}}
	o := newTestOrchestrator(t, lang, style, Options{})

	got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "minion"})
	if !got.Applied || got.Text != "Bello! Christmas banana dinner" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if want := []string{"language", "style"}; !reflect.DeepEqual(log.stages(), want) {
		t.Fatalf("unexpected call sequence: got %v want %v", log.stages(), want)
	}
}

func TestTranslate_PirateScenarioRoundTrips(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{{text: natalEnglish}, {text: natalBack}}}
	style := &stubStyleClient{log: log, result: stubResult{text: natalPirate}}
	o := newTestOrchestrator(t, lang, style, Options{})

	got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "pirate"})
	if got.Text != natalBack || !got.Applied {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if got.FailedStage != StageNone || got.FailureKind != FailureNone {
		t.Fatalf("did not expect failure diagnostics: %+v", got)
	}

	want := []stubCall{
		{stage: "language", text: natalOriginal, source: "pt-br", target: "en"},
		{stage: "style", text: natalEnglish, target: "pirate"},
		{stage: "language", text: natalPirate, source: "en", target: "pt-br"},
	}
	if !reflect.DeepEqual(log.calls, want) {
		t.Fatalf("unexpected calls:\n got %+v\nwant %+v", log.calls, want)
	}
}

func TestTranslate_NormalizeFailureFallsBackToOriginal(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{{err: &Failure{Kind: FailureStatus, StatusCode: 403}}}}
	style := &stubStyleClient{log: log, result: stubResult{text: natalPirate}}
	o := newTestOrchestrator(t, lang, style, Options{})

	got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "pirate"})
	if got.Text != natalOriginal || got.Applied {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if got.FailedStage != StageNormalize || got.FailureKind != FailureStatus {
		t.Fatalf("unexpected failure diagnostics: %+v", got)
	}
	if want := []string{"language"}; !reflect.DeepEqual(log.stages(), want) {
		t.Fatalf("style must not run with a missing value: got %v", log.stages())
	}
}

func TestTranslate_StyleFailureSkipsRoundTrip(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{{text: natalEnglish}, {text: natalBack}}}
	style := &stubStyleClient{log: log, result: stubResult{err: &Failure{Kind: FailureStatus, StatusCode: 429}}}
	o := newTestOrchestrator(t, lang, style, Options{})

	got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "pirate"})
	if got.Text != natalOriginal || got.Applied {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if got.FailedStage != StageStyle {
		t.Fatalf("unexpected failed stage: %q", got.FailedStage)
	}
	if want := []string{"language", "style"}; !reflect.DeepEqual(log.stages(), want) {
		t.Fatalf("unexpected call sequence: got %v want %v", log.stages(), want)
	}
}

func TestTranslate_EmptyStyleResultCountsAsFailure(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{{text: natalEnglish}}}
	style := &stubStyleClient{log: log, result: stubResult{text: "   "}}
	o := newTestOrchestrator(t, lang, style, Options{})

	got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "pirate"})
	if got.Text != natalOriginal || got.Applied || got.FailureKind != FailureEmpty {
		t.Fatalf("unexpected outcome: %+v", got)
	}
}

func TestTranslate_RoundTripFailureKeepsStyledText(t *testing.T) {
	t.Parallel()

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{
		{text: natalEnglish},
		{err: &Failure{Kind: FailureTransport, Err: errors.New("connection refused")}},
	}}
	style := &stubStyleClient{log: log, result: stubResult{text: natalPirate}}
	o := newTestOrchestrator(t, lang, style, Options{})

	got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "pirate"})
	if got.Text != natalPirate || !got.Applied {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if got.FailedStage != StageRoundTrip || got.FailureKind != FailureTransport {
		t.Fatalf("unexpected failure diagnostics: %+v", got)
	}
	if want := []string{"language", "style", "language"}; !reflect.DeepEqual(log.stages(), want) {
		t.Fatalf("unexpected call sequence: got %v want %v", log.stages(), want)
	}
}

func TestTranslate_AuthoringLanguageResolution(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		explicit string
		detected string
		want     string
	}{
		{name: "explicit wins", explicit: "ES", detected: "pt", want: "es"},
		{name: "detected keeps regional default", detected: "pt", want: "pt-br"},
		{name: "detected other language", detected: "fr", want: "fr"},
		{name: "detection inconclusive", detected: "", want: "pt-br"},
	}

	for _, tc := range cases {
		log := &callLog{}
		lang := &stubLanguageClient{log: log, results: []stubResult{{text: "hello"}, {text: "back"}}}
		style := &stubStyleClient{log: log, result: stubResult{text: "ahoy"}}
		detector := &stubDetector{code: tc.detected}
		o := newTestOrchestrator(t, lang, style, Options{Detector: detector})

		got := o.Translate(context.Background(), Request{
			SourceText: strPtr("texto qualquer"),
			Category:   "pirate",
			SourceLang: tc.explicit,
		})
		if got.SourceLang != tc.want {
			t.Fatalf("%s: unexpected source lang: got %q want %q", tc.name, got.SourceLang, tc.want)
		}
		if log.calls[0].source != tc.want || log.calls[2].target != tc.want {
			t.Fatalf("%s: round trip must return to %q, calls=%+v", tc.name, tc.want, log.calls)
		}
		if tc.explicit != "" && detector.calls != 0 {
			t.Fatalf("%s: detector must not run when a language is given", tc.name)
		}
	}
}

func TestTranslate_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	log := &callLog{}
	lang := &stubLanguageClient{log: log, results: []stubResult{{text: natalEnglish}}}
	style := &stubStyleClient{log: log, result: stubResult{err: &Failure{Kind: FailureStatus, StatusCode: 429}}}
	o := newTestOrchestrator(t, lang, style, Options{Metrics: metrics})

	o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "pirate"})
	o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "nope"})

	if got := testutil.ToFloat64(metrics.stageTotal.WithLabelValues("normalize", "ok")); got != 1 {
		t.Fatalf("unexpected normalize ok count: %v", got)
	}
	if got := testutil.ToFloat64(metrics.stageTotal.WithLabelValues("style", "status")); got != 1 {
		t.Fatalf("unexpected style status count: %v", got)
	}
	if got := testutil.ToFloat64(metrics.outcomeTotal.WithLabelValues("unresolved", "false")); got != 1 {
		t.Fatalf("unexpected unresolved outcome count: %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	found := false
	for _, family := range families {
		if strings.HasPrefix(family.GetName(), "partyplan_fun_translation_") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pipeline metrics to be registered")
	}
}

func TestTranslate_MissingClientsDegradeToOriginal(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(nil, nil, nil, zerolog.Nop(), Options{})
	got := o.Translate(context.Background(), Request{SourceText: strPtr(natalOriginal), Category: "pirate"})
	if got.Text != natalOriginal || got.Applied || got.FailedStage != StageNormalize {
		t.Fatalf("unexpected outcome: %+v", got)
	}
}

func TestTranslate_IntermediateLanguageSourceSkipsLanguageStages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		explicit string
		detected string
		category string
	}{
		{name: "detected english with round trip", detected: "en", category: "pirate"},
		{name: "explicit regional english", explicit: "en-US", category: "pirate"},
		{name: "detected english without round trip", detected: "en", category: "minion"},
	}

	for _, tc := range cases {
		reg := prometheus.NewRegistry()
		metrics := NewMetrics(reg)
		log := &callLog{}
		lang := &stubLanguageClient{log: log}
		style := &stubStyleClient{log: log, result: stubResult{text: "Ahoy, a party fer all hands!"}}
		o := newTestOrchestrator(t, lang, style, Options{Detector: &stubDetector{code: tc.detected}, Metrics: metrics})

		got := o.Translate(context.Background(), Request{
			SourceText: strPtr("A party for everyone!"),
			Category:   tc.category,
			SourceLang: tc.explicit,
		})
		if !got.Applied || got.Text != "Ahoy, a party fer all hands!" || got.FailedStage != StageNone {
			t.Fatalf("%s: unexpected outcome: %+v", tc.name, got)
		}
		if want := []string{"style"}; !reflect.DeepEqual(log.stages(), want) {
			t.Fatalf("%s: unexpected calls: got %v want %v", tc.name, log.stages(), want)
		}
		if log.calls[0].text != "A party for everyone!" {
			t.Fatalf("%s: style must receive the original text, got %q", tc.name, log.calls[0].text)
		}
		if got := testutil.ToFloat64(metrics.stageTotal.WithLabelValues("normalize", "skipped")); got != 1 {
			t.Fatalf("%s: unexpected skipped normalize count: %v", tc.name, got)
		}
	}
}
