package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/partyplan/internal/cli"
	"horse.fit/partyplan/internal/funtranslate"
	"horse.fit/partyplan/internal/logging"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	category := fs.String("category", "", "Fun category (see \"partyplan categories\")")
	lang := fs.String("lang", "", "Authoring language of the text (detected when empty)")
	format := fs.String("format", outputFormatText, "Output format: text or json")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "translate requires the text to transform")
		fmt.Fprintln(os.Stderr, "usage: partyplan translate --category <name> [--lang <tag>] \"text\"")
		return 2
	}
	if strings.TrimSpace(*category) == "" {
		fmt.Fprintln(os.Stderr, "--category is required")
		return 2
	}
	outputFormat, err := parseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if _, ok := funtranslate.DefaultRegistry().Resolve(*category); !ok {
		fmt.Fprintf(os.Stderr, "unknown category %q; supported: %s\n", *category, strings.Join(funtranslate.DefaultRegistry().Names(), ", "))
		return 2
	}

	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	orchestrator, closeCache, err := buildOrchestrator(ctx, cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build translation pipeline: %v\n", err)
		return 1
	}
	defer closeCache()

	outcome := orchestrator.Translate(ctx, funtranslate.Request{
		SourceText: &text,
		Category:   *category,
		SourceLang: *lang,
	})

	if outputFormat == outputFormatJSON {
		if err := printJSON(outcome); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Println(outcome.Text)
	if !outcome.Applied {
		fmt.Fprintf(os.Stderr, "note: fun translation not applied (stage=%s kind=%s); original text returned\n", outcome.FailedStage, outcome.FailureKind)
	}
	return 0
}

func parseOutputFormat(raw string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = outputFormatText
	}
	switch format {
	case outputFormatText, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be text or json")
	}
}
