package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLetters is the shortest sample worth running detection on.
const minLetters = 12

// candidates are the languages event descriptions are expected in.
var candidates = []lingua.Language{
	lingua.Portuguese,
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
}

// Detector guesses the ISO 639-1 code of an event description.
// The underlying lingua detector is built lazily on first use and shared.
type Detector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns a lowercase ISO 639-1 code, or "" for short or ambiguous text.
func (d *Detector) Detect(text string) string {
	if d == nil {
		return ""
	}
	sample := strings.TrimSpace(text)
	if countLetters(sample) < minLetters {
		return ""
	}

	language, exists := d.get().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func (d *Detector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			WithMinimumRelativeDistance(0.1).
			Build()
	})
	return d.detector
}

func countLetters(sample string) int {
	count := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			count++
		}
	}
	return count
}
