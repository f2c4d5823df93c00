// Package language defines the selectable source/target language codes.
package language

import (
	"fmt"
	"sort"
	"strings"
)

// Code is a short language selector understood by the translation function.
// "gb" and "ca" select the British English and Canadian French voices.
type Code string

var names = map[Code]string{
	"en": "English (US)",
	"gb": "English (UK)",
	"es": "Spanish",
	"fr": "French",
	"ca": "French (Canada)",
	"nl": "Dutch",
	"hi": "Hindi",
	"pl": "Polish",
	"ja": "Japanese",
	"ru": "Russian",
	"de": "German",
	"it": "Italian",
	"sv": "Swedish",
}

// spoken are the codes the translation function can transcribe. Any other
// source would be recognized as US English.
var spoken = map[Code]bool{"en": true, "gb": true, "es": true, "fr": true, "ca": true}

// Pair is one source/target selection.
type Pair struct {
	Source Code
	Target Code
}

func (p Pair) String() string {
	return string(p.Source) + "->" + string(p.Target)
}

// Parse normalizes raw and validates it against the supported set.
func Parse(raw string) (Code, error) {
	code := Code(strings.ToLower(strings.TrimSpace(raw)))
	if code == "" {
		return "", fmt.Errorf("language must not be empty")
	}
	if _, ok := names[code]; !ok {
		return "", fmt.Errorf("unsupported language %q (supported: %s)", raw, strings.Join(codeStrings(Supported()), ", "))
	}
	return code, nil
}

// ParseSource is Parse restricted to languages that can be spoken into the recorder.
func ParseSource(raw string) (Code, error) {
	code, err := Parse(raw)
	if err != nil {
		return "", err
	}
	if !spoken[code] {
		return "", fmt.Errorf("language %q cannot be transcribed (spoken: %s)", code, strings.Join(codeStrings(Sources()), ", "))
	}
	return code, nil
}

// ParsePair validates both halves of a selection.
func ParsePair(source, target string) (Pair, error) {
	src, err := ParseSource(source)
	if err != nil {
		return Pair{}, fmt.Errorf("source: %w", err)
	}
	dst, err := Parse(target)
	if err != nil {
		return Pair{}, fmt.Errorf("target: %w", err)
	}
	return Pair{Source: src, Target: dst}, nil
}

// Name returns the display name for code, or the code itself when unknown.
func Name(code Code) string {
	if name, ok := names[code]; ok {
		return name
	}
	return string(code)
}

// Supported lists every target code in sorted order.
func Supported() []Code {
	out := make([]Code, 0, len(names))
	for code := range names {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Sources lists the codes accepted as a source language, sorted.
func Sources() []Code {
	var out []Code
	for _, code := range Supported() {
		if spoken[code] {
			out = append(out, code)
		}
	}
	return out
}

// CanSpeak reports whether code is accepted as a source language.
func CanSpeak(code Code) bool {
	return spoken[code]
}

func codeStrings(codes []Code) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, string(code))
	}
	return out
}
