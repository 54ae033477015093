package voiceerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying fault")
	err := Wrap(KindAudioLoadFailure, cause, "could not read %q", "input.wav")
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is did not find the wrapped cause")
	}
	var target *Error
	if !errors.As(err, &target) {
		t.Fatalf("errors.As failed to extract *Error")
	}
	if target.Kind != KindAudioLoadFailure {
		t.Errorf("Kind = %v, want KindAudioLoadFailure", target.Kind)
	}
}

func TestQualityInsufficientCarriesScore(t *testing.T) {
	err := QualityInsufficient(18.5, []string{"voiced_ratio too low"})
	if err.Kind != KindProfileQualityInsufficient {
		t.Errorf("Kind = %v, want KindProfileQualityInsufficient", err.Kind)
	}
	if err.Score != 18.5 {
		t.Errorf("Score = %v, want 18.5", err.Score)
	}
	if len(err.Issues) != 1 {
		t.Errorf("Issues = %v, want 1 entry", err.Issues)
	}
}

func TestWithSuggestionsDoesNotMutateOriginal(t *testing.T) {
	base := New(KindUnsupportedFormat, "unsupported format %q", "aiff")
	withSuggestions := base.WithSuggestions("convert to WAV first")
	if len(base.Suggestions) != 0 {
		t.Errorf("original Suggestions mutated: %v", base.Suggestions)
	}
	if len(withSuggestions.Suggestions) != 1 {
		t.Errorf("withSuggestions.Suggestions = %v, want 1 entry", withSuggestions.Suggestions)
	}
}
