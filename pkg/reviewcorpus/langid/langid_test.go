package langid

import "testing"

type fixedClassifier struct {
	label      string
	confidence float64
	calls      int
}

func (f *fixedClassifier) Predict(string) (string, float64) {
	f.calls++
	return f.label, f.confidence
}

type panickyClassifier struct{}

func (panickyClassifier) Predict(string) (string, float64) { panic("model exploded") }

func TestBelowThresholdIsUnknown(t *testing.T) {
	d := NewDetector(&fixedClassifier{label: "en", confidence: 0.79}, 0.80, 2)

	if got := d.Detect("this is english"); got != Unknown {
		t.Errorf("Expected %q below threshold, got %q", Unknown, got)
	}
	if d.IsEnglish("this is english") {
		t.Error("IsEnglish should be false below threshold")
	}
}

func TestAtThresholdIsAccepted(t *testing.T) {
	d := NewDetector(&fixedClassifier{label: "en", confidence: 0.80}, 0.80, 2)
	if !d.IsEnglish("this is english") {
		t.Error("Confidence equal to threshold should be accepted")
	}
}

func TestShortTextNeverClassified(t *testing.T) {
	clf := &fixedClassifier{label: "en", confidence: 1}
	d := NewDetector(clf, 0.8, 2)

	for _, text := range []string{"", "   ", "great"} {
		if got := d.Detect(text); got != Unknown {
			t.Errorf("Detect(%q) = %q, want %q", text, got, Unknown)
		}
	}
	if clf.calls != 0 {
		t.Errorf("Classifier should not run for short text, ran %d times", clf.calls)
	}
}

func TestOtherLanguageRejected(t *testing.T) {
	d := NewDetector(&fixedClassifier{label: "es", confidence: 0.99}, 0.8, 2)
	if got := d.Detect("muy buen producto"); got != "es" {
		t.Errorf("Expected es, got %q", got)
	}
	if d.IsEnglish("muy buen producto") {
		t.Error("Spanish should not pass the English filter")
	}
}

func TestClassifierPanicIsUnknown(t *testing.T) {
	d := NewDetector(panickyClassifier{}, 0.8, 2)
	if got := d.Detect("some words here"); got != Unknown {
		t.Errorf("Expected %q on classifier failure, got %q", Unknown, got)
	}
}

func TestDefaults(t *testing.T) {
	d := NewDetector(&fixedClassifier{}, 0, 0)
	if d.Threshold() != DefaultThreshold {
		t.Errorf("Expected default threshold %v, got %v", DefaultThreshold, d.Threshold())
	}
}
