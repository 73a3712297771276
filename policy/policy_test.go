package policy

import (
	"testing"

	"github.com/elum-utils/moderate/models"
)

func TestDecideFlagsAtThreshold(t *testing.T) {
	p := New(Labels{})
	c := models.Classification{Label: DefaultLabels().Positive, Score: 0.5}

	if d := p.Decide(c, 0.5); !d.Flagged {
		t.Fatal("score equal to threshold must flag")
	}
	if d := p.Decide(c, 0.500001); d.Flagged {
		t.Fatal("score below threshold must not flag")
	}
}

func TestDecideNegativeLabelNeverFlags(t *testing.T) {
	p := New(Labels{})
	c := models.Classification{Label: DefaultLabels().Negative, Score: 0.99}
	if d := p.Decide(c, 0.5); d.Flagged {
		t.Fatalf("negative label flagged: %+v", d)
	}
}

func TestDecideDeterministic(t *testing.T) {
	p := New(Labels{})
	c := models.Classification{Label: "profane", Score: 0.9}
	first := p.Decide(c, 0.5)
	for i := 0; i < 10; i++ {
		if got := p.Decide(c, 0.5); got != first {
			t.Fatalf("decision changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestPositivePrefixMatch(t *testing.T) {
	p := New(Labels{Positive: "profane", Negative: "non-profane"})
	if !p.Positive("profane") {
		t.Fatal("exact positive label not recognized")
	}
	if p.Positive("non-profane") {
		t.Fatal("non-profane must not match the positive class")
	}
	long := New(Labels{})
	if !long.Positive("profane, vulgar, obscene, offensive language") {
		t.Fatal("descriptive positive label not recognized")
	}
	if long.Positive("clean, appropriate, respectful language") {
		t.Fatal("descriptive negative label matched as positive")
	}
}

func TestBlankDecision(t *testing.T) {
	p := New(Labels{})
	d := p.Blank()
	if d.Flagged || d.Confidence != 0 {
		t.Fatalf("blank decision = %+v", d)
	}
	if d.Label != DefaultLabels().Negative {
		t.Fatalf("blank label = %q", d.Label)
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank("") || !IsBlank("   \t\n") {
		t.Fatal("whitespace-only text must be blank")
	}
	if IsBlank(" x ") {
		t.Fatal("non-blank text reported blank")
	}
}

func TestCandidatesOrder(t *testing.T) {
	p := New(Labels{Positive: "profane", Negative: "clean"})
	got := p.Candidates()
	if len(got) != 2 || got[0] != "profane" || got[1] != "clean" {
		t.Fatalf("candidates = %v", got)
	}
}
