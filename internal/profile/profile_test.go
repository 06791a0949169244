package profile

import (
	"reflect"
	"testing"
)

func TestSeniorityFromYears(t *testing.T) {
	t.Parallel()

	tests := []struct {
		years  float64
		expect Seniority
	}{
		{0.99, SeniorityTrainee},
		{1.0, SeniorityJunior},
		{1.99, SeniorityJunior},
		{2.0, SeniorityPleno},
		{4.99, SeniorityPleno},
		{5.0, SenioritySenior},
		{7.99, SenioritySenior},
		{8.0, SeniorityEspecialista},
	}

	for _, tt := range tests {
		years := tt.years
		if got := SeniorityFromYears(&years); got != tt.expect {
			t.Fatalf("years %.2f: expected %q, got %q", tt.years, tt.expect, got)
		}
	}

	if got := SeniorityFromYears(nil); got != SeniorityUnknown {
		t.Fatalf("expected unknown seniority for nil years, got %q", got)
	}
}

func TestNormalizeLinkedInURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "empty", input: "  ", expect: ""},
		{name: "adds scheme", input: "www.linkedin.com/in/ana", expect: "https://www.linkedin.com/in/ana"},
		{name: "strips leading slashes", input: "//linkedin.com/in/ana", expect: "https://linkedin.com/in/ana"},
		{name: "keeps scheme", input: "http://linkedin.com/in/ana", expect: "http://linkedin.com/in/ana"},
		{name: "other hosts untouched", input: "github.com/ana", expect: "github.com/ana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeLinkedInURL(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	t.Parallel()

	if got := NormalizeList("Go, , Python "); !reflect.DeepEqual(got, []string{"Go", "Python"}) {
		t.Fatalf("unexpected list from string: %v", got)
	}

	if got := NormalizeList([]any{" Go ", "", nil, 3}); !reflect.DeepEqual(got, []string{"Go", "3"}) {
		t.Fatalf("unexpected list from slice: %v", got)
	}

	if got := NormalizeList(nil); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestAcceptable(t *testing.T) {
	t.Parallel()

	if (CandidateProfile{Name: "Ana"}).Acceptable() {
		t.Fatalf("profile without url must not be acceptable")
	}
	if (CandidateProfile{LinkedInURL: "https://linkedin.com/in/ana"}).Acceptable() {
		t.Fatalf("profile without name must not be acceptable")
	}
	if !(CandidateProfile{Name: "Ana", LinkedInURL: "https://linkedin.com/in/ana"}).Acceptable() {
		t.Fatalf("expected complete profile to be acceptable")
	}
}

func TestRoundYears(t *testing.T) {
	t.Parallel()

	if got := RoundYears(42.0 / 12); got != 3.5 {
		t.Fatalf("expected 3.5, got %v", got)
	}
	if got := *Years(25.0 / 12); got != 2.1 {
		t.Fatalf("expected 2.1, got %v", got)
	}
}
