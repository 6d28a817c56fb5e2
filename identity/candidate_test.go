package identity

import (
	"encoding/json"
	"testing"
)

func TestBestCandidate(t *testing.T) {
	tests := []struct {
		name        string
		confidences []float64
		wantOK      bool
		want        float64
	}{
		{"tie at the top", []float64{0.5, 0.9, 0.9}, false, 0},
		{"below threshold skipped", []float64{0.2, 0.5}, true, 0.5},
		{"empty", nil, false, 0},
		{"all below threshold", []float64{0.1, 0.33}, false, 0},
		{"threshold inclusive", []float64{0.34}, true, 0.34},
		{"higher clears tie", []float64{0.5, 0.5, 0.8}, true, 0.8},
		{"lower tie ignored", []float64{0.9, 0.5, 0.5}, true, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var candidates []Candidate
			for i, c := range tt.confidences {
				candidates = append(candidates, Candidate{Authority: string(rune('a' + i)), Confidence: c})
			}

			got, ok := BestCandidate(candidates, DefaultThreshold)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Confidence != tt.want {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.want)
			}
		})
	}
}

func TestBestCandidateKeepsFirstOfEqualAfterTieCleared(t *testing.T) {
	candidates := []Candidate{
		{Authority: "first", Confidence: 0.6},
		{Authority: "second", Confidence: 0.7},
	}
	got, ok := BestCandidate(candidates, DefaultThreshold)
	if !ok || got.Authority != "second" {
		t.Errorf("BestCandidate() = %+v, %v", got, ok)
	}
}

func TestCandidateUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Candidate
	}{
		{
			name: "numeric confidence",
			json: `{"authority":"12345","confidence":0.9,"schools":["HMS","SPH"],"label":"Doe, Jane"}`,
			want: Candidate{Authority: "12345", Confidence: 0.9, Schools: []string{"HMS", "SPH"}, Label: "Doe, Jane"},
		},
		{
			name: "string confidence",
			json: `{"authority":"12345","confidence":"0.75","label":"Doe, Jane"}`,
			want: Candidate{Authority: "12345", Confidence: 0.75, Label: "Doe, Jane"},
		},
		{
			name: "numeric authority and malformed schools",
			json: `{"authority":678,"confidence":"1.0","schools":"HMS","label":"Roe, R"}`,
			want: Candidate{Authority: "678", Confidence: 1, Label: "Roe, R"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Candidate
			if err := json.Unmarshal([]byte(tt.json), &got); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if got.Authority != tt.want.Authority || got.Confidence != tt.want.Confidence || got.Label != tt.want.Label {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if len(got.Schools) != len(tt.want.Schools) {
				t.Fatalf("Schools = %v, want %v", got.Schools, tt.want.Schools)
			}
			for i := range got.Schools {
				if got.Schools[i] != tt.want.Schools[i] {
					t.Errorf("Schools = %v, want %v", got.Schools, tt.want.Schools)
				}
			}
		})
	}
}

func TestCandidateUnmarshalBadConfidence(t *testing.T) {
	for _, input := range []string{
		`{"authority":"1","label":"x"}`,
		`{"authority":"1","confidence":"high"}`,
		`{"authority":"1","confidence":[1]}`,
	} {
		var c Candidate
		if err := json.Unmarshal([]byte(input), &c); err == nil {
			t.Errorf("Unmarshal(%s) should fail", input)
		}
	}
}
