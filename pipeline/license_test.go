package pipeline

import (
	"testing"

	"github.com/osc-library/pmcdash/article"
)

func TestLicenser(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		units   []string
		want    string
	}{
		{"disabled keeps default", false, []string{"FAS"}, "LAA"},
		{"open access unit", true, []string{"HMS", "GSE"}, "OAP"},
		{"other units", true, []string{"HMS"}, "LAA"},
		{"unknown unit only", true, []string{""}, "LAA"},
		{"no units", true, nil, "LAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLicenser("LAA", "OAP", []string{"FAS", "GSE", "HLS"}, tt.enabled)
			a := article.New()
			a.InstitutionUnits = article.NewUnitSet(tt.units...)
			if got := l.Assign(a); got != tt.want || a.License != tt.want {
				t.Errorf("Assign() = %q (article %q), want %q", got, a.License, tt.want)
			}
		})
	}
}
