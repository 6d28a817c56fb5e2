package pipeline

import "github.com/osc-library/pmcdash/article"

// Licenser picks the license an import package is deposited under.
type Licenser struct {
	Default    string
	OpenAccess string

	// Units switch an article to OpenAccess when Enabled
	Units   article.UnitSet
	Enabled bool
}

// NewLicenser returns a licenser. Open-access assignment stays off until
// enabled is true.
func NewLicenser(def, openAccess string, units []string, enabled bool) *Licenser {
	return &Licenser{
		Default:    def,
		OpenAccess: openAccess,
		Units:      article.NewUnitSet(units...),
		Enabled:    enabled,
	}
}

// Assign returns the license for a and records it on the article.
func (l *Licenser) Assign(a *article.Article) string {
	a.License = l.Default
	if l.Enabled {
		for _, unit := range a.InstitutionUnits.NonEmpty() {
			if l.Units.Has(unit) {
				a.License = l.OpenAccess
				break
			}
		}
	}
	return a.License
}
