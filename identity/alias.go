package identity

// Name is a (first, last) name pair.
type Name struct {
	First string `mapstructure:"first" yaml:"first"`
	Last  string `mapstructure:"last" yaml:"last"`
}

// Alias rewrites one name variant to the form the identity service knows.
type Alias struct {
	From Name `mapstructure:"from" yaml:"from"`
	To   Name `mapstructure:"to" yaml:"to"`
}

// Aliases is a static name correction table. Keys hold only the first token
// of the given name, so middle names and initials do not defeat a match.
type Aliases map[Name]Name

// DefaultAliases returns the built-in corrections.
func DefaultAliases() Aliases {
	return Aliases{
		{First: "Peter", Last: "Kraft"}: {First: "Phillip", Last: "Kraft"},
	}
}

// NewAliases builds a table from a list of corrections. Later entries for the
// same name replace earlier ones.
func NewAliases(list []Alias) Aliases {
	aliases := make(Aliases, len(list))
	for _, a := range list {
		aliases[a.From] = a.To
	}
	return aliases
}

// Apply returns the corrected name, or the input unchanged.
func (a Aliases) Apply(first, last string) (string, string) {
	if to, ok := a[Name{First: first, Last: last}]; ok {
		return to.First, to.Last
	}
	return first, last
}
