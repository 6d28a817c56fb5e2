package aggregate

// DefaultCodes maps archive unit codes to the directory's school codes.
var DefaultCodes = map[string]string{
	"HBS":  "HBS",
	"HDS":  "HDS",
	"GSD":  "GSD",
	"GSE":  "GSE",
	"HKS":  "HKS",
	"HLS":  "HLS",
	"HMS":  "HMS",
	"SPH":  "SPH",
	"FAS":  "FAS",
	"HSDM": "HSDM",
	"RAD":  "RAD",
	"SEAS": "SEAS",
}

// CodeTable is a bidirectional mapping between the archive's unit codes and
// the directory codes used for collection names.
type CodeTable struct {
	toDirectory map[string]string
	toArchive   map[string]string
}

// NewCodeTable builds a table from archive→directory pairs. A nil map uses
// DefaultCodes.
func NewCodeTable(archiveToDirectory map[string]string) *CodeTable {
	if archiveToDirectory == nil {
		archiveToDirectory = DefaultCodes
	}
	t := &CodeTable{
		toDirectory: make(map[string]string, len(archiveToDirectory)),
		toArchive:   make(map[string]string, len(archiveToDirectory)),
	}
	for archive, directory := range archiveToDirectory {
		t.toDirectory[archive] = directory
		t.toArchive[directory] = archive
	}
	return t
}

// ToDirectory maps an archive code to its directory code.
func (t *CodeTable) ToDirectory(archive string) (string, bool) {
	code, ok := t.toDirectory[archive]
	return code, ok
}

// ToArchive maps a directory code back to its archive code.
func (t *CodeTable) ToArchive(directory string) (string, bool) {
	code, ok := t.toArchive[directory]
	return code, ok
}

// Len returns the number of mapped codes.
func (t *CodeTable) Len() int {
	return len(t.toDirectory)
}
