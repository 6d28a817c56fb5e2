// Package dublincore provides a format plugin that writes the Dublin Core
// metadata files of a DSpace Simple Archive Format item.
package dublincore

import (
	"bytes"

	"github.com/osc-library/pmcdash/format"
)

// DashWriter is the ExtraWriters key for the local metadata schema file.
const DashWriter = "dash"

// Format implements the DSpace Dublin Core format.
type Format struct{}

// Ensure Format implements the interfaces
var (
	_ format.Format     = (*Format)(nil)
	_ format.Serializer = (*Format)(nil)
)

// Name returns the format identifier.
func (f *Format) Name() string {
	return "dublincore"
}

// Description returns a human-readable format description.
func (f *Format) Description() string {
	return "DSpace Simple Archive Format dublin_core.xml"
}

// Extensions returns file extensions associated with this format.
func (f *Format) Extensions() []string {
	return []string{"xml"}
}

// CanParse returns true if the input looks like a DSpace dublin_core.xml file.
func (f *Format) CanParse(peek []byte) bool {
	peek = bytes.TrimSpace(peek)
	if len(peek) == 0 || peek[0] != '<' {
		return false
	}
	return bytes.Contains(peek, []byte("<dublin_core")) && bytes.Contains(peek, []byte("<dcvalue"))
}

func init() {
	format.Register(&Format{})
}
