package archive

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Export file names written by the archive's nightly dump.
const (
	DOIsFile        = "dois.tsv"
	TitlesFile      = "titles.tsv"
	ExternalIDsFile = "pmcids.tsv"
)

// LoadTSV reads the three export files from dir. Only the first
// tab-separated column of each line is used.
func LoadTSV(dir string) (*Known, error) {
	known := NewKnown()

	files := []struct {
		name string
		add  func(string)
	}{
		{DOIsFile, known.AddDOI},
		{TitlesFile, known.AddTitle},
		{ExternalIDsFile, known.AddExternalID},
	}
	for _, f := range files {
		if err := readFirstColumn(filepath.Join(dir, f.name), f.add); err != nil {
			return nil, err
		}
	}
	return known, nil
}

func readFirstColumn(path string, add func(string)) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		value, _, _ := strings.Cut(line, "\t")
		add(value)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
