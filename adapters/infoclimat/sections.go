package infoclimat

import (
	"fmt"
	"strings"

	"gostatlab/domain/core"
	"gostatlab/domain/dataset"
)

// Line positions of the CSV export. Lines 0-4 and 6 are comments about
// the station, line 5 holds the column titles.
const titleLine = 5

var metadataLines = map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 6: true}

// Sections is a CSV export split into its parts.
type Sections struct {
	Metadata []string
	Titles   []string
	Rows     [][]string
}

// ExtractSections splits an export on newlines. Data rows are the
// non-blank lines after the header block, split on ';'.
func ExtractSections(text string) *Sections {
	s := &Sections{}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case metadataLines[i]:
			s.Metadata = append(s.Metadata, line)
		case i == titleLine:
			s.Titles = strings.Split(line, ";")
		case strings.TrimSpace(line) != "":
			s.Rows = append(s.Rows, strings.Split(line, ";"))
		}
	}
	return s
}

// DataTable returns the observations as a table. Blank titles are named
// after their position.
func (s *Sections) DataTable() (*dataset.Table, error) {
	if len(s.Titles) == 0 {
		return nil, fmt.Errorf("%w: export has no title line", core.ErrInsufficientData)
	}
	headers := make([]string, len(s.Titles))
	for i, t := range s.Titles {
		if strings.TrimSpace(t) == "" {
			t = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = t
	}
	return dataset.NewTable(headers, s.Rows)
}

// MetadataTable returns the comment lines as a single "metadata" column.
func (s *Sections) MetadataTable() (*dataset.Table, error) {
	rows := make([][]string, len(s.Metadata))
	for i, m := range s.Metadata {
		rows[i] = []string{m}
	}
	return dataset.NewTable([]string{"metadata"}, rows)
}
