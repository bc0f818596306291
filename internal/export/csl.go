package export

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID        string    `yaml:"id"`
	Type      string    `yaml:"type"`
	Title     string    `yaml:"title"`
	Author    []CSLName `yaml:"author,omitempty"`
	Abstract  string    `yaml:"abstract,omitempty"`
	Issued    *CSLDate  `yaml:"issued,omitempty"`
	URL       string    `yaml:"URL,omitempty"`
	Number    string    `yaml:"number,omitempty"`
	Publisher string    `yaml:"publisher,omitempty"`
	Keyword   string    `yaml:"keyword,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes papers as a CSL-YAML list to w. arXiv preprints are
// typed "article" with the arXiv ID as number.
func FormatCSL(papers []types.Paper, w io.Writer) error {
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		items[i] = toCSLItem(p)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a Paper to a CSLItem.
func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:       p.ID,
		Type:     "article",
		Title:    p.Title,
		Abstract: p.Summary,
		URL:      p.Link,
		Keyword:  strings.Join(p.Categories, ", "),
	}
	if item.ID == "" {
		item.ID = p.Link
	}
	if p.ID != "" {
		item.Number = "arXiv:" + p.ID
		item.Publisher = "arXiv"
	}

	for _, a := range strings.Split(p.Authors, ",") {
		if name := parseAuthorName(a); name != (CSLName{}) {
			item.Author = append(item.Author, name)
		}
	}

	if !p.Published.IsZero() {
		d := p.Published.UTC()
		item.Issued = &CSLDate{
			DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}},
		}
	}
	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
