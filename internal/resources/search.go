package resources

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Search returns the records where any displayed column contains query,
// ignoring case. An empty query matches everything.
func Search(k *Kind, records []Record, query string) []Record {
	fold := cases.Fold()
	needle := foldString(fold, strings.TrimSpace(query))

	if needle == "" {
		return records
	}

	var matched []Record

	for _, r := range records {
		for _, c := range k.Columns {
			if strings.Contains(foldString(fold, r.Value(c)), needle) {
				matched = append(matched, r)
				break
			}
		}
	}

	return matched
}

// foldString normalizes s to NFC before case folding so composed and
// decomposed accents compare equal.
func foldString(fold cases.Caser, s string) string {
	return fold.String(norm.NFC.String(s))
}
