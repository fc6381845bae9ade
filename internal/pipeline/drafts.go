package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// DraftWriter saves approved email drafts under a single directory, one
// file per lead. Reprocessing a lead overwrites its file.
type DraftWriter struct {
	Dir string
}

// Save writes the draft and returns the path it was written to.
func (w *DraftWriter) Save(lead model.Lead, content string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "drafts: mkdir %s", w.Dir)
	}

	path := filepath.Join(w.Dir, fmt.Sprintf("lead_%s_%s.txt", lead.ID, slugify(lead.Name)))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", eris.Wrapf(err, "drafts: write %s", path)
	}
	return path, nil
}

// stripMarks removes combining marks after NFD decomposition, turning
// accented letters into their ASCII base.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slugify produces a filesystem-safe token from a lead name: diacritics
// stripped, lowercased, runs of anything non-alphanumeric collapsed to a
// single underscore.
func slugify(name string) string {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
