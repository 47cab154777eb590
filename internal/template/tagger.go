package template

import (
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"
)

// OCRTagger derives tags from any text baked into a template graphic, so
// banner artwork like "SALE" or "SOLD" becomes searchable without manual
// tagging. Construction is optional; the library works without it.
type OCRTagger struct{}

// NewOCRTagger returns a tagger backed by the system tesseract install.
func NewOCRTagger() *OCRTagger {
	return &OCRTagger{}
}

// Tags runs OCR over the image data and returns the distinct words found,
// lowercased. Single characters and pure punctuation are dropped.
func (o *OCRTagger) Tags(data []byte) ([]string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, err
	}
	text, err := client.Text()
	if err != nil {
		return nil, err
	}
	return extractWords(text), nil
}

func extractWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var tags []string
	for _, f := range fields {
		w := strings.ToLower(f)
		if len(w) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		tags = append(tags, w)
	}
	return tags
}
