package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractExtractor runs a local OCR pass over the document image and
// recovers name/dob from the recognized text with label heuristics. Used as
// the offline alternative to the remote model and by the reverify worker.
type TesseractExtractor struct {
	Language string // tesseract language pack, defaults to eng
}

// Extract preprocesses the image (grayscale, contrast, upscale for small
// scans), OCRs it and parses identity fields out of the text.
func (t *TesseractExtractor) Extract(ctx context.Context, image []byte) (Fields, error) {
	if err := ctx.Err(); err != nil {
		return Fields{}, err
	}
	img, err := imaging.Decode(bytes.NewReader(image))
	if err != nil {
		return Fields{}, fmt.Errorf("decode image: %w", err)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < 900 {
		gray = imaging.Resize(gray, 0, 1300, imaging.Lanczos)
	}

	tmp, err := os.CreateTemp("", "idscan-*.png")
	if err != nil {
		return Fields{}, err
	}
	defer os.Remove(tmp.Name())
	_ = tmp.Close()
	if err := imaging.Save(gray, tmp.Name()); err != nil {
		return Fields{}, fmt.Errorf("save preprocessed image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	_ = client.SetLanguage(lang)
	if err := client.SetImage(tmp.Name()); err != nil {
		return Fields{}, err
	}
	text, err := client.Text()
	if err != nil {
		return Fields{}, fmt.Errorf("ocr: %w", err)
	}
	return ParseIdentityText(text)
}

var (
	nameLabelRE = regexp.MustCompile(`(?i)\b(?:full\s*name|name|nama)\s*[:\-]\s*([A-Za-z][A-Za-z .'-]+)`)
	dobLabelRE  = regexp.MustCompile(`(?i)\b(?:date\s*of\s*birth|birth\s*date|dob|d\.o\.b\.?)\s*[:\-]?\s*([0-9]{1,2}[-/. ][0-9]{1,2}[-/. ][0-9]{2,4})`)
	anyDateRE   = regexp.MustCompile(`\b([0-9]{1,2}[-/][0-9]{1,2}[-/][0-9]{4})\b`)
)

// ParseIdentityText pulls a fullName/dob pair out of raw OCR text. Labeled
// lines win; an unlabeled dd-mm-yyyy date is accepted as dob when no DOB
// label survived the scan. Fails with ErrNoFields when either field is
// missing, never substituting defaults.
func ParseIdentityText(text string) (Fields, error) {
	var f Fields
	if m := nameLabelRE.FindStringSubmatch(text); len(m) >= 2 {
		f.FullName = collapseSpaces(m[1])
	}
	if m := dobLabelRE.FindStringSubmatch(text); len(m) >= 2 {
		f.DOB = normalizeDateSeparators(m[1])
	} else if m := anyDateRE.FindStringSubmatch(text); len(m) >= 2 {
		f.DOB = normalizeDateSeparators(m[1])
	}
	if f.FullName == "" || f.DOB == "" {
		return Fields{}, ErrNoFields
	}
	return f, nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

// normalizeDateSeparators rewrites slash/dot/space separated dates to the
// dashed form profiles store (dd-mm-yyyy).
func normalizeDateSeparators(s string) string {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"/", ".", " "} {
		s = strings.ReplaceAll(s, sep, "-")
	}
	return s
}
