// Package extract turns stored study materials into plain text for prompts.
package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"learnwise/internal/storage"
	"learnwise/internal/util"

	"github.com/ledongthuc/pdf"
)

// Text returns the readable text of the file at path. Video files carry no
// text of their own and yield storage.ErrUnsupportedType.
func Text(path string) (string, error) {
	switch storage.CategoryOf(path) {
	case storage.CategoryVideo:
		return "", fmt.Errorf("%w: video files have no extractable text, send a transcript instead", storage.ErrUnsupportedType)
	case storage.CategoryPDF:
		return PDF(path)
	case storage.CategoryEPUB:
		return EPUB(path)
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return util.DecodeUTF8(b), nil
	}
}

func PDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}
