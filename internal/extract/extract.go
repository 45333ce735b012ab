package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"
)

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
	mimeTIFF = "image/tiff"
)

// Text pulls plain text out of an uploaded document. PDFs go through
// github.com/ledongthuc/pdf; scanned images go through tesseract via
// github.com/otiai10/gosseract.
func Text(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty document data")
	}

	switch normalizeMimeType(mimeType, fileName) {
	case mimePDF:
		return pdfText(data)
	case mimePNG, mimeJPEG, mimeTIFF:
		return imageText(data)
	default:
		return "", fmt.Errorf("unsupported mime type: %s", mimeType)
	}
}

func pdfText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return buf.String(), nil
}

func imageText(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("ocr set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr recognize: %w", err)
	}
	return text, nil
}

func normalizeMimeType(mimeType string, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "" && clean != "application/octet-stream" {
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".png":
		return mimePNG
	case ".jpg", ".jpeg":
		return mimeJPEG
	case ".tif", ".tiff":
		return mimeTIFF
	default:
		return clean
	}
}
