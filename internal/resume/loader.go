// Package resume extracts plain text from resume files.
package resume

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/job-agent/internal/types"
)

// Format identifies a supported resume file type
type Format string

const (
	// FormatPDF is a PDF document
	FormatPDF Format = "pdf"
	// FormatDOCX is an Office Open XML word document
	FormatDOCX Format = "docx"
	// FormatText is a plain text or markdown file
	FormatText Format = "text"
)

// DetectFormat maps a file path to its resume format based on the extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".md":
		return FormatText, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}

// Load reads the resume at path and returns its text.
// Any error means the run has no resume text to work with.
func Load(path string) (*types.Resume, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(path)
	case FormatDOCX:
		text, err = extractDOCX(path)
	case FormatText:
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Format: string(format), Cause: err}
	}

	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrapf(ErrEmptyResume, "%s", path)
	}

	return &types.Resume{Path: path, Text: text}, nil
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.Wrapf(err, "page %d", i)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func extractDOCX(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = doc.Close() }()

	return documentXMLText(doc.Editable().GetContent())
}

// documentXMLText flattens WordprocessingML into text, one line per paragraph.
func documentXMLText(content string) (string, error) {
	decoder := xml.NewDecoder(bytes.NewBufferString(content))

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "invalid document xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
