package resume

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
	}{
		{"resume.pdf", FormatPDF},
		{"Resume.PDF", FormatPDF},
		{"/tmp/cv.docx", FormatDOCX},
		{"notes.txt", FormatText},
		{"resume.md", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := DetectFormat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestDetectFormat_Unsupported(t *testing.T) {
	for _, path := range []string{"resume.doc", "resume.odt", "resume", "resume.pdf.bak"} {
		t.Run(path, func(t *testing.T) {
			_, err := DetectFormat(path)
			assert.True(t, errors.Is(err, ErrUnsupportedFormat))
		})
	}
}

func TestLoad_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Python, SQL, 3 years data analysis"), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.Path)
	assert.Equal(t, "Python, SQL, 3 years data analysis", r.Text)
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n\t"), 0o600))

	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrEmptyResume))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "text", parseErr.Format)
}

func TestLoad_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

	_, err := Load(path)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "pdf", parseErr.Format)
}

func TestLoad_Unsupported(t *testing.T) {
	_, err := Load("resume.rtf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDocumentXMLText(t *testing.T) {
	content := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Python,</w:t></w:r><w:r><w:t xml:space="preserve"> SQL</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	text, err := documentXMLText(content)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nPython, SQL\n", text)
}

func TestLoad_PDF(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "resume.pdf"))
	require.NoError(t, err)

	// Pages are concatenated in order; each text object and line move starts a new line
	assert.Contains(t, res.Text, "Jane Doe\nPython, SQL, 3 years data analysis\n")
	assert.True(t, strings.HasSuffix(res.Text, "\nSecond page: dashboards in Tableau"), res.Text)
	assert.Less(t, strings.Index(res.Text, "Jane Doe"), strings.Index(res.Text, "Second page"))
}

func TestLoad_DOCX(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "resume.docx"))
	require.NoError(t, err)

	// One line per paragraph; runs within a paragraph are joined
	assert.Equal(t, "Jane Doe\nPython, SQL, 3 years data analysis\nSkills\tTableau\n", res.Text)
}

func TestLoad_DOCXNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text pretending to be docx"), 0o644))

	_, err := Load(path)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, string(FormatDOCX), parseErr.Format)
}
