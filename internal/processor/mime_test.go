package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMIME(t *testing.T) {
	cases := []struct {
		contentType string
		filename    string
		want        string
	}{
		{"", "notes.pdf", MIMEText},
		{"text/markdown", "x.txt", MIMEMarkdown},
		{"text/html; charset=utf-8", "", MIMEHTML},
		{"Application/PDF", "", MIMEPDF},
		{MIMEOctet, "report.PDF", MIMEPDF},
		{MIMEOctet, "readme.md", MIMEMarkdown},
		{MIMEOctet, "old.doc", MIMEMSWord},
		{MIMEOctet, "blob.bin", MIMEOctet},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectMIME(tc.contentType, tc.filename), "%q %q", tc.contentType, tc.filename)
	}
}
