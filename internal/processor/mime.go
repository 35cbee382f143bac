package processor

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	MIMEText      = "text/plain"
	MIMEMarkdown  = "text/markdown"
	MIMEXMarkdown = "text/x-markdown"
	MIMEHTML      = "text/html"
	MIMEPDF       = "application/pdf"
	MIMEMSWord    = "application/msword"
	MIMEDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEOctet     = "application/octet-stream"
)

var extMIME = map[string]string{
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".txt":      MIMEText,
	".html":     MIMEHTML,
	".htm":      MIMEHTML,
	".pdf":      MIMEPDF,
	".doc":      MIMEMSWord,
	".docx":     MIMEDOCX,
}

// DetectMIME picks the parser type for an upload. The declared type wins;
// an empty type means plain text and a generic binary type falls back to
// the file extension.
func DetectMIME(contentType, filename string) string {
	ct := strings.TrimSpace(contentType)
	if ct != "" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			ct = parsed
		}
		ct = strings.ToLower(ct)
	}
	switch ct {
	case "":
		return MIMEText
	case MIMEOctet:
		if byExt, ok := extMIME[strings.ToLower(filepath.Ext(filename))]; ok {
			return byExt
		}
	}
	return ct
}
