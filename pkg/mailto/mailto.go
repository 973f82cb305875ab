// Package mailto composes pre-filled email drafts as mailto: links.
package mailto

import (
	"strings"
)

// Draft is an email the visitor's own mail client will open.
type Draft struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Link renders the draft as a mailto: URL. Recipients are comma separated and
// subject/body are escaped the way browsers' encodeURIComponent does, so spaces
// become %20 rather than '+', which several mail clients would show literally.
func (d Draft) Link() string {
	var b strings.Builder
	b.WriteString("mailto:")
	for i, to := range d.To {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeAddress(to))
	}

	sep := byte('?')
	if d.Subject != "" {
		b.WriteByte(sep)
		b.WriteString("subject=")
		b.WriteString(EncodeComponent(d.Subject))
		sep = '&'
	}
	if d.Body != "" {
		b.WriteByte(sep)
		b.WriteString("body=")
		b.WriteString(EncodeComponent(normalizeNewlines(d.Body)))
	}
	return b.String()
}

// EncodeComponent percent-encodes s leaving only the characters that
// encodeURIComponent leaves: A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// escapeAddress keeps '@' readable while escaping anything that would break
// the recipient list.
func escapeAddress(addr string) string {
	local, domain, found := strings.Cut(strings.TrimSpace(addr), "@")
	if !found {
		return EncodeComponent(local)
	}
	return EncodeComponent(local) + "@" + EncodeComponent(domain)
}

// RFC 6068 asks for CRLF line breaks in the body.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
