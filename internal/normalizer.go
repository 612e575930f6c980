package internal

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Normalizer cleans raw record content before it reaches a session builder.
// All methods are pure functions over a single string.
type Normalizer struct {
	redactPII      bool
	redactTracking bool
}

// NewNormalizer creates a Normalizer honoring the redaction options.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{
		redactPII:      opts.RedactPII,
		redactTracking: opts.RedactTracking,
	}
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
	multiBlankRe  = regexp.MustCompile(`\n{3,}`)

	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,2}[\s.\-]?)?(\(\d{3}\)|\b\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
	ssnRe   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	upsRe   = regexp.MustCompile(`\b1Z[0-9A-Z]{16}\b`)
	uspsRe  = regexp.MustCompile(`\b9[2-5]\d{20,24}\b`)
	fedexRe = regexp.MustCompile(`\b\d{12}(\d{3})?\b`)

	// Common mail-client reply markers; everything from the marker on is
	// quoted history, not authored content.
	replyMarkerRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^On .{5,120} wrote:\s*$`),
		regexp.MustCompile(`(?m)^-{2,}\s*Original Message\s*-{2,}\s*$`),
		regexp.MustCompile(`(?m)^-{2,}\s*Forwarded message\s*-{2,}\s*$`),
		regexp.MustCompile(`(?m)^From: .+\nSent: .+$`),
	}
	quotedLineRe = regexp.MustCompile(`(?m)^>.*$`)
)

// Normalize runs the full cleaning pipeline: mojibake repair, markup
// stripping, entity decoding, configured redactions, whitespace collapse.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = FixMojibake(s)
	s = StripHTML(s)
	if n.redactTracking {
		s = RedactTrackingNumbers(s)
	}
	if n.redactPII {
		s = RedactPII(s)
	}
	return collapseWhitespace(s)
}

// NormalizeCorrespondence additionally strips quoted reply history, which
// only appears in mail bodies.
func (n *Normalizer) NormalizeCorrespondence(s string) string {
	if s == "" {
		return ""
	}
	s = FixMojibake(s)
	s = StripHTML(s)
	s = StripQuotedReply(s)
	if n.redactTracking {
		s = RedactTrackingNumbers(s)
	}
	if n.redactPII {
		s = RedactPII(s)
	}
	return collapseWhitespace(s)
}

// FixMojibake repairs the Latin-1 double-encoding common in Meta exports: a
// UTF-8 byte sequence that was decoded as Latin-1 and re-encoded. If every
// rune fits in a byte and those bytes form valid UTF-8, re-interpret them.
func FixMojibake(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s
		}
		b = append(b, byte(r))
	}
	if utf8.Valid(b) {
		return ensureHeartVariant(string(b))
	}
	return s
}

// ensureHeartVariant appends VS-16 to a bare U+2764 heart so it renders as
// emoji, matching what the exports intend.
func ensureHeartVariant(s string) string {
	if !strings.ContainsRune(s, '❤') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 3)
	runes := []rune(s)
	for i, r := range runes {
		sb.WriteRune(r)
		if r == '❤' && (i+1 >= len(runes) || runes[i+1] != '️') {
			sb.WriteRune('️')
		}
	}
	return sb.String()
}

// StripHTML removes markup and decodes entities, leaving plain text.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	s = scriptStyleRe.ReplaceAllString(s, "")
	s = htmlTagRe.ReplaceAllString(s, " ")
	return html.UnescapeString(s)
}

// StripQuotedReply drops quoted history ("On ... wrote:", "> " lines,
// forwarded-message blocks) from a mail body.
func StripQuotedReply(s string) string {
	cut := len(s)
	for _, re := range replyMarkerRes {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	s = s[:cut]
	return quotedLineRe.ReplaceAllString(s, "")
}

// RedactPII masks email addresses, phone numbers and SSN-shaped identifiers.
func RedactPII(s string) string {
	s = emailRe.ReplaceAllString(s, "[email]")
	s = ssnRe.ReplaceAllString(s, "[id]")
	s = phoneRe.ReplaceAllString(s, "[phone]")
	return s
}

// RedactTrackingNumbers masks carrier tracking numbers (UPS, USPS, FedEx).
// Runs before phone redaction so long digit runs are not half-eaten.
func RedactTrackingNumbers(s string) string {
	s = upsRe.ReplaceAllString(s, "[tracking]")
	s = uspsRe.ReplaceAllString(s, "[tracking]")
	s = fedexRe.ReplaceAllString(s, "[tracking]")
	return s
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = multiBlankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
