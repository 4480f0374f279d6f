package pipeline

import (
	"regexp"
	"strings"
)

// Field priority for extension attribution. Internal extensions show up
// on the agent leg of the CDR first, so source fields come before
// destination fields.
var extensionFields = []string{"src", "caller_id", "channel", "dst", "dst_channel"}

// Field priority for the customer-facing number. Outbound calls carry
// it in dst, inbound ones in caller_id or did.
var externalNumberFields = []string{"dst", "did", "caller_id", "src"}

// National format (leading 0, 9-11 digits) or E.164.
var externalNumberRe = regexp.MustCompile(`(?:\+[1-9]\d{7,14}|0\d{8,10})`)

// ExtractExtension scans CDR fields in priority order for an internal
// extension token carrying the given prefix ("ext" matches "ext204").
// First match wins; the empty string means no extension was found.
func ExtractExtension(cdr map[string]string, prefix string) string {
	if len(cdr) == 0 || prefix == "" {
		return ""
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(prefix) + `(\d{2,6})\b`)
	for _, field := range extensionFields {
		m := re.FindStringSubmatch(cdr[field])
		if len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// ExtractExternalNumber scans CDR fields in priority order for a
// national or E.164 formatted number. Returns the empty string when the
// call never touched an external line (internal call).
func ExtractExternalNumber(cdr map[string]string) string {
	for _, field := range externalNumberFields {
		v := strings.TrimSpace(cdr[field])
		if v == "" {
			continue
		}
		if m := externalNumberRe.FindString(v); m != "" {
			return m
		}
	}
	return ""
}
