package attachment

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Purpose says what an uploaded file is attached as.
type Purpose string

const (
	PurposeCoverLetter Purpose = "coverLetter"
	PurposeLogo        Purpose = "logo"
)

const MiB = 1 << 20

// Rule is the allow-list and size ceiling for one purpose. Types maps each
// accepted MIME type to its canonical file extension.
type Rule struct {
	MaxBytes int64
	Types    map[string]string
}

var rules = map[Purpose]Rule{
	PurposeCoverLetter: {
		MaxBytes: 10 * MiB,
		Types: map[string]string{
			"application/pdf":    ".pdf",
			"application/msword": ".doc",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
		},
	},
	PurposeLogo: {
		MaxBytes: 5 * MiB,
		Types: map[string]string{
			"image/jpeg": ".jpg",
			"image/png":  ".png",
			"image/gif":  ".gif",
			"image/webp": ".webp",
		},
	},
}

func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(s)
	if _, ok := rules[p]; !ok {
		return "", fmt.Errorf("unknown upload type %q", s)
	}
	return p, nil
}

// RuleFor returns the rule of a known purpose.
func RuleFor(p Purpose) (Rule, bool) {
	r, ok := rules[p]
	return r, ok
}

// Allowed lists the accepted MIME types in a stable order.
func (r Rule) Allowed() []string {
	out := make([]string, 0, len(r.Types))
	for t := range r.Types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ContentTypeFor maps the extension of a stored name back to the MIME type
// an allow-list pairs it with. Extensions no rule knows are reported as
// application/octet-stream. inline is true only for logo images.
func ContentTypeFor(name string) (mimeType string, inline bool) {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return "application/octet-stream", false
	}
	for p, rule := range rules {
		for t, e := range rule.Types {
			if e == ext {
				return t, p == PurposeLogo
			}
		}
	}
	return "application/octet-stream", false
}
