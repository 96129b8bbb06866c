// Package markup turns inline HTML from the reference into annotated plain text.
package markup

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// DefaultBaseURL is the address relative links in the reference resolve against.
const DefaultBaseURL = "https://core.telegram.org/bots/api"

var (
	emphasisRe = regexp.MustCompile(`</?em>`)
	strongRe   = regexp.MustCompile(`</?strong>`)
	codeRe     = regexp.MustCompile(`</?code>`)
	linkRe     = regexp.MustCompile(`<a\s[^>]*?href="([^"]*)"[^>]*>(.*?)</a>`)

	entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">")
)

// Normalizer rewrites inline markup. It is safe for concurrent use.
type Normalizer struct {
	base *url.URL
}

// New returns a Normalizer resolving links against baseURL, which must be absolute.
func New(baseURL string) (*Normalizer, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base URL %q", baseURL)
	}
	if !base.IsAbs() {
		return nil, errors.Errorf("base URL %q is not absolute", baseURL)
	}
	return &Normalizer{base: base}, nil
}

// Text normalizes one inner-HTML fragment: em becomes _x_, strong **x**, code `x`,
// the bracket entities are decoded and links become [text](absolute URL).
// Anything it does not recognize is left as is.
func (n *Normalizer) Text(fragment string) string {
	out := emphasisRe.ReplaceAllString(fragment, "_")
	out = strongRe.ReplaceAllString(out, "**")
	out = codeRe.ReplaceAllString(out, "`")
	out = entityReplacer.Replace(out)
	return n.links(out)
}

func (n *Normalizer) links(s string) string {
	matches := linkRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		href, text := s[m[2]:m[3]], s[m[4]:m[5]]
		if resolved, ok := n.resolve(href); ok {
			b.WriteString("[" + text + "](" + resolved + ")")
		} else {
			b.WriteString(s[m[0]:m[1]])
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func (n *Normalizer) resolve(href string) (string, bool) {
	ref, err := url.Parse(html.UnescapeString(href))
	if err != nil {
		return "", false
	}
	return n.base.ResolveReference(ref).String(), true
}
