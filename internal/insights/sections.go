package insights

import (
	"strings"
)

// Section is one heading-delimited block of generated text.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ParseSections splits text into sections. A heading is a line made of two
// or more '#' followed by whitespace and a non-empty title; a section runs
// until the next heading. Text before the first heading is dropped, and
// text without headings yields no sections.
func ParseSections(text string) []Section {
	var (
		out  []Section
		cur  *Section
		body []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.TrimSpace(strings.Join(body, "\n"))
		out = append(out, *cur)
		body = body[:0]
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if title, ok := headingTitle(line); ok {
			flush()
			cur = &Section{Title: title}
			continue
		}
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return out
}

func headingTitle(line string) (string, bool) {
	s := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n < 2 || n == len(s) || (s[n] != ' ' && s[n] != '\t') {
		return "", false
	}
	title := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s[n:]), "#"))
	if title == "" {
		return "", false
	}
	return title, true
}
