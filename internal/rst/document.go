package rst

import "strings"

// underlineChars are the adornment characters recognized as heading rules.
const underlineChars = "=-~^\"'`#"

type heading struct {
	line  int
	title string
	char  byte
	// span is the number of lines the heading occupies (2, or 3 with an overline).
	span int
}

type section struct {
	title string
	lines []string
}

func (s section) text() string {
	return strings.Join(s.lines, "\n")
}

type document struct {
	title    string
	sections []section
}

func (d document) find(title string) (section, bool) {
	for _, s := range d.sections {
		if strings.EqualFold(s.title, title) {
			return s, true
		}
	}
	return section{}, false
}

func isRule(line string) (byte, bool) {
	line = strings.TrimRight(line, " \t")
	if len(line) < 3 || !strings.ContainsRune(underlineChars, rune(line[0])) {
		return 0, false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != line[0] {
			return 0, false
		}
	}
	return line[0], true
}

// scanHeadings finds title lines followed by a rule. A matching rule above
// the title is treated as an overline.
func scanHeadings(lines []string) []heading {
	var out []heading
	for i := 1; i < len(lines); i++ {
		char, ok := isRule(lines[i])
		if !ok {
			continue
		}
		title := strings.TrimSpace(lines[i-1])
		if title == "" {
			continue
		}
		if _, prevRule := isRule(lines[i-1]); prevRule {
			continue
		}
		h := heading{line: i - 1, title: title, char: char, span: 2}
		if i >= 2 {
			if over, ok := isRule(lines[i-2]); ok && over == char {
				h.line, h.span = i-2, 3
			}
		}
		out = append(out, h)
	}
	return out
}

// split cuts text into documents at level-1 headings and each document into
// sections at every deeper heading. Levels follow the order in which
// adornment characters first appear. Text before the first level-1 heading is
// discarded. The first section of a document holds the text between its
// title and its first sub-heading and has an empty title.
func split(text string) []document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	headings := scanHeadings(lines)
	if len(headings) == 0 {
		return nil
	}
	top := headings[0].char

	var docs []document
	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].line
		}
		body := lines[h.line+h.span : end]
		if h.char == top {
			docs = append(docs, document{title: h.title, sections: []section{{lines: body}}})
			continue
		}
		if len(docs) == 0 {
			continue
		}
		d := &docs[len(docs)-1]
		d.sections = append(d.sections, section{title: h.title, lines: body})
	}
	return docs
}

// paragraphs groups lines into blank-line separated paragraphs joined by
// spaces. A line opening with bold text starts a new paragraph. Grid table
// rows are skipped.
func paragraphs(lines []string) []string {
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "|"):
			flush()
		case strings.HasPrefix(trimmed, "**"):
			flush()
			cur = append(cur, trimmed)
		default:
			cur = append(cur, trimmed)
		}
	}
	flush()
	return out
}
