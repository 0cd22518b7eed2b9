// Package markup converts narrative HTML into Markdown.
package markup

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// ToMarkdown renders html as Markdown. Unknown tags are unwrapped, entities
// decoded, and whitespace collapsed outside preformatted blocks. The output is
// deterministic for a given input.
func ToMarkdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return strings.TrimSpace(input)
	}
	c := &converter{}
	c.walk(doc)
	return tidy(c.sb.String())
}

type list struct {
	ordered bool
	next    int
}

type converter struct {
	sb    strings.Builder
	lists []list
	pre   int
}

func (c *converter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		c.text(n.Data)
		return
	case html.ElementNode:
		c.element(n)
		return
	}
	c.children(n)
}

func (c *converter) children(n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

func (c *converter) element(n *html.Node) {
	switch n.Data {
	case "script", "style", "noscript", "template":
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(n.Data[1:])
		c.block()
		c.sb.WriteString(strings.Repeat("#", level) + " ")
		c.children(n)
		c.block()
	case "p", "div", "section", "article", "header", "footer", "aside", "figure":
		c.block()
		c.children(n)
		c.block()
	case "br":
		c.sb.WriteString("\n")
	case "hr":
		c.block()
		c.sb.WriteString("---")
		c.block()
	case "strong", "b":
		c.wrap(n, "**")
	case "em", "i":
		c.wrap(n, "*")
	case "del", "s", "strike":
		c.wrap(n, "~~")
	case "code":
		if c.pre > 0 {
			c.children(n)
			return
		}
		c.wrap(n, "`")
	case "a":
		href := attribute(n, "href")
		if href == "" {
			c.children(n)
			return
		}
		c.sb.WriteString("[")
		c.children(n)
		c.sb.WriteString("](" + href + ")")
	case "img":
		if src := attribute(n, "src"); src != "" {
			c.sb.WriteString("![" + attribute(n, "alt") + "](" + src + ")")
		}
	case "ul", "ol":
		c.list(n)
	case "li":
		c.item(n)
	case "blockquote":
		c.quote(n)
	case "pre":
		c.block()
		c.sb.WriteString("```\n")
		c.pre++
		c.children(n)
		c.pre--
		c.newline()
		c.sb.WriteString("```")
		c.block()
	case "tr":
		c.newline()
		c.sb.WriteString("|")
		for cell := n.FirstChild; cell != nil; cell = cell.NextSibling {
			if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
				c.sb.WriteString(" ")
				c.children(cell)
				c.sb.WriteString(" |")
			}
		}
		if isHeaderRow(n) {
			c.sb.WriteString("\n|")
			for i := 0; i < cellCount(n); i++ {
				c.sb.WriteString(" --- |")
			}
		}
	case "table":
		c.block()
		c.children(n)
		c.block()
	default:
		c.children(n)
	}
}

func (c *converter) wrap(n *html.Node, marker string) {
	c.sb.WriteString(marker)
	c.children(n)
	c.sb.WriteString(marker)
}

func (c *converter) list(n *html.Node) {
	nested := len(c.lists) > 0
	if nested {
		c.newline()
	} else {
		c.block()
	}
	c.lists = append(c.lists, list{ordered: n.Data == "ol", next: 1})
	c.children(n)
	c.lists = c.lists[:len(c.lists)-1]
	if !nested {
		c.block()
	}
}

func (c *converter) item(n *html.Node) {
	c.newline()
	if len(c.lists) == 0 {
		c.sb.WriteString("- ")
		c.children(n)
		return
	}
	top := &c.lists[len(c.lists)-1]
	c.sb.WriteString(strings.Repeat("  ", len(c.lists)-1))
	if top.ordered {
		c.sb.WriteString(strconv.Itoa(top.next) + ". ")
		top.next++
	} else {
		c.sb.WriteString("- ")
	}
	c.children(n)
}

func (c *converter) quote(n *html.Node) {
	inner := &converter{pre: c.pre}
	inner.children(n)
	body := tidy(inner.sb.String())
	if body == "" {
		return
	}
	c.block()
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	c.sb.WriteString(strings.Join(lines, "\n"))
	c.block()
}

func (c *converter) text(data string) {
	if c.pre > 0 {
		c.sb.WriteString(data)
		return
	}
	collapsed := collapse(data)
	if collapsed == "" {
		return
	}
	if strings.HasPrefix(collapsed, " ") {
		if last, ok := c.last(); !ok || last == ' ' || last == '\n' {
			collapsed = collapsed[1:]
		}
	}
	c.sb.WriteString(collapsed)
}

func (c *converter) last() (byte, bool) {
	s := c.sb.String()
	if s == "" {
		return 0, false
	}
	return s[len(s)-1], true
}

// block ends the current line and leaves one blank line before whatever comes next.
func (c *converter) block() {
	s := c.sb.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		c.sb.WriteString("\n")
		return
	}
	c.sb.WriteString("\n\n")
}

func (c *converter) newline() {
	if last, ok := c.last(); ok && last != '\n' {
		c.sb.WriteString("\n")
	}
}

func collapse(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func attribute(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isHeaderRow(tr *html.Node) bool {
	for cell := tr.FirstChild; cell != nil; cell = cell.NextSibling {
		if cell.Type == html.ElementNode && cell.Data == "th" {
			return true
		}
	}
	return false
}

func cellCount(tr *html.Node) int {
	n := 0
	for cell := tr.FirstChild; cell != nil; cell = cell.NextSibling {
		if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
			n++
		}
	}
	return n
}

// tidy trims trailing spaces on every line and caps blank runs at one line.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
