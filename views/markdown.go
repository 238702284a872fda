package views

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`_([^_]+)_`)
	reCode             = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reImg              = regexp.MustCompile(`\!\[(.*?)\]\((.*?)\)`)
)

// Markdown renders a post body to HTML. Post content is stored as markdown
// and converted at render time.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		renderMarkdown(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func renderMarkdown(buf *bytes.Buffer, md string) {
	lines := strings.Split(md, "\n")
	inList := false
	inPara := false
	inQuote := false
	inCode := false

	flushCode := func() {
		if inCode {
			buf.WriteString("</code></pre>")
			inCode = false
		}
	}
	flushPara := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
	}
	flushQuote := func() {
		if inQuote {
			buf.WriteString("</blockquote>")
			inQuote = false
		}
	}
	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, "```") {
			if inCode {
				flushCode()
			} else {
				flushPara()
				flushList()
				flushQuote()
				buf.WriteString(`<pre class="code-block"><code>`)
				inCode = true
			}
			continue
		}

		if inCode {
			buf.WriteString(html.EscapeString(line))
			buf.WriteString("\n")
			continue
		}

		if strings.TrimSpace(line) == "" {
			flushPara()
			flushList()
			flushQuote()
			continue
		}

		switch {
		case strings.HasPrefix(line, "---"):
			flushPara()
			flushList()
			flushQuote()
			buf.WriteString("<hr/>")
		case strings.HasPrefix(line, "# "):
			flushPara()
			flushList()
			flushQuote()
			buf.WriteString("<h1>")
			buf.WriteString(formatInline(strings.TrimSpace(line[2:])))
			buf.WriteString("</h1>")
		case strings.HasPrefix(line, "## "):
			flushPara()
			flushList()
			flushQuote()
			buf.WriteString("<h2>")
			buf.WriteString(formatInline(strings.TrimSpace(line[3:])))
			buf.WriteString("</h2>")
		case strings.HasPrefix(line, "### "):
			flushPara()
			flushList()
			flushQuote()
			buf.WriteString("<h3>")
			buf.WriteString(formatInline(strings.TrimSpace(line[4:])))
			buf.WriteString("</h3>")
		case strings.HasPrefix(line, "- "):
			if !inList {
				flushPara()
				flushQuote()
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(formatInline(strings.TrimSpace(line[2:])))
			buf.WriteString("</li>")
		case strings.HasPrefix(line, "> "):
			if !inQuote {
				flushPara()
				flushList()
				buf.WriteString("<blockquote>")
				inQuote = true
			}
			buf.WriteString(formatInline(strings.TrimSpace(line[2:])))
		default:
			if !inPara {
				flushList()
				flushQuote()
				buf.WriteString("<p>")
				inPara = true
			} else {
				buf.WriteString(" ")
			}
			buf.WriteString(formatInline(strings.TrimSpace(line)))
		}
	}
	flushPara()
	flushList()
	flushQuote()
	flushCode()
}

func formatInline(s string) string {
	escaped := html.EscapeString(s)
	escaped = reImg.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reImg.FindStringSubmatch(m)
		if len(match) < 3 {
			return m
		}
		src := safeURL(match[2])
		if src == "" {
			return match[1]
		}
		return `<img alt="` + match[1] + `" src="` + src + `" loading="lazy" decoding="async"/>`
	})
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		if len(match) < 3 {
			return m
		}
		href := safeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `">` + match[1] + `</a>`
	})
	// Apply emphasis only outside HTML tags so URLs in href survive.
	escaped = applyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
		seg = reCode.ReplaceAllString(seg, "<code>$1</code>")
		return seg
	})
	return escaped
}

// applyOutsideTags applies fn only to text segments outside HTML tags.
func applyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

func safeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
