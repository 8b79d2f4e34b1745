package portabletext

import (
	"html/template"
	"strconv"
	"strings"
)

var decorators = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "s",
}

var blockStyles = map[string]string{
	"normal":     "p",
	"h1":         "h1",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"blockquote": "blockquote",
}

// Render produces HTML for content. Unknown block types are skipped.
func Render(c Content) template.HTML {
	if len(c) == 0 {
		return ""
	}
	var sb strings.Builder
	var lists []string
	closeLists := func(depth int) {
		for len(lists) > depth {
			sb.WriteString("</li></" + lists[len(lists)-1] + ">")
			lists = lists[:len(lists)-1]
		}
	}

	for _, b := range c {
		if b.Type == TypeBlock && b.ListItem != "" {
			writeListItem(&sb, &lists, closeLists, b)
			continue
		}
		closeLists(0)

		switch b.Type {
		case TypeBlock:
			tag, ok := blockStyles[b.Style]
			if !ok {
				tag = "p"
			}
			sb.WriteString("<" + tag + ">")
			writeSpans(&sb, b)
			sb.WriteString("</" + tag + ">")
		case TypeImage:
			writeImage(&sb, b)
		case TypeCode:
			if b.Code == "" {
				continue
			}
			sb.WriteString("<pre><code")
			if b.Language != "" {
				sb.WriteString(` class="language-` + template.HTMLEscapeString(b.Language) + `"`)
			}
			sb.WriteString(">" + template.HTMLEscapeString(b.Code) + "</code></pre>")
		case TypeMarkdown:
			sb.WriteString(RenderMarkdown(b.Markdown))
		}
	}
	closeLists(0)
	return template.HTML(sb.String())
}

func writeListItem(sb *strings.Builder, lists *[]string, closeLists func(int), b Block) {
	level := b.Level
	if level < 1 {
		level = 1
	}
	tag := "ul"
	if b.ListItem == ListNumber {
		tag = "ol"
	}

	closeLists(level)
	if len(*lists) == level && (*lists)[level-1] != tag {
		closeLists(level - 1)
	}
	if len(*lists) == level {
		sb.WriteString("</li>")
	}
	for len(*lists) < level {
		sb.WriteString("<" + tag + ">")
		*lists = append(*lists, tag)
	}
	sb.WriteString("<li>")
	writeSpans(sb, b)
}

func writeImage(sb *strings.Builder, b Block) {
	if b.Image == nil {
		return
	}
	src := SafeURL(b.Image.URL)
	if src == "" {
		return
	}
	sb.WriteString(`<figure><img src="` + template.HTMLEscapeString(src) + `"`)
	sb.WriteString(` alt="` + template.HTMLEscapeString(b.Image.Alt) + `"`)
	if b.Image.Width > 0 && b.Image.Height > 0 {
		sb.WriteString(` width="` + strconv.Itoa(b.Image.Width) + `" height="` + strconv.Itoa(b.Image.Height) + `"`)
	}
	sb.WriteString(` loading="lazy"></figure>`)
}

func writeSpans(sb *strings.Builder, b Block) {
	defs := make(map[string]Annotation, len(b.MarkDefs))
	for _, d := range b.MarkDefs {
		defs[d.Key] = d
	}
	for _, s := range b.Children {
		var closing []string
		for _, m := range s.Marks {
			if tag, ok := decorators[m]; ok {
				sb.WriteString("<" + tag + ">")
				closing = append(closing, "</"+tag+">")
				continue
			}
			def, ok := defs[m]
			if !ok || def.Type != "link" {
				continue
			}
			href := SafeURL(def.Href)
			if href == "" {
				continue
			}
			sb.WriteString(`<a href="` + template.HTMLEscapeString(href) + `"`)
			if def.OpenInNewTab {
				sb.WriteString(` target="_blank" rel="noopener noreferrer"`)
			}
			sb.WriteString(">")
			closing = append(closing, "</a>")
		}
		sb.WriteString(template.HTMLEscapeString(s.Text))
		for i := len(closing) - 1; i >= 0; i-- {
			sb.WriteString(closing[i])
		}
	}
}
