package site

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Post is a rendered blog article. Files are named YYYY-MM-DD-slug.md.
type Post struct {
	Slug    string        `json:"slug"`
	Title   string        `json:"title"`
	Date    time.Time     `json:"date"`
	Summary string        `json:"summary"`
	HTML    template.HTML `json:"-"`
	text    string
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// LoadPosts renders every markdown file under dir in fsys, newest first.
func LoadPosts(fsys fs.FS, dir string) ([]Post, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading blog dir: %w", err)
	}
	md := newMarkdown()

	var posts []Post
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if len(name) < 12 || name[10] != '-' {
			return nil, fmt.Errorf("blog file %s: expected YYYY-MM-DD-slug.md", e.Name())
		}
		date, err := time.Parse("2006-01-02", name[:10])
		if err != nil {
			return nil, fmt.Errorf("blog file %s: %w", e.Name(), err)
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := md.Convert(content, &buf); err != nil {
			return nil, fmt.Errorf("converting %s: %w", e.Name(), err)
		}
		title, summary := titleAndSummary(string(content))
		if title == "" {
			title = name[11:]
		}
		posts = append(posts, Post{
			Slug:    name[11:],
			Title:   title,
			Date:    date,
			Summary: summary,
			HTML:    template.HTML(buf.String()),
			text:    string(content),
		})
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
	return posts, nil
}

// titleAndSummary returns the first H1 and the first paragraph line after it.
func titleAndSummary(content string) (string, string) {
	var title, summary string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if title == "" && strings.HasPrefix(line, "# ") {
			title = strings.TrimPrefix(line, "# ")
			continue
		}
		if title != "" && line != "" && !strings.HasPrefix(line, "#") {
			summary = line
			break
		}
	}
	return title, summary
}

// SearchEntry is one blog post in the client-side search index.
type SearchEntry struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// BuildSearchIndex flattens posts for the client-side search box.
func BuildSearchIndex(posts []Post) []SearchEntry {
	entries := make([]SearchEntry, 0, len(posts))
	for _, p := range posts {
		var lines []string
		for _, l := range strings.Split(p.text, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		content := strings.Join(lines, " ")
		if len(content) > 2000 {
			content = content[:2000]
		}
		entries = append(entries, SearchEntry{
			Path:    "/blog/" + p.Slug,
			Title:   p.Title,
			Summary: p.Summary,
			Content: content,
		})
	}
	return entries
}
