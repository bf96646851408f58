// Package content loads markdown posts and pages from disk and renders
// them to HTML.
package content

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"personal-site/internal/config"
)

// Post is one blog post rendered from content/posts/<slug>/index.md.
type Post struct {
	Title      string
	Slug       string
	Date       time.Time
	Summary    string
	Tags       []string
	Draft      bool
	Updated    time.Time
	CoverImage string
	HTML       template.HTML
}

// Page is a standalone markdown page from content/pages/<slug>.md.
type Page struct {
	Title        string
	HTML         template.HTML
	FeaturedSlug string
	Quotes       []string
}

// matter is the YAML frontmatter shared by posts and pages.
type matter struct {
	Title        string   `yaml:"title"`
	Slug         string   `yaml:"slug"`
	Date         string   `yaml:"date"`
	Summary      string   `yaml:"summary"`
	Tags         []string `yaml:"tags"`
	Draft        bool     `yaml:"draft"`
	Updated      string   `yaml:"updated"`
	CoverImage   string   `yaml:"cover_image"`
	FeaturedSlug string   `yaml:"featured_slug"`
	Quotes       []string `yaml:"quotes"`
}

// Store reads and renders site content. It holds no cache; content is
// read from disk on every call so edits show up without a restart.
type Store struct {
	postsDir string
	pagesDir string
	md       goldmark.Markdown
}

// NewStore creates a Store rooted at the configured content directory.
func NewStore(cfg *config.Config) *Store {
	return &Store{
		postsDir: filepath.Join(cfg.Site.ContentDir, "posts"),
		pagesDir: filepath.Join(cfg.Site.ContentDir, "pages"),
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Footnote,
				extension.TaskList,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github-dark"),
				),
			),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// ListPosts returns published posts newest-first. limit of 0 means all;
// drafts are skipped unless includeDrafts is set.
func (s *Store) ListPosts(limit int, includeDrafts bool) ([]*Post, error) {
	entries, err := os.ReadDir(s.postsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read posts dir: %w", err)
	}

	var posts []*Post
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		index := filepath.Join(s.postsDir, entry.Name(), "index.md")
		if _, err := os.Stat(index); err != nil {
			continue
		}
		post, err := s.loadPost(index, entry.Name())
		if err != nil {
			return nil, err
		}
		if post.Draft && !includeDrafts {
			continue
		}
		posts = append(posts, post)
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Date.After(posts[j].Date) })
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// PostBySlug returns the post for slug, or nil when no such post exists.
func (s *Store) PostBySlug(slug string) (*Post, error) {
	index := filepath.Join(s.postsDir, slug, "index.md")
	if _, err := os.Stat(index); err != nil {
		return nil, nil
	}
	return s.loadPost(index, slug)
}

// Page returns the markdown page for slug, or nil when no such page exists.
func (s *Store) Page(slug string) (*Page, error) {
	path := filepath.Join(s.pagesDir, slug+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}

	var fm matter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", path, err)
	}

	rendered, err := s.render(body)
	if err != nil {
		return nil, fmt.Errorf("render page %s: %w", path, err)
	}

	title := fm.Title
	if title == "" {
		title = slug
	}
	return &Page{
		Title:        title,
		HTML:         rendered,
		FeaturedSlug: fm.FeaturedSlug,
		Quotes:       fm.Quotes,
	}, nil
}

func (s *Store) loadPost(path, dirName string) (*Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read post %s: %w", path, err)
	}

	var fm matter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, fmt.Errorf("parse post %s: %w", path, err)
	}

	rendered, err := s.render(body)
	if err != nil {
		return nil, fmt.Errorf("render post %s: %w", path, err)
	}

	slug := fm.Slug
	if slug == "" {
		slug = dirName
	}
	title := fm.Title
	if title == "" {
		title = slug
	}
	date := parseDate(fm.Date)
	if date.IsZero() {
		if info, err := os.Stat(path); err == nil {
			date = info.ModTime()
		}
	}

	return &Post{
		Title:      title,
		Slug:       slug,
		Date:       date,
		Summary:    fm.Summary,
		Tags:       fm.Tags,
		Draft:      fm.Draft,
		Updated:    parseDate(fm.Updated),
		CoverImage: fm.CoverImage,
		HTML:       rendered,
	}, nil
}

func (s *Store) render(markdown []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.md.Convert(markdown, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// dateLayouts are accepted frontmatter date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(value string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
