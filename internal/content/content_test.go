package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"personal-site/internal/config"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Site: config.SiteConfig{ContentDir: dir}}
	return NewStore(cfg), dir
}

func writePost(t *testing.T, root, slug, body string) {
	t.Helper()
	dir := filepath.Join(root, "posts", slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.md"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePage(t *testing.T, root, slug, body string) {
	t.Helper()
	dir := filepath.Join(root, "pages")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, slug+".md"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListPosts_NewestFirst(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "old", "---\ntitle: Old\ndate: 2024-01-01\n---\nold body\n")
	writePost(t, dir, "new", "---\ntitle: New\ndate: 2026-02-01\n---\nnew body\n")
	writePost(t, dir, "mid", "---\ntitle: Mid\ndate: 2025-06-15\n---\nmid body\n")

	posts, err := store.ListPosts(0, false)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("len(posts) = %d, want 3", len(posts))
	}
	got := []string{posts[0].Slug, posts[1].Slug, posts[2].Slug}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("posts[%d].Slug = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListPosts_SkipsDrafts(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "published", "---\ntitle: Published\ndate: 2026-01-01\n---\nbody\n")
	writePost(t, dir, "draft", "---\ntitle: Draft\ndate: 2026-01-02\ndraft: true\n---\nbody\n")

	posts, err := store.ListPosts(0, false)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "published" {
		t.Errorf("published-only list = %v", slugs(posts))
	}

	all, err := store.ListPosts(0, true)
	if err != nil {
		t.Fatalf("ListPosts(includeDrafts) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}
}

func TestListPosts_Limit(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "a", "---\ntitle: A\ndate: 2026-01-01\n---\nbody\n")
	writePost(t, dir, "b", "---\ntitle: B\ndate: 2026-01-02\n---\nbody\n")

	posts, err := store.ListPosts(1, false)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "b" {
		t.Errorf("limited list = %v, want [b]", slugs(posts))
	}
}

func TestListPosts_MissingDir(t *testing.T) {
	store, _ := newTestStore(t)

	posts, err := store.ListPosts(0, false)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if posts != nil {
		t.Errorf("posts = %v, want nil for missing dir", slugs(posts))
	}
}

func TestPostBySlug(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "hello", "---\ntitle: Hello\ndate: 2026-01-01\ntags:\n  - go\n---\n# Heading\n\nbody text\n")

	post, err := store.PostBySlug("hello")
	if err != nil {
		t.Fatalf("PostBySlug() error = %v", err)
	}
	if post == nil {
		t.Fatal("post = nil, want loaded post")
	}
	if post.Title != "Hello" {
		t.Errorf("Title = %q, want %q", post.Title, "Hello")
	}
	if !strings.Contains(string(post.HTML), "<h1") {
		t.Errorf("HTML missing rendered heading: %s", post.HTML)
	}
	if len(post.Tags) != 1 || post.Tags[0] != "go" {
		t.Errorf("Tags = %v, want [go]", post.Tags)
	}
}

func TestPostBySlug_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	post, err := store.PostBySlug("nope")
	if err != nil {
		t.Fatalf("PostBySlug() error = %v", err)
	}
	if post != nil {
		t.Errorf("post = %+v, want nil", post)
	}
}

func TestPost_FallbackTitleAndDate(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "untitled", "---\n---\nplain body\n")

	post, err := store.PostBySlug("untitled")
	if err != nil {
		t.Fatalf("PostBySlug() error = %v", err)
	}
	if post.Title != "untitled" {
		t.Errorf("Title = %q, want slug fallback %q", post.Title, "untitled")
	}
	if post.Date.IsZero() {
		t.Error("Date is zero, want file mtime fallback")
	}
}

func TestPage(t *testing.T) {
	store, dir := newTestStore(t)
	writePage(t, dir, "about", "---\ntitle: About\nfeatured_slug: hello\nquotes:\n  - one\n  - two\n---\nabout body\n")

	page, err := store.Page("about")
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if page.Title != "About" {
		t.Errorf("Title = %q, want %q", page.Title, "About")
	}
	if page.FeaturedSlug != "hello" {
		t.Errorf("FeaturedSlug = %q, want %q", page.FeaturedSlug, "hello")
	}
	if len(page.Quotes) != 2 {
		t.Errorf("Quotes = %v, want 2 entries", page.Quotes)
	}
	if !strings.Contains(string(page.HTML), "about body") {
		t.Errorf("HTML missing body: %s", page.HTML)
	}
}

func TestPage_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	page, err := store.Page("nope")
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if page != nil {
		t.Errorf("page = %+v, want nil", page)
	}
}

func TestRenderCodeHighlighting(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "code", "---\ntitle: Code\ndate: 2026-01-01\n---\n```go\nfunc main() {}\n```\n")

	post, err := store.PostBySlug("code")
	if err != nil {
		t.Fatalf("PostBySlug() error = %v", err)
	}
	// chroma emits inline styles for highlighted blocks
	if !strings.Contains(string(post.HTML), "<pre") || !strings.Contains(string(post.HTML), "style") {
		t.Errorf("expected highlighted code block, got: %s", post.HTML)
	}
}

func TestRenderRSS(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "hello", "---\ntitle: Hello World\ndate: 2026-01-01\nsummary: First post summary.\n---\nbody\n")
	writePost(t, dir, "draft", "---\ntitle: Secret\ndate: 2026-01-02\ndraft: true\n---\nbody\n")

	site := config.SiteConfig{
		Title:       "Test Blog",
		BaseURL:     "https://example.test",
		Description: "A test blog",
	}
	rss, err := store.RenderRSS(site)
	if err != nil {
		t.Fatalf("RenderRSS() error = %v", err)
	}
	if !strings.Contains(rss, "<title>Test Blog</title>") {
		t.Errorf("feed missing channel title:\n%s", rss)
	}
	if !strings.Contains(rss, "https://example.test/blog/hello") {
		t.Errorf("feed missing post link:\n%s", rss)
	}
	if !strings.Contains(rss, "First post summary.") {
		t.Errorf("feed missing post summary:\n%s", rss)
	}
	if strings.Contains(rss, "Secret") {
		t.Errorf("feed must not include drafts:\n%s", rss)
	}
}

func slugs(posts []*Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}
