// Package handler wires HTTP routes to the site and embed services.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"personal-site/internal/config"
	"personal-site/internal/content"
	"personal-site/internal/service"
)

// themeCookie names the cookie holding the visitor's theme preference.
const themeCookie = "theme"

// defaultQuotes rotate on the about page when the page frontmatter
// provides none.
var defaultQuotes = []string{
	"Make it work, make it right, make it fast.",
	"Simplicity is prerequisite for reliability.",
	"Programs must be written for people to read.",
}

// PageHandler serves the markdown-rendered site pages and the RSS feed.
type PageHandler struct {
	store  *content.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(store *content.Store, cfg *config.Config, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "page_handler"),
	}
}

// basePage carries the fields every layout template needs.
type basePage struct {
	Title       string
	Theme       string
	CurrentPath string
	Year        int
}

func (h *PageHandler) base(c echo.Context, title string) basePage {
	return basePage{
		Title:       title,
		Theme:       ThemeFromRequest(c.Request()),
		CurrentPath: c.Request().URL.Path,
		Year:        time.Now().Year(),
	}
}

// ThemeFromRequest returns the theme cookie value when it is exactly
// "dark" or "light"; any other value, including an absent cookie, is
// treated as no preference.
func ThemeFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(themeCookie)
	if err != nil {
		return ""
	}
	if cookie.Value == "dark" || cookie.Value == "light" {
		return cookie.Value
	}
	return ""
}

// About renders the home/about page.
func (h *PageHandler) About(c echo.Context) error {
	page, err := h.store.Page("about")
	if err != nil {
		return err
	}

	var featured *content.Post
	if page != nil && page.FeaturedSlug != "" {
		featured, err = h.store.PostBySlug(page.FeaturedSlug)
		if err != nil {
			return err
		}
	}
	if featured == nil {
		latest, err := h.store.ListPosts(1, false)
		if err != nil {
			return err
		}
		if len(latest) > 0 {
			featured = latest[0]
		}
	}

	quotes := defaultQuotes
	if page != nil && len(page.Quotes) > 0 {
		quotes = page.Quotes
	}
	body := template.HTML("<p>Welcome! Content coming soon.</p>")
	if page != nil {
		body = page.HTML
	}

	return c.Render(http.StatusOK, "about.html", struct {
		basePage
		Featured *content.Post
		Quotes   []string
		Body     template.HTML
	}{h.base(c, "About"), featured, quotes, body})
}

// yearGroup is one year's worth of posts on the blog index.
type yearGroup struct {
	Year  int
	Posts []*content.Post
}

// BlogIndex renders the blog index grouped by year, newest first.
func (h *PageHandler) BlogIndex(c echo.Context) error {
	posts, err := h.store.ListPosts(0, false)
	if err != nil {
		return err
	}

	// Posts are already newest-first, so grouping is a single pass.
	var years []*yearGroup
	for _, post := range posts {
		y := post.Date.Year()
		if len(years) == 0 || years[len(years)-1].Year != y {
			years = append(years, &yearGroup{Year: y})
		}
		last := years[len(years)-1]
		last.Posts = append(last.Posts, post)
	}

	return c.Render(http.StatusOK, "blog.html", struct {
		basePage
		Years []*yearGroup
	}{h.base(c, "Blog"), years})
}

// BlogPost renders a single post, or 404 when the slug is unknown.
func (h *PageHandler) BlogPost(c echo.Context) error {
	post, err := h.store.PostBySlug(c.Param("slug"))
	if err != nil {
		return err
	}
	if post == nil || post.Draft {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	return c.Render(http.StatusOK, "post.html", struct {
		basePage
		Post *content.Post
	}{h.base(c, post.Title), post})
}

// Coursework renders the coursework page with the embedded notebook.
func (h *PageHandler) Coursework(c echo.Context) error {
	page, err := h.store.Page("coursework")
	if err != nil {
		return err
	}
	var body template.HTML
	if page != nil {
		body = page.HTML
	}

	return c.Render(http.StatusOK, "coursework.html", struct {
		basePage
		Body       template.HTML
		EmbedMount string
	}{h.base(c, "Coursework"), body, service.Mount})
}

// ToggleTheme flips the theme cookie and redirects back.
func (h *PageHandler) ToggleTheme(c echo.Context) error {
	current := ""
	if cookie, err := c.Cookie(themeCookie); err == nil {
		current = cookie.Value
	}
	next := "dark"
	if current == "dark" {
		next = "light"
	}

	c.SetCookie(&http.Cookie{
		Name:   themeCookie,
		Value:  next,
		Path:   "/",
		MaxAge: 365 * 24 * 60 * 60,
	})

	target := c.QueryParam("next")
	if target == "" || !strings.HasPrefix(target, "/") {
		target = "/"
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// Feed serves the RSS feed.
func (h *PageHandler) Feed(c echo.Context) error {
	rss, err := h.store.RenderRSS(h.cfg.Site)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml", []byte(rss))
}
