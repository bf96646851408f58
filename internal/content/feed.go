package content

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"personal-site/internal/config"
)

// feedLimit caps the number of posts in the RSS feed.
const feedLimit = 20

// RenderRSS builds the RSS 2.0 feed for the newest published posts.
func (s *Store) RenderRSS(site config.SiteConfig) (string, error) {
	posts, err := s.ListPosts(feedLimit, false)
	if err != nil {
		return "", fmt.Errorf("list posts for feed: %w", err)
	}

	feed := &feeds.Feed{
		Title:       site.Title,
		Link:        &feeds.Link{Href: site.BaseURL},
		Description: site.Description,
		Created:     time.Now().UTC(),
	}

	for _, post := range posts {
		link := site.BaseURL + "/blog/" + post.Slug
		description := post.Summary
		if description == "" {
			description = post.Title
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       post.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: description,
			Created:     post.Date,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return "", fmt.Errorf("render rss: %w", err)
	}
	return rss, nil
}
