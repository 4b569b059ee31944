package watcher

import (
	"fmt"
	"net/url"

	"github.com/donaldgifford/collection-watcher/internal/notify"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// CollectionLink returns the public browse link for a collection, or the
// collections index when the marketplace sent no slug.
func CollectionLink(siteURL, slug string) string {
	if slug == "" {
		return siteURL + "/collections"
	}
	return fmt.Sprintf("%s/collections/%s/nfts", siteURL, url.PathEscape(slug))
}

// FormatAlert builds the new-collection alert.
func FormatAlert(marketName, siteURL string, c *domain.CollectionSummary) notify.Message {
	link := CollectionLink(siteURL, c.Slug)
	return notify.Message{
		Subject: fmt.Sprintf("New Collection on %s: %s", marketName, c.Name),
		Text: fmt.Sprintf(
			"🚨 Alert: New Collection on %s!\nName: %s\nID: %d\nLink: %s\nHomepage: %s",
			marketName, c.Name, c.ID, link, siteURL,
		),
		Link: link,
	}
}
