package bookstore

import (
	"net/url"
	"strings"
)

// VideoEmbedURL converts the common YouTube link shapes into a privacy-enhanced
// embed URL. It returns "" for anything it does not recognise.
func VideoEmbedURL(link string) string {
	if strings.TrimSpace(link) == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return ""
	}

	var id string
	switch {
	case strings.Contains(u.Hostname(), "youtube.com"):
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"):
			if parts := strings.Split(u.Path, "/"); len(parts) > 2 {
				id = parts[2]
			}
		}
	case u.Hostname() == "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return "https://www.youtube-nocookie.com/embed/" + id + "?rel=0&modestbranding=1"
}
