package videourl

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var ErrUnrecognizedHost = errors.New("unrecognized video host")

var videoIdRe = regexp.MustCompile(`^[A-Za-z0-9_-]{6,16}$`)

// Parse extracts the video id from a recognized video-host URL. Supported
// forms: youtube.com/watch?v=ID, youtube.com/embed/ID,
// youtube.com/shorts/ID and youtu.be/ID.
func Parse(rawUrl string) (string, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnrecognizedHost
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")

	var videoId string
	switch host {
	case "youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch":
			videoId = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			videoId = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			videoId = strings.TrimPrefix(u.Path, "/shorts/")
		}
	case "youtu.be":
		videoId = strings.TrimPrefix(u.Path, "/")
	default:
		return "", ErrUnrecognizedHost
	}

	videoId = strings.TrimSuffix(videoId, "/")
	if !videoIdRe.MatchString(videoId) {
		return "", ErrUnrecognizedHost
	}

	return videoId, nil
}

// ThumbnailUrl returns the default thumbnail for a video id.
func ThumbnailUrl(videoId string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoId)
}
