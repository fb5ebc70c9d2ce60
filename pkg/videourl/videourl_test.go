package videourl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, url := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=42",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ/",
	} {
		id, err := Parse(url)
		require.NoError(t, err, url)
		assert.Equal(t, "dQw4w9WgXcQ", id, url)
	}
}

func TestParseRejectsUnrecognized(t *testing.T) {
	for _, url := range []string{
		"",
		"not a url",
		"ftp://youtube.com/watch?v=dQw4w9WgXcQ",
		"https://vimeo.com/123456789",
		"https://www.youtube.com/playlist?list=PLx",
		"https://youtube.com/watch?v=",
		"https://youtu.be/x",
	} {
		_, err := Parse(url)
		assert.ErrorIs(t, err, ErrUnrecognizedHost, url)
	}
}

func TestThumbnailUrl(t *testing.T) {
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", ThumbnailUrl("dQw4w9WgXcQ"))
}
