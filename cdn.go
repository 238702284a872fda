package inkwell

import "strings"

// The CDN serves originals and thumbnails from different hosts. Posts store
// relative paths so the bases can change without rewriting rows; the base is
// re-prepended at render time.
const (
	CDNBaseURL      = "https://cdn.inkwell.dev/"
	CDNThumbnailURL = "https://t.cdn.inkwell.dev/"
)

var cdnBases = []string{CDNBaseURL, CDNThumbnailURL}

// StripCDNBase normalizes an image URL to a CDN-relative path before it is
// persisted. Non-CDN URLs pass through unchanged.
func StripCDNBase(url string) string {
	for _, base := range cdnBases {
		if strings.HasPrefix(url, base) {
			return url[len(base):]
		}
	}
	return url
}

// IsRelativePath reports whether url is a path rather than an absolute URL.
func IsRelativePath(url string) bool {
	if url == "" {
		return false
	}
	return !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://")
}

// ImageURL resolves a stored image reference to a renderable URL. Rooted
// paths (local uploads under /public) are served by this server and pass
// through unchanged. Bare relative paths get the appropriate CDN base:
// thumbnail/ paths go to the thumbnail host, everything else to the primary
// host.
func ImageURL(url string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "/") {
		return url
	}
	if IsRelativePath(url) {
		if strings.HasPrefix(url, "thumbnail/") {
			return CDNThumbnailURL + url
		}
		return CDNBaseURL + url
	}
	return url
}
