package parser

import (
	"net/url"
	"path"
	"strings"
)

var binaryExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".svg": {}, ".webp": {},
	".pdf": {},
	".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".zip": {}, ".rar": {}, ".gz": {}, ".tar": {}, ".7z": {},
}

// IsCrawlable reports whether link belongs to the site rooted at siteRoot and
// points to something worth fetching as a page.
func IsCrawlable(siteRoot, link string) bool {
	if !strings.HasPrefix(link, siteRoot) {
		return false
	}
	if strings.Contains(link, "#") {
		return false
	}

	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return !IsBinary(u.Path)
}

// IsBinary reports whether a URL path ends in a known non-HTML extension.
func IsBinary(p string) bool {
	_, ok := binaryExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
