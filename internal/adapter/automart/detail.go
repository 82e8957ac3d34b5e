package automart

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxFallbackImages = 3

var (
	galleryTokenRe  = regexp.MustCompile(`ShowImgTot\('[^']+','[^']*','([^']+)'\)`)
	reportLinkRe    = regexp.MustCompile(`pop_on50\s*\(\s*'[^']*'\s*,\s*'(GmSpec_Report_us\.asp\?[^']+)'`)
	fallbackImageRe = regexp.MustCompile(`ShowImg\('[^']+','[^']*','([^']+)'`)
)

// DetailPage is what one visit to a vehicle's detail page yields.
type DetailPage struct {
	// GalleryParams is the query string that opens the full photo gallery.
	GalleryParams  string
	InspectionURL  string
	FallbackImages []string
}

// ParseDetailPage reads the inline handlers of a detail page in one pass.
func ParseDetailPage(page string) (DetailPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return DetailPage{}, fmt.Errorf("parse detail html: %w", err)
	}

	var d DetailPage
	doc.Find("[onclick]").Each(func(_ int, s *goquery.Selection) {
		onclick := s.AttrOr("onclick", "")
		if d.GalleryParams == "" {
			if m := galleryTokenRe.FindStringSubmatch(onclick); m != nil {
				d.GalleryParams = m[1]
			}
		}
		if d.InspectionURL == "" {
			if m := reportLinkRe.FindStringSubmatch(onclick); m != nil {
				d.InspectionURL = commonURL + m[1]
			}
		}
	})

	if d.InspectionURL == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href := s.AttrOr("href", "")
			if !strings.Contains(href, "GmSpec_Report_us.asp") {
				return true
			}
			if strings.HasPrefix(href, "http") {
				d.InspectionURL = href
			} else {
				d.InspectionURL = commonURL + strings.TrimPrefix(href, "/")
			}
			return false
		})
	}

	doc.Find(`a[href*="ShowImg"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := fallbackImageRe.FindStringSubmatch(s.AttrOr("href", ""))
		if m == nil || m[1] == "" {
			return true
		}
		u := m[1]
		if !strings.HasPrefix(u, "http") {
			u = "https://" + strings.TrimPrefix(u, "//")
		}
		d.FallbackImages = append(d.FallbackImages, u)
		return len(d.FallbackImages) < maxFallbackImages
	})

	return d, nil
}

// GalleryURL builds the photo gallery address for the given token.
func GalleryURL(params string) string {
	return commonURL + "ImageView.asp?filenm=&" + params
}

// ParseGallery collects the filled photo slots of a gallery page. Empty
// slots carry no "up" class or a blank / "//" data-img.
func ParseGallery(page string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse gallery html: %w", err)
	}

	var urls []string
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if !strings.Contains(li.AttrOr("class", ""), "up") {
			return
		}
		raw := strings.TrimSpace(li.Find("span[data-img]").First().AttrOr("data-img", ""))
		if raw == "" || raw == "//" {
			return
		}
		switch {
		case strings.HasPrefix(raw, "//"):
			raw = "https:" + raw
		case !strings.HasPrefix(raw, "http"):
			raw = "https://" + raw
		}
		urls = append(urls, raw)
	})
	return urls, nil
}

// ResolveImages picks the gallery when it has photos, else the fallback.
func ResolveImages(gallery, fallback []string) []string {
	if len(gallery) > 0 {
		return gallery
	}
	if len(fallback) > 0 {
		return fallback
	}
	return nil
}
