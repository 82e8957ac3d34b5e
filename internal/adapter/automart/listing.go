// Package automart scrapes the Automart public-auction listing. The listing
// is a server-rendered table whose pages are swapped in by the site's own
// gfnpagemove script, so the adapter drives a browser session and mines the
// rendered HTML.
package automart

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/auction-ingest/internal/textutil"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

const (
	siteURL      = "https://www.automart.co.kr"
	commonURL    = siteURL + "/views/pub_auction/Common/"
	ActiveURL    = siteURL + "/views/pub_auction/Search_Main.asp?tmode=1&window=ok"
	CompletedURL = siteURL + "/views/pub_auction/Search_Main.asp?tmode=2&window=ok"
)

// Column positions in a listing row.
const (
	colNo        = 0
	colCarInfo   = 2
	colStatus    = 3
	colOrg       = 4
	colMgmt      = 6
	colYearTrans = 8
	colPrice     = 10
	colDeadline  = 12
	colResult    = 14
	minCells     = 15
)

var (
	mgmtNumberRe = regexp.MustCompile(`^\d{4}-\d{1,4}$`)
	rowNumberRe  = regexp.MustCompile(`^\d+$`)
	carNumberRe  = regexp.MustCompile(`^(\S+)\s*\(([^)]+)\)`)
	fuelSuffixRe = regexp.MustCompile(`\s*\([^)]+\)`)
	carInfoRe    = regexp.MustCompile(`gfnCarInfo\s*\(\s*'([^']+)'\s*,\s*'([^']+)'`)

	errTooFewCells = errors.New("row has too few cells")
	errNotDataRow  = errors.New("first cell is not a row number")
)

// ExtractListing mines one rendered listing page. Rows are located by
// their management-number cell; each row yields at most one item. Rows
// that cannot be parsed are returned as ParseErrors and never abort the
// page.
func ExtractListing(page string, completed bool, now time.Time) ([]*types.AuctionItem, []error, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, nil, fmt.Errorf("parse listing html: %w", err)
	}

	var (
		items   []*types.AuctionItem
		skipped []error
		seen    = map[string]bool{}
	)
	doc.Find("td").Each(func(_ int, td *goquery.Selection) {
		mgmt := strings.TrimSpace(td.Text())
		if !mgmtNumberRe.MatchString(mgmt) || seen[mgmt] {
			return
		}
		row := td.Closest("tr")
		if row.Length() == 0 {
			return
		}
		item, err := extractRow(row, completed, now)
		if err != nil {
			skipped = append(skipped, &types.ParseError{Source: types.SourceAutomart, Key: mgmt, Err: err})
			return
		}
		seen[item.MgmtNumber] = true
		items = append(items, item)
	})

	return items, skipped, nil
}

func extractRow(row *goquery.Selection, completed bool, now time.Time) (*types.AuctionItem, error) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() < minCells {
		return nil, errTooFewCells
	}
	cell := func(i int) []string { return cellLines(cells.Eq(i)) }
	joined := func(i int) string { return strings.Join(cell(i), " ") }

	if !rowNumberRe.MatchString(joined(colNo)) {
		return nil, errNotDataRow
	}

	mgmt := textutil.CollapseSpace(joined(colMgmt))
	if mgmt == "" {
		return nil, errors.New("empty management number")
	}

	carInfo := cell(colCarInfo)
	first := lineAt(carInfo, 0)
	carNumber, fuel := first, ""
	if m := carNumberRe.FindStringSubmatch(first); m != nil {
		carNumber, fuel = m[1], strings.TrimSpace(m[2])
	} else {
		carNumber = strings.TrimSpace(fuelSuffixRe.ReplaceAllString(first, ""))
	}

	sourceID := "automart:" + mgmt
	if carNumber != "" {
		sourceID += ":" + carNumber
	}

	item := types.NewAuctionItem(types.SourceAutomart, sourceID)
	item.ScrapedAt = now
	item.MgmtNumber = mgmt
	item.CarNumber = carNumber
	item.FuelType = fuel
	item.ModelName = lineAt(carInfo, 1)

	org := cell(colOrg)
	item.Organization = lineAt(org, 0)
	item.Location = lineAt(org, 1)

	yearTrans := cell(colYearTrans)
	item.Year = textutil.ParseYear(lineAt(yearTrans, 0), now)
	item.Transmission = lineAt(yearTrans, 1)

	if p := textutil.ParsePrice(joined(colPrice)); p != nil && *p > 0 {
		item.Price = p
	}
	item.BidDeadline = normalizeDate(joined(colDeadline), now)
	item.ResultDate = normalizeDate(joined(colResult), now)
	item.DetailURL = extractDetailURL(row)

	if completed {
		if strings.Contains(joined(colStatus), types.StatusFailed) {
			item.SetResult(types.StatusFailed, nil)
		} else {
			item.SetResult(types.StatusSold, item.Price)
		}
	}

	return item, nil
}

// normalizeDate keeps the raw text when it is not a recognized date so the
// value is not lost.
func normalizeDate(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if iso := textutil.NormalizeDate(raw, now); iso != "" {
		return iso
	}
	return raw
}

// extractDetailURL prefers a p_NotNo link, then the gfnCarInfo handler.
func extractDetailURL(row *goquery.Selection) string {
	if href, ok := row.Find(`a[href*="p_NotNo"]`).First().Attr("href"); ok && href != "" {
		switch {
		case strings.HasPrefix(href, "http"):
			return href
		case strings.HasPrefix(href, "/"):
			return siteURL + href
		default:
			return siteURL + "/" + href
		}
	}

	var detail string
	row.Find(`a[onclick*="gfnCarInfo"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		m := carInfoRe.FindStringSubmatch(a.AttrOr("onclick", ""))
		if m == nil {
			return true
		}
		detail = fmt.Sprintf("%sCarDetail_in.asp?p_sel=0&bidtype=1&p_NotNo=%s&p_Code=1&p_CarNo=%s&window=ok", commonURL, m[1], m[2])
		return false
	})
	return detail
}

// cellLines renders a cell's text with <br> and block boundaries as line
// breaks, the way a browser's innerText does.
func cellLines(sel *goquery.Selection) []string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "br":
				b.WriteByte('\n')
				return
			case "script", "style":
				return
			case "div", "p", "li":
				b.WriteByte('\n')
				defer b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	var lines []string
	for _, l := range textutil.Lines(b.String()) {
		if l = textutil.CollapseSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
