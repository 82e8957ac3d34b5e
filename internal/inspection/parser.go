// Package inspection mines Automart inspection report pages. The pages
// have no stable markup, so values are found positionally: the cell after
// a cell whose text contains a label.
package inspection

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/auction-ingest/internal/textutil"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

const (
	maxAccessoryLen = 20
	maxGradeLabel   = 30
	maxBodyValue    = 10
	maxTextLen      = 2000
	maxLabelCell    = 30
)

var (
	accessoryRe   = regexp.MustCompile(`([■□])\s*([^\s■□,]+)`)
	bodyLetterRe  = regexp.MustCompile(`^[A-Q]$`)
	claimCountRe  = regexp.MustCompile(`(\d+)\s*(?:회|건)`)
	claimAmountRe = regexp.MustCompile(`([\d,]+)\s*원`)
	claimTotalRe  = regexp.MustCompile(`(?:합계|총액|총)\s*[:：]?\s*([\d,]+)\s*원`)
)

// cell is a th or td with its trimmed text.
type cell struct {
	node *html.Node
	text string
	isTD bool
}

// document is the flattened view the heuristics work on.
type document struct {
	cells []*cell
	index map[*html.Node]*cell
	rows  [][]*cell
}

// Parser turns report HTML into InspectionReportData.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a report parser.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger.With("component", "inspection_parser")}
}

// Parse reads a report page. Only a malformed document is an error; a page
// with no recognizable sections yields empty data.
func (p *Parser) Parse(r io.Reader) (types.InspectionReportData, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return types.InspectionReportData{}, fmt.Errorf("parse report html: %w", err)
	}
	doc, err := newDocument(root)
	if err != nil {
		return types.InspectionReportData{}, err
	}

	data := types.InspectionReportData{
		BasicInfo:            doc.basicInfo(),
		Accessories:          doc.accessories(),
		FluidConditions:      doc.fluids(),
		MechanicalInspection: doc.mechanical(),
		BodyDiagram:          doc.bodyDiagram(),
		InsuranceHistory:     doc.insurance(),
	}
	data.SpecialNotes = doc.textSection(containsAll("특이사항"))
	data.RepairRecommendations = doc.textSection(containsAll("수리"))
	data.ExteriorInteriorAssessment = doc.textSection(isAssessmentLabel)

	p.logger.Debug("report parsed", "sections", data.SectionCount(), "cells", len(doc.cells))
	return data, nil
}

// ParseString is Parse for an in-memory page.
func (p *Parser) ParseString(s string) (types.InspectionReportData, error) {
	return p.Parse(strings.NewReader(s))
}

func newDocument(root *html.Node) (*document, error) {
	cellNodes, err := htmlquery.QueryAll(root, "//*[self::th or self::td]")
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	doc := &document{index: make(map[*html.Node]*cell, len(cellNodes))}
	for _, n := range cellNodes {
		c := &cell{node: n, text: strings.TrimSpace(htmlquery.InnerText(n)), isTD: n.Data == "td"}
		doc.cells = append(doc.cells, c)
		doc.index[n] = c
	}

	rowNodes, err := htmlquery.QueryAll(root, "//tr")
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	for _, tr := range rowNodes {
		inner, err := htmlquery.QueryAll(tr, ".//*[self::th or self::td]")
		if err != nil {
			return nil, fmt.Errorf("query row cells: %w", err)
		}
		row := make([]*cell, 0, len(inner))
		for _, n := range inner {
			if c, ok := doc.index[n]; ok {
				row = append(row, c)
			}
		}
		doc.rows = append(doc.rows, row)
	}
	return doc, nil
}

// next returns the text of the element following c, and whether one exists.
func (d *document) next(c *cell) (string, bool) {
	for n := c.node.NextSibling; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		if nc, ok := d.index[n]; ok {
			return nc.text, true
		}
		return strings.TrimSpace(htmlquery.InnerText(n)), true
	}
	return "", false
}

// rowTDs returns the td cells of the row that contains c.
func (d *document) rowTDs(c *cell) []*cell {
	var tr *html.Node
	for n := c.node.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == "tr" {
			tr = n
			break
		}
	}
	if tr == nil {
		return nil
	}
	var tds []*cell
	for _, rc := range d.cellsUnder(tr) {
		if rc.isTD {
			tds = append(tds, rc)
		}
	}
	return tds
}

func (d *document) cellsUnder(n *html.Node) []*cell {
	var out []*cell
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if c, ok := d.index[ch]; ok {
				out = append(out, c)
			}
			walk(ch)
		}
	}
	walk(n)
	return out
}

// labelValue returns the sibling text of the first cell containing label.
func (d *document) labelValue(label string) string {
	for _, c := range d.cells {
		if !strings.Contains(c.text, label) {
			continue
		}
		if v, ok := d.next(c); ok {
			return v
		}
	}
	return ""
}

func (d *document) basicInfo() *types.BasicInfo {
	var b types.BasicInfo
	for _, f := range basicInfoLabels {
		for _, label := range f.labels {
			if v := d.labelValue(label); v != "" {
				f.set(&b, v)
				break
			}
		}
	}
	if b.IsZero() {
		return nil
	}
	return &b
}

func (d *document) accessories() map[string]bool {
	out := map[string]bool{}
	for _, c := range d.cells {
		if !c.isTD {
			continue
		}
		for _, m := range accessoryRe.FindAllStringSubmatch(c.text, -1) {
			name := strings.TrimSpace(m[2])
			if name == "" || utf8.RuneCountInString(name) >= maxAccessoryLen {
				continue
			}
			out[name] = m[1] == "■"
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (d *document) fluids() map[string]string {
	out := map[string]string{}
	for _, c := range d.cells {
		for _, f := range fluidLabels {
			if !strings.Contains(c.text, f.label) {
				continue
			}
			v, _ := d.next(c)
			if g, ok := NormalizeGrade(v); ok {
				out[f.key] = g
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mechanical groups graded rows under the most recent category header.
func (d *document) mechanical() map[string]map[string]string {
	out := map[string]map[string]string{}
	current := ""
	for _, row := range d.rows {
		if len(row) < 2 {
			continue
		}
		for _, cat := range mechanicalCategories {
			if strings.Contains(row[0].text, cat) {
				current = cat
				break
			}
		}
		if current == "" {
			continue
		}
		for i := 0; i < len(row)-1; i++ {
			label := row[i].text
			g, ok := NormalizeGrade(row[i+1].text)
			if !ok || label == "" || utf8.RuneCountInString(label) >= maxGradeLabel {
				continue
			}
			// body diagram rows can follow a category header
			if bodyLetterRe.MatchString(label) {
				continue
			}
			if out[current] == nil {
				out[current] = map[string]string{}
			}
			out[current][label] = g
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (d *document) bodyDiagram() map[string]types.BodyPart {
	raw := map[string]string{}
	validValue := func(v string) bool {
		n := utf8.RuneCountInString(v)
		return n > 0 && n < maxBodyValue
	}

	// Letter/condition pairs inside one row.
	for _, row := range d.rows {
		var tds []*cell
		for _, c := range row {
			if c.isTD {
				tds = append(tds, c)
			}
		}
		for i := 0; i < len(tds)-1; i++ {
			if bodyLetterRe.MatchString(tds[i].text) && validValue(tds[i+1].text) {
				raw[tds[i].text] = tds[i+1].text
			}
		}
	}
	// Letters whose condition sits in an adjacent element outside a row.
	for _, c := range d.cells {
		if !c.isTD || !bodyLetterRe.MatchString(c.text) {
			continue
		}
		if _, seen := raw[c.text]; seen {
			continue
		}
		if v, ok := d.next(c); ok && validValue(v) {
			raw[c.text] = v
		}
	}

	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]types.BodyPart, len(raw))
	for letter, cond := range raw {
		part := BodyPartNames[letter]
		if part == "" {
			part = letter
		}
		if mapped, ok := bodyConditions[cond]; ok {
			cond = mapped
		}
		out[letter] = types.BodyPart{Part: part, Condition: cond}
	}
	return out
}

func isAssessmentLabel(s string) bool {
	return (strings.Contains(s, "외장") || strings.Contains(s, "내장")) && strings.Contains(s, "소견")
}

func containsAll(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if !strings.Contains(s, w) {
				return false
			}
		}
		return true
	}
}

// textSection finds free text by label, widened to the longest td in the
// label's row. The last label cell with surviving content wins.
func (d *document) textSection(isLabel func(string) bool) string {
	result := ""
	for _, c := range d.cells {
		if !isLabel(c.text) || utf8.RuneCountInString(c.text) >= maxLabelCell {
			continue
		}
		val, _ := d.next(c)
		if utf8.RuneCountInString(val) >= maxTextLen {
			val = ""
		}
		for _, td := range d.rowTDs(c) {
			n := utf8.RuneCountInString(td.text)
			if n > utf8.RuneCountInString(val) && n < maxTextLen {
				val = td.text
			}
		}
		if val == "" || IsHeaderOnly(val, c.text) {
			continue
		}
		result = val
	}
	return result
}

// IsHeaderOnly reports whether value is just a decorated copy of label or
// too short to be content once bullet glyphs are removed.
func IsHeaderOnly(value, label string) bool {
	v := stripDecoration(value)
	if utf8.RuneCountInString(v) < 3 {
		return true
	}
	return v == stripDecoration(label)
}

func stripDecoration(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(bulletGlyphs, r) {
			return -1
		}
		return r
	}, s)
}

func (d *document) insurance() *types.InsuranceHistory {
	for _, c := range d.cells {
		if !strings.Contains(c.text, "보험") || !(strings.Contains(c.text, "이력") || strings.Contains(c.text, "사고")) {
			continue
		}
		if utf8.RuneCountInString(c.text) >= maxLabelCell {
			continue
		}
		details, _ := d.next(c)
		details = textutil.CollapseSpace(details)
		if details == "" || IsHeaderOnly(details, c.text) {
			continue
		}
		h := &types.InsuranceHistory{Details: details}
		if m := claimCountRe.FindStringSubmatch(details); m != nil {
			h.Count, _ = strconv.Atoi(m[1])
		}
		h.TotalAmount = claimTotal(details)
		return h
	}
	return nil
}

// claimTotal returns the stated total when the text has one, otherwise
// the sum of the individual claim amounts.
func claimTotal(details string) int64 {
	if m := claimTotalRe.FindStringSubmatch(details); m != nil {
		if amt := textutil.ParseAmount(m[1]); amt != nil {
			return *amt
		}
	}
	var sum int64
	for _, m := range claimAmountRe.FindAllStringSubmatch(details, -1) {
		if amt := textutil.ParseAmount(m[1]); amt != nil {
			sum += *amt
		}
	}
	return sum
}
