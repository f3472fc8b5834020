package overlay

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	textFont       = "goregular"
	textSize       = 12.0
	textMargin     = 36.0
	textLineHeight = textSize * 1.4
)

// TextToPDF lays plain text out on A4 pages, wrapping lines at the margins.
func (c *Composer) TextToPDF(text string) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: a4Width, H: a4Height}})
	if err := pdf.AddTTFFontData(textFont, goregular.TTF); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont(textFont, "", textSize); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	lines, err := wrapText(pdf, text, a4Width-2*textMargin)
	if err != nil {
		return nil, err
	}

	pdf.AddPage()
	y := textMargin
	for _, line := range lines {
		if y+textLineHeight > a4Height-textMargin {
			pdf.AddPage()
			y = textMargin
		}
		if line != "" {
			pdf.SetXY(textMargin, y)
			if err := pdf.Cell(nil, line); err != nil {
				return nil, fmt.Errorf("failed to write line: %w", err)
			}
		}
		y += textLineHeight
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	c.logger.Info("Text converted to PDF", "lines", len(lines))
	return buf.Bytes(), nil
}

// wrapText splits text into output lines. Blank input lines are kept as
// empty strings so paragraph breaks survive.
func wrapText(pdf *gopdf.GoPdf, text string, width float64) ([]string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")

	var out []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimRight(para, " ")
		if para == "" {
			out = append(out, "")
			continue
		}
		parts, err := pdf.SplitText(para, width)
		if err != nil {
			return nil, fmt.Errorf("failed to wrap text: %w", err)
		}
		out = append(out, parts...)
	}
	return out, nil
}
