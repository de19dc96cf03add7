// Package pdf 周实习日志表渲染（go-pdf/fpdf）。
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Weekdays 周表中出现的工作日，按顺序输出
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// WeeklySheet 周日志表模板数据
type WeeklySheet struct {
	Title               string
	InternName          string
	MatriculationNumber string
	Institution         string
	Level               string
	Department          string
	Option              string
	Specialty           string
	WeekNumber          int
	PeriodFrom          time.Time
	PeriodTo            time.Time
	// Days 小写工作日名 → 当日日志内容
	Days map[string]string
}

// Renderer 文档渲染接口：模板数据进，PDF 字节出
type Renderer interface {
	RenderWeeklySheet(sheet *WeeklySheet) ([]byte, error)
}

// FPDFRenderer 基于 fpdf 的渲染实现
type FPDFRenderer struct {
	// FontFamily 内置字体族，默认 Helvetica
	FontFamily string
	// FontFile UTF-8 TTF 字体路径；为空时使用内置字体，文本按 cp1252 编码，
	// 超出该字符集的字符输出为 '?'
	FontFile string

	compress bool
}

// NewRenderer 创建默认渲染器
func NewRenderer(fontFile string) *FPDFRenderer {
	return &FPDFRenderer{FontFamily: "Helvetica", FontFile: fontFile, compress: true}
}

const (
	dayColWidth = 35.0
	lineHeight  = 6.0
	// minRowLines 每行至少占 3 行高；续页不足该行数时整行挪到下一页
	minRowLines = 3
	utf8Family  = "trazor-utf8"
)

// RenderWeeklySheet 输出 A4 纵向周表：抬头 + 实习生信息 + 周一至周五五行
func (r *FPDFRenderer) RenderWeeklySheet(sheet *WeeklySheet) ([]byte, error) {
	if sheet == nil {
		return nil, fmt.Errorf("pdf: nil sheet")
	}
	font := r.FontFamily
	if font == "" {
		font = "Helvetica"
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.compress)
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(false, 15)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	if r.FontFile != "" {
		doc.AddUTF8Font(utf8Family, "", r.FontFile)
		doc.AddUTF8Font(utf8Family, "B", r.FontFile)
		if err := doc.Error(); err != nil {
			return nil, fmt.Errorf("pdf: load font %s: %w", r.FontFile, err)
		}
		font = utf8Family
		tr = func(s string) string { return s }
	}
	doc.AddPage()

	title := sheet.Title
	if title == "" {
		title = "Weekly Internship Logbook"
	}
	doc.SetFont(font, "B", 16)
	doc.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	doc.SetFont(font, "", 11)
	doc.CellFormat(0, 7, tr(fmt.Sprintf("Week %d", sheet.WeekNumber)), "", 1, "C", false, 0, "")
	doc.Ln(4)

	header := [][2]string{
		{"Name", sheet.InternName},
		{"Matriculation No.", sheet.MatriculationNumber},
		{"Institution", sheet.Institution},
		{"Level", sheet.Level},
		{"Department", sheet.Department},
		{"Option", sheet.Option},
		{"Specialty", sheet.Specialty},
		{"Period", fmt.Sprintf("%s to %s",
			sheet.PeriodFrom.Format("2006-01-02"), sheet.PeriodTo.Format("2006-01-02"))},
	}
	for _, kv := range header {
		if kv[1] == "" {
			continue
		}
		doc.SetFont(font, "B", 10)
		doc.CellFormat(45, lineHeight, tr(kv[0]+":"), "", 0, "L", false, 0, "")
		doc.SetFont(font, "", 10)
		doc.CellFormat(0, lineHeight, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	pageW, pageH := doc.GetPageSize()
	left, _, right, bottom := doc.GetMargins()
	contentW := pageW - left - right - dayColWidth

	tableHeader := func() {
		doc.SetFont(font, "B", 10)
		doc.SetFillColor(230, 230, 230)
		doc.CellFormat(dayColWidth, 8, "Day", "1", 0, "C", true, 0, "")
		doc.CellFormat(contentW, 8, tr("Activities"), "1", 1, "C", true, 0, "")
		doc.SetFont(font, "", 10)
	}
	tableHeader()

	for _, day := range Weekdays {
		lines := r.splitLines(doc, tr(sheet.Days[day]), contentW)
		for len(lines) < minRowLines {
			lines = append(lines, "")
		}

		// 按页切分：放不下的行在新页续写，并重复表头与日期列
		label := capitalize(day)
		for len(lines) > 0 {
			fit := int((pageH - bottom - doc.GetY()) / lineHeight)
			if fit < min(len(lines), minRowLines) {
				doc.AddPage()
				tableHeader()
				continue
			}
			chunk := lines[:min(fit, len(lines))]
			lines = lines[len(chunk):]

			y := doc.GetY()
			h := float64(len(chunk)) * lineHeight
			doc.Rect(left, y, dayColWidth, h, "D")
			doc.Rect(left+dayColWidth, y, contentW, h, "D")
			doc.SetXY(left, y)
			doc.CellFormat(dayColWidth, lineHeight, label, "", 0, "L", false, 0, "")
			for i, ln := range chunk {
				doc.SetXY(left+dayColWidth, y+float64(i)*lineHeight)
				doc.CellFormat(contentW, lineHeight, ln, "", 0, "L", false, 0, "")
			}
			doc.SetXY(left, y+h)
			label = capitalize(day) + " (cont.)"
		}
	}

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: output: %w", err)
	}
	return buf.Bytes(), nil
}

// splitLines 按列宽折行；UTF-8 字体按 rune 计算字宽，内置字体按 cp1252 字节
func (r *FPDFRenderer) splitLines(doc *fpdf.Fpdf, text string, w float64) []string {
	if r.FontFile != "" {
		return doc.SplitText(text, w)
	}
	raw := doc.SplitLines([]byte(text), w)
	lines := make([]string, len(raw))
	for i, ln := range raw {
		lines[i] = string(ln)
	}
	return lines
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
