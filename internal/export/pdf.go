package export

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Format возвращает расширение файла отчёта
func (g *PDFGenerator) Format() string {
	return FormatPDF
}

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	// Стили текста
	titleStyle = props.Text{
		Size:  24,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   5,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	g.addHeader(m, data)
	g.addExchangeContent(m, data)
	g.addSubmissionsTable(m, data)
	g.addAssignmentsContent(m, data)
	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *ReportData) {
	m.AddRow(15,
		text.NewCol(12, g.Title(data), titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	// Метаданные
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Guild: %s", data.GuildName), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(data.GeneratedAt)),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	m.AddRow(8) // Отступ
}

func (g *PDFGenerator) addExchangeContent(m core.Maroto, data *ReportData) {
	ex := data.Exchange
	if ex == nil {
		return
	}

	g.addSection(m, "Exchange")

	g.addMetricCards(m, []metricCard{
		{Label: "Submissions", Value: fmt.Sprintf("%d", len(data.Submissions)), Highlight: true},
		{Label: "Games Per Member", Value: fmt.Sprintf("%d", ex.GamesPerMember)},
		{Label: "State", Value: ex.State.String()},
	})

	m.AddRow(5)
	g.addKeyValueTable(m, []keyValue{
		{"Slug", ex.Slug},
		{"Display Name", ex.DisplayName},
		{"Jam Type", ex.JamType.DisplayName()},
		{"Jam Link", ex.JamLink},
		{"Submissions Start (UTC)", g.FormatTimestamp(ex.SubmissionsStart)},
		{"Submissions End (UTC)", g.FormatTimestamp(ex.SubmissionsEnd)},
	})
}

func (g *PDFGenerator) addSubmissionsTable(m core.Maroto, data *ReportData) {
	if len(data.Submissions) == 0 {
		return
	}

	g.addSection(m, "Submissions")

	// Заголовок
	m.AddRow(8,
		text.NewCol(1, "#", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Submitter", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(5, "Link", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Submitted At (UTC)", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	// Данные (ограничиваем количество для PDF)
	maxRows := data.MaxRows
	for i, sub := range data.Submissions {
		if maxRows > 0 && i >= maxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", len(data.Submissions)-maxRows), smallStyle),
			)
			break
		}

		m.AddRow(6,
			text.NewCol(1, fmt.Sprintf("%d", i+1), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(3, g.FormatMember(sub.Submitter), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(5, sub.Link, tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(3, g.FormatTimestamp(sub.SubmittedAt), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}

func (g *PDFGenerator) addAssignmentsContent(m core.Maroto, data *ReportData) {
	if !data.HasAssignments() {
		return
	}

	g.addSection(m, "Assignment")

	g.addMetricCards(m, []metricCard{
		{Label: "Max Flow", Value: fmt.Sprintf("%d", data.MaxFlow), Highlight: true},
		{Label: "Reviewers", Value: fmt.Sprintf("%d", len(data.Reviewers))},
		{Label: "Assigned Games", Value: fmt.Sprintf("%d", data.AssignmentRows())},
	})

	m.AddRow(5)
	g.addKeyValueTable(m, []keyValue{
		{"Run ID", data.RunID},
	})

	m.AddRow(5)

	// Заголовок
	m.AddRow(8,
		text.NewCol(3, "Reviewer", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(6, "Assigned Link", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Author", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	// Данные (ограничиваем количество для PDF)
	maxRows := data.MaxRows
	total := data.AssignmentRows()
	count := 0
	for _, reviewer := range data.Reviewers {
		for _, game := range data.Assignments[reviewer] {
			if maxRows > 0 && count >= maxRows {
				m.AddRow(6,
					text.NewCol(12, fmt.Sprintf("... and %d more rows", total-maxRows), smallStyle),
				)
				return
			}

			m.AddRow(6,
				text.NewCol(3, g.FormatMember(reviewer), tableCellTextStyle).WithStyle(tableCellStyle),
				text.NewCol(6, game.Link, tableCellTextStyle).WithStyle(tableCellStyle),
				text.NewCol(3, g.FormatMember(game.Submitter), tableCellTextStyle).WithStyle(tableCellStyle),
			)
			count++
		}
	}
}

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 14
		}

		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(20, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func (g *PDFGenerator) addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(6, item.Key, boldStyle),
			text.NewCol(6, item.Value, normalStyle),
		)
	}
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(5)
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *ReportData) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by ratex | %s", g.FormatTimestamp(data.GeneratedAt)),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
