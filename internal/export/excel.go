package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelGenerator генератор отчётов в формате Excel
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Format возвращает расширение файла отчёта
func (g *ExcelGenerator) Format() string {
	return FormatExcel
}

// Generate генерирует Excel отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	g.writeExchangeSheet(f, data)
	g.writeSubmissionsSheet(f, data)
	g.writeAssignmentsSheet(f, data)

	// Дефолтный лист удаляем после создания своих: единственный лист
	// книги excelize удалить не даёт.
	f.DeleteSheet("Sheet1")

	// Записываем в буфер
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeExchangeSheet(f *excelize.File, data *ReportData) {
	sheetName := "Exchange"
	f.NewSheet(sheetName)

	// Стили
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	row := 1

	// Заголовок
	f.SetCellValue(sheetName, cellAddr("A", row), g.Title(data))
	f.MergeCell(sheetName, cellAddr("A", row), cellAddr("B", row))
	row += 2

	// Метаданные обмена
	if ex := data.Exchange; ex != nil {
		f.SetCellValue(sheetName, cellAddr("A", row), "Exchange")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Guild")
		f.SetCellValue(sheetName, cellAddr("B", row), data.GuildName)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Slug")
		f.SetCellValue(sheetName, cellAddr("B", row), ex.Slug)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Display Name")
		f.SetCellValue(sheetName, cellAddr("B", row), ex.DisplayName)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Jam Type")
		f.SetCellValue(sheetName, cellAddr("B", row), ex.JamType.DisplayName())
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Jam Link")
		f.SetCellValue(sheetName, cellAddr("B", row), ex.JamLink)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "State")
		f.SetCellValue(sheetName, cellAddr("B", row), ex.State.String())
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Submissions Start (UTC)")
		f.SetCellValue(sheetName, cellAddr("B", row), g.FormatTimestamp(ex.SubmissionsStart))
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Submissions End (UTC)")
		f.SetCellValue(sheetName, cellAddr("B", row), g.FormatTimestamp(ex.SubmissionsEnd))
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Games Per Member")
		f.SetCellValue(sheetName, cellAddr("B", row), ex.GamesPerMember)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Submissions")
		f.SetCellValue(sheetName, cellAddr("B", row), len(data.Submissions))
		row += 2
	}

	// Итоги раздачи
	if data.HasAssignments() {
		f.SetCellValue(sheetName, cellAddr("A", row), "Assignment")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Run ID")
		f.SetCellValue(sheetName, cellAddr("B", row), data.RunID)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Max Flow")
		f.SetCellValue(sheetName, cellAddr("B", row), data.MaxFlow)
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Reviewers")
		f.SetCellValue(sheetName, cellAddr("B", row), len(data.Reviewers))
		row++

		f.SetCellValue(sheetName, cellAddr("A", row), "Assigned Games")
		f.SetCellValue(sheetName, cellAddr("B", row), data.AssignmentRows())
		row += 2
	}

	f.SetCellValue(sheetName, cellAddr("A", row), "Generated At (UTC)")
	f.SetCellValue(sheetName, cellAddr("B", row), g.FormatTimestamp(data.GeneratedAt))

	f.SetColWidth(sheetName, "A", "B", 26)
}

func (g *ExcelGenerator) writeSubmissionsSheet(f *excelize.File, data *ReportData) {
	if len(data.Submissions) == 0 {
		return
	}

	sheetName := "Submissions"
	f.NewSheet(sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []string{"#", "Submitter ID", "Link", "Submitted At (UTC)"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "D1", headerStyle)

	for i, sub := range data.Submissions {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), i+1)
		f.SetCellValue(sheetName, cellAddr("B", row), g.FormatMember(sub.Submitter))
		f.SetCellValue(sheetName, cellAddr("C", row), sub.Link)
		f.SetCellValue(sheetName, cellAddr("D", row), g.FormatTimestamp(sub.SubmittedAt))
	}

	f.SetColWidth(sheetName, "A", "D", 26)
}

func (g *ExcelGenerator) writeAssignmentsSheet(f *excelize.File, data *ReportData) {
	if !data.HasAssignments() {
		return
	}

	sheetName := "Assignments"
	f.NewSheet(sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []string{"Reviewer ID", "Assigned Link", "Author ID"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "C1", headerStyle)

	row := 2
	for _, reviewer := range data.Reviewers {
		for _, game := range data.Assignments[reviewer] {
			f.SetCellValue(sheetName, cellAddr("A", row), g.FormatMember(reviewer))
			f.SetCellValue(sheetName, cellAddr("B", row), game.Link)
			f.SetCellValue(sheetName, cellAddr("C", row), g.FormatMember(game.Submitter))
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "C", 26)
}

// cellAddr формирует адрес ячейки
func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
