package templates

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// Workbook columns, in order. The first row is a header and is skipped.
const (
	colDay = iota
	colGroup
	colNum
	colSubgroup
	colParity
	colName
	colTeacher
	colClassroom
)

// XLSXHeader is the expected header row of a template workbook.
var XLSXHeader = []string{"day", "group", "num", "subgroup", "parity", "name", "teacher", "classroom"}

// ParseXLSX reads templates from the first sheet of a workbook, one lesson
// per row. Groups and lessons keep the order in which rows appear. Rows
// that cannot be understood are logged and skipped.
func ParseXLSX(r io.Reader) ([]model.DefaultDay, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx: no sheets found")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("xlsx: read rows: %w", err)
	}

	b := newDayBuilder()
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if err := b.addRow(row); err != nil {
			appLog.Warn("templates: skipping xlsx row", "sheet", sheets[0], "row", i+1, "err", err)
		}
	}
	return b.days(), nil
}

// LoadXLSX opens a workbook file and returns its templates as a Set.
// Like LoadDir it never fails; problems are logged.
func LoadXLSX(path string) *Set {
	file, err := os.Open(path)
	if err != nil {
		appLog.Warn("templates: cannot open workbook", "path", path, "err", err)
		return NewSet()
	}
	defer file.Close()

	days, err := ParseXLSX(file)
	if err != nil {
		appLog.Warn("templates: cannot parse workbook", "path", path, "err", err)
		return NewSet()
	}
	appLog.Info("templates loaded from workbook", "path", path, "days", len(days))
	return NewSet(days...)
}

type dayBuilder struct {
	byDay map[model.Weekday]*model.DefaultDay
}

func newDayBuilder() *dayBuilder {
	return &dayBuilder{byDay: make(map[model.Weekday]*model.DefaultDay)}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return model.Ptr(s)
}

func (b *dayBuilder) addRow(row []string) error {
	if len(row) == 0 || strings.Join(row, "") == "" {
		return nil
	}

	day, err := model.ParseWeekday(cell(row, colDay))
	if err != nil {
		return err
	}
	group := cell(row, colGroup)
	if group == "" {
		return fmt.Errorf("empty group")
	}
	num, err := strconv.Atoi(cell(row, colNum))
	if err != nil || num <= 0 {
		return fmt.Errorf("slot %q is not a positive number", cell(row, colNum))
	}
	parity, err := model.ParseParity(cell(row, colParity))
	if err != nil {
		return err
	}

	lesson := model.DefaultLesson{
		Num:       num,
		Name:      cell(row, colName),
		Teacher:   optional(cell(row, colTeacher)),
		Classroom: optional(cell(row, colClassroom)),
		IsEven:    parity.IsEven(),
	}
	lesson.SetSubgroupText(cell(row, colSubgroup))

	d, ok := b.byDay[day]
	if !ok {
		d = &model.DefaultDay{Day: day}
		b.byDay[day] = d
	}
	if gi, ok := d.GroupIndex(group); ok {
		d.Groups[gi].Lessons = append(d.Groups[gi].Lessons, lesson)
		return nil
	}
	d.Groups = append(d.Groups, model.DefaultGroup{Name: group, Lessons: []model.DefaultLesson{lesson}})
	return nil
}

func (b *dayBuilder) days() []model.DefaultDay {
	out := make([]model.DefaultDay, 0, len(b.byDay))
	for _, w := range model.Weekdays() {
		if d, ok := b.byDay[w]; ok {
			out = append(out, *d)
		}
	}
	return out
}
