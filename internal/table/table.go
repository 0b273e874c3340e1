package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Table 是帶表頭的字串表格。空白儲存格視為null，欄位以名稱查找，
// 語意上對應資料分析工具的dataframe，但只保留本工具需要的操作。
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// Read 解析帶表頭的csv。欄位數不一致的資料列視為格式錯誤。
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("檔案沒有表頭")
	}
	if err != nil {
		return nil, errors.Wrap(err, "讀取表頭出錯")
	}

	t := newTable(header)

	var record []string
	for record, err = reader.Read(); err == nil; record, err = reader.Read() {
		t.rows = append(t.rows, record)
	}
	if err != io.EOF {
		return nil, errors.Wrap(err, "讀取資料列出錯")
	}

	return t, nil
}

func newTable(columns []string) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		// 重複欄位名取第一個，與來源工具行為一致
		if _, ok := index[c]; !ok {
			index[c] = i
		}
	}
	return &Table{
		columns: columns,
		index:   index,
		rows:    make([][]string, 0, 16),
	}
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell 回傳第row列名為name的儲存格。欄位不存在或儲存格為空時ok為false。
func (t *Table) Cell(row int, name string) (string, bool) {
	col, ok := t.index[name]
	if !ok {
		return "", false
	}
	r := t.rows[row]
	if col >= len(r) || r[col] == "" {
		return "", false
	}
	return r[col], true
}

// Concat 把other的資料列併入t。欄位取聯集，other缺少的欄位以空白補齊。
func (t *Table) Concat(other *Table) {
	for _, c := range other.columns {
		if !t.HasColumn(c) {
			t.index[c] = len(t.columns)
			t.columns = append(t.columns, c)
		}
	}

	for i := range other.rows {
		row := make([]string, len(t.columns))
		for _, c := range other.columns {
			if cell, ok := other.Cell(i, c); ok {
				row[t.index[c]] = cell
			}
		}
		t.rows = append(t.rows, row)
	}
}

// 採集代理程式的時間欄位格式未嚴格規範，依序嘗試常見格式
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
}

func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("無法解析的時間值：%s", s)
}

// ParseTimeColumn 把名為name的欄位整欄轉為時間。任一列失敗則整表視為格式錯誤。
func (t *Table) ParseTimeColumn(name string) ([]time.Time, error) {
	times := make([]time.Time, len(t.rows))
	for i := range t.rows {
		cell, ok := t.Cell(i, name)
		if !ok {
			return nil, fmt.Errorf("第%d列缺少%s欄位", i+1, name)
		}
		ts, err := ParseTime(cell)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("第%d列", i+1))
		}
		times[i] = ts
	}
	return times, nil
}

// SortByTime 依times遞增排序資料列，times與資料列一一對應。穩定排序，
// 相同時間戳保持原有先後。
func (t *Table) SortByTime(times []time.Time) []time.Time {
	order := make([]int, len(t.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return times[order[a]].Before(times[order[b]])
	})

	sortedRows := make([][]string, len(t.rows))
	sortedTimes := make([]time.Time, len(times))
	for i, idx := range order {
		sortedRows[i] = t.rows[idx]
		sortedTimes[i] = times[idx]
	}
	t.rows = sortedRows
	return sortedTimes
}
