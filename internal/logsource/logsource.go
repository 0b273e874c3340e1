package logsource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"memforensics/internal"
	"memforensics/internal/table"

	"github.com/pkg/errors"
)

// 兩種提早結束的情形。都屬於正常的空轉結果，不是程式錯誤。
var (
	ErrNoLogFiles  = errors.New("no log files found")
	ErrNoValidData = errors.New("no valid data")
)

// Log 是合併後依時間排序的記錄檔資料，時間欄位已解析完成。
type Log struct {
	table *table.Table
	times []time.Time
}

func (l *Log) Len() int {
	return l.table.Len()
}

func (l *Log) Time(i int) time.Time {
	return l.times[i]
}

func (l *Log) HasColumn(name string) bool {
	return l.table.HasColumn(name)
}

func (l *Log) Cell(i int, name string) (string, bool) {
	return l.table.Cell(i, name)
}

// Value 取出第i列名為name的數值。儲存格缺少或不是數字時ok為false。
func (l *Log) Value(i int, name string) (float64, bool) {
	cell, ok := l.table.Cell(i, name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Discover 列出dir下所有符合命名慣例的記錄檔，按檔名遞增排序。
// 檔名帶日期，排序後即為時間順序。
func Discover(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, internal.LogFilePattern))
	if err != nil {
		return nil, errors.Wrap(err, "列舉記錄檔出錯")
	}
	sort.Strings(files)
	return files, nil
}

// Load 讀入dir下全部有效的記錄檔並合併。單一檔案讀取失敗或屬於舊格式時
// 印出訊息後跳過，不中斷其餘檔案。完全沒有檔案或沒有檔案存活時回傳
// 對應的sentinel錯誤。
func Load(dir string) (*Log, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoLogFiles
	}

	fmt.Printf("Found log files: %v\n", files)

	var merged *table.Table
	for _, f := range files {
		t, err := readFile(f)
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", f, err)
			continue
		}
		if !t.HasColumn(internal.MarkerColumn) {
			fmt.Printf("Skipping %s: Old format (missing %s)\n", f, internal.MarkerColumn)
			continue
		}
		// 時間欄位解析不了的檔案同樣視為損壞，跳過
		if _, err := t.ParseTimeColumn(internal.ColTimestamp); err != nil {
			fmt.Printf("Error reading %s: %v\n", f, err)
			continue
		}

		if merged == nil {
			merged = t
		} else {
			merged.Concat(t)
		}
	}

	if merged == nil {
		return nil, ErrNoValidData
	}

	times, err := merged.ParseTimeColumn(internal.ColTimestamp)
	if err != nil {
		// 每個存活檔案都解析過，合併後不應再失敗
		return nil, errors.Wrap(err, "解析合併後時間欄位出錯")
	}
	times = merged.SortByTime(times)

	return &Log{table: merged, times: times}, nil
}

func readFile(name string) (*table.Table, error) {
	fin, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = fin.Close()
	}()

	return table.Read(fin)
}
