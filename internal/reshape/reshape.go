package reshape

import (
	"fmt"
	"log"
	"strconv"
	"time"
)

// Source 是攤平作業需要的寬表格讀取介面，由logsource.Log實作。
type Source interface {
	Len() int
	Time(i int) time.Time
	Cell(i int, name string) (string, bool)
}

// Family 描述一組寬表格的top-N欄位慣例：<NamePrefix><i>_Name配對
// <ValuePrefix><i>_<Unit>，i從1到Slots。
type Family struct {
	NamePrefix  string
	ValuePrefix string
	Unit        string
	Slots       int
}

var (
	MemoryFamily = Family{NamePrefix: "TopMem", ValuePrefix: "TopMem", Unit: "MB", Slots: 10}
	HandleFamily = Family{NamePrefix: "TopHandle", ValuePrefix: "TopHandle", Unit: "Count", Slots: 5}
)

func (f Family) NameColumn(i int) string {
	return fmt.Sprintf("%s%d_Name", f.NamePrefix, i)
}

func (f Family) ValueColumn(i int) string {
	return fmt.Sprintf("%s%d_%s", f.ValuePrefix, i, f.Unit)
}

// Observation 是長表格的一列：某個程序在某個時間點的單一資源讀數。
type Observation struct {
	Timestamp   time.Time
	ProcessName string
	Value       float64
}

type groupKey struct {
	ts   int64
	name string
}

// Unpivot 把寬表格的top-N欄位攤平成長表格。只有名稱與數值皆存在的槽位
// 才產生資料；同一時間點出現多次的程序名（例如多個執行個體分占不同槽位）
// 數值相加合併為一列。輸出順序為資料列順序，再依首次出現順序。
func Unpivot(l Source, f Family) []Observation {
	grouped := make(map[groupKey]int)
	result := make([]Observation, 0, l.Len())

	for i := 0; i < l.Len(); i++ {
		ts := l.Time(i)
		for slot := 1; slot <= f.Slots; slot++ {
			name, ok := l.Cell(i, f.NameColumn(slot))
			if !ok {
				continue
			}
			cell, ok := l.Cell(i, f.ValueColumn(slot))
			if !ok {
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				log.Printf("第%d列%s欄位資料有誤，資料為[%v]", i+1, f.ValueColumn(slot), cell)
				continue
			}

			key := groupKey{ts: ts.UnixNano(), name: name}
			if idx, ok := grouped[key]; ok {
				result[idx].Value += value
				continue
			}
			grouped[key] = len(result)
			result = append(result, Observation{
				Timestamp:   ts,
				ProcessName: name,
				Value:       value,
			})
		}
	}

	return result
}
