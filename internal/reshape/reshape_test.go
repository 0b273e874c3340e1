package reshape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	times []time.Time
	rows  []map[string]string
}

func (f *fakeSource) Len() int {
	return len(f.rows)
}

func (f *fakeSource) Time(i int) time.Time {
	return f.times[i]
}

func (f *fakeSource) Cell(i int, name string) (string, bool) {
	cell, ok := f.rows[i][name]
	if !ok || cell == "" {
		return "", false
	}
	return cell, true
}

func ts(minute int) time.Time {
	return time.Date(2024, 1, 1, 10, minute, 0, 0, time.UTC)
}

func TestFamilyColumns(t *testing.T) {
	assert.Equal(t, "TopMem3_Name", MemoryFamily.NameColumn(3))
	assert.Equal(t, "TopMem3_MB", MemoryFamily.ValueColumn(3))
	assert.Equal(t, "TopHandle1_Name", HandleFamily.NameColumn(1))
	assert.Equal(t, "TopHandle1_Count", HandleFamily.ValueColumn(1))
}

func TestUnpivot(t *testing.T) {
	src := &fakeSource{
		times: []time.Time{ts(0), ts(5)},
		rows: []map[string]string{
			{
				"TopMem1_Name": "chrome.exe", "TopMem1_MB": "900",
				"TopMem2_Name": "svchost.exe", "TopMem2_MB": "400",
			},
			{
				"TopMem1_Name": "chrome.exe", "TopMem1_MB": "950",
			},
		},
	}

	obs := Unpivot(src, MemoryFamily)
	assert.Equal(t, 3, len(obs))

	// 槽位展開是無損的：每個非空(名稱,數值)配對各成一列
	assert.Equal(t, Observation{Timestamp: ts(0), ProcessName: "chrome.exe", Value: 900}, obs[0])
	assert.Equal(t, Observation{Timestamp: ts(0), ProcessName: "svchost.exe", Value: 400}, obs[1])
	assert.Equal(t, Observation{Timestamp: ts(5), ProcessName: "chrome.exe", Value: 950}, obs[2])
}

func TestUnpivotSumsDuplicates(t *testing.T) {
	// 同一程序在同一時間點占了兩個槽位（多個執行個體），數值10與15
	src := &fakeSource{
		times: []time.Time{ts(0)},
		rows: []map[string]string{
			{
				"TopMem1_Name": "chrome.exe", "TopMem1_MB": "10",
				"TopMem2_Name": "chrome.exe", "TopMem2_MB": "15",
			},
		},
	}

	obs := Unpivot(src, MemoryFamily)
	assert.Equal(t, 1, len(obs))
	assert.Equal(t, 25.0, obs[0].Value)
}

func TestUnpivotSkipsIncompleteSlots(t *testing.T) {
	src := &fakeSource{
		times: []time.Time{ts(0)},
		rows: []map[string]string{
			{
				// 只有名稱沒有數值
				"TopHandle1_Name": "lsm.exe",
				// 只有數值沒有名稱
				"TopHandle2_Count": "1200",
				// 數值不是數字
				"TopHandle3_Name": "csrss.exe", "TopHandle3_Count": "oops",
				// 完整的槽位
				"TopHandle4_Name": "svchost.exe", "TopHandle4_Count": "800",
			},
		},
	}

	obs := Unpivot(src, HandleFamily)
	assert.Equal(t, 1, len(obs))
	assert.Equal(t, "svchost.exe", obs[0].ProcessName)
	assert.Equal(t, 800.0, obs[0].Value)
}

func TestUnpivotEmpty(t *testing.T) {
	obs := Unpivot(&fakeSource{}, MemoryFamily)
	assert.Equal(t, 0, len(obs))
}
