package logsource

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"memforensics/internal"

	"github.com/stretchr/testify/assert"
)

const newFormatHeader = "Timestamp,TotalMB,UsedMB,PagedPoolMB,NonPagedPoolMB," +
	"TopMem1_Name,TopMem1_MB,TopHandle1_Name,TopHandle1_Count"

func writeLog(t *testing.T, dir, name, content string) {
	t.Helper()
	err := ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
	assert.NoError(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "b_log.csv", "")
	writeLog(t, dir, "a_log.csv", "")
	writeLog(t, dir, "notes.txt", "")

	files, err := Discover(dir)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(files))
	// 檔名遞增排序
	assert.Equal(t, filepath.Join(dir, "a_log.csv"), files[0])
	assert.Equal(t, filepath.Join(dir, "b_log.csv"), files[1])
}

func TestLoadNoFiles(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Equal(t, ErrNoLogFiles, err)
}

func TestLoadMergesAndSorts(t *testing.T) {
	dir := t.TempDir()
	// 兩個檔案各3列，時間交錯，槽位一的程序名互不相同
	writeLog(t, dir, "20240102_log.csv", newFormatHeader+"\n"+
		"2024-01-02 10:00:00,16000,8000,300,200,svchost.exe,400,svchost.exe,900\n"+
		"2024-01-02 10:05:00,16000,8100,301,201,svchost.exe,410,svchost.exe,910\n"+
		"2024-01-02 10:10:00,16000,8200,302,202,svchost.exe,420,svchost.exe,920\n")
	writeLog(t, dir, "20240101_log.csv", newFormatHeader+"\n"+
		"2024-01-01 10:00:00,16000,7000,300,200,chrome.exe,900,chrome.exe,800\n"+
		"2024-01-01 10:05:00,16000,7100,301,201,chrome.exe,910,chrome.exe,810\n"+
		"2024-01-01 10:10:00,16000,7200,302,202,chrome.exe,920,chrome.exe,820\n")

	l, err := Load(dir)
	assert.NoError(t, err)

	// 合併列數等於各有效檔案列數之和
	assert.Equal(t, 6, l.Len())

	// 時間戳遞增
	for i := 1; i < l.Len(); i++ {
		assert.False(t, l.Time(i).Before(l.Time(i-1)))
	}

	v, ok := l.Value(0, internal.ColUsedMB)
	assert.True(t, ok)
	assert.Equal(t, 7000.0, v)

	cell, ok := l.Cell(5, "TopMem1_Name")
	assert.True(t, ok)
	assert.Equal(t, "svchost.exe", cell)
}

func TestLoadSkipsOldFormat(t *testing.T) {
	dir := t.TempDir()
	// 舊格式：缺少NonPagedPoolMB標記欄位
	writeLog(t, dir, "old_log.csv", "Timestamp,TotalMB,UsedMB\n2024-01-01 10:00:00,16000,7000\n")

	_, err := Load(dir)
	assert.Equal(t, ErrNoValidData, err)

	/*
		舊格式檔案與新格式檔案並存時，只略過舊格式
	*/
	writeLog(t, dir, "new_log.csv", newFormatHeader+"\n"+
		"2024-01-01 11:00:00,16000,7000,300,200,chrome.exe,900,chrome.exe,800\n")

	l, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestLoadSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	/*
		欄位數不一致的損壞檔案
	*/
	writeLog(t, dir, "broken_log.csv", newFormatHeader+"\n1,2,3\n")
	/*
		時間欄位無法解析的檔案
	*/
	writeLog(t, dir, "badtime_log.csv", newFormatHeader+"\n"+
		"not-a-time,16000,7000,300,200,chrome.exe,900,chrome.exe,800\n")

	_, err := Load(dir)
	assert.Equal(t, ErrNoValidData, err)

	writeLog(t, dir, "good_log.csv", newFormatHeader+"\n"+
		"2024-01-01 10:00:00,16000,7000,300,200,chrome.exe,900,chrome.exe,800\n")

	l, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestValue(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "a_log.csv", newFormatHeader+"\n"+
		"2024-01-01 10:00:00,16000,oops,300,200,chrome.exe,900,,\n")

	l, err := Load(dir)
	assert.NoError(t, err)

	/*
		不是數字的儲存格
	*/
	_, ok := l.Value(0, internal.ColUsedMB)
	assert.False(t, ok)

	/*
		空白儲存格
	*/
	_, ok = l.Value(0, "TopHandle1_Count")
	assert.False(t, ok)

	v, ok := l.Value(0, internal.ColTotalMB)
	assert.True(t, ok)
	assert.Equal(t, 16000.0, v)
}
