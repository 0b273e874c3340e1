package internal

// 新格式記錄檔的資料契約。欄位名稱由外部採集代理程式決定，此處不可更改。
const (
	LogFilePattern = "*_log.csv"

	// MarkerColumn 用於區分新舊格式。缺少此欄位的檔案視為舊格式，整檔略過。
	MarkerColumn = "NonPagedPoolMB"

	OutputFileName = "MemoryForensicsReport.html"
)

const (
	ColTimestamp      = "Timestamp"
	ColTotalMB        = "TotalMB"
	ColUsedMB         = "UsedMB"
	ColPagedPoolMB    = "PagedPoolMB"
	ColNonPagedPoolMB = "NonPagedPoolMB"
)

// 預設只保留尖峰值最大的前幾名程序，避免圖表線條過多難以閱讀
const (
	DefaultTopMemory = 5
	DefaultTopHandle = 3
)
