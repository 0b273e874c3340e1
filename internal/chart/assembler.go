package chart

import (
	"fmt"
	"io"
	"time"

	"memforensics/internal"
	"memforensics/internal/reshape"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/pkg/errors"
)

const timeAxisLayout = "2006-01-02 15:04:05"

const (
	chartWidth  = "1180px"
	chartHeight = "320px"
)

// ECharts以"-"表示缺少的資料點，序列在該時間點畫出斷線
const gapValue = "-"

// Source 是組圖需要的主表讀取介面，由logsource.Log實作。
type Source interface {
	Len() int
	Time(i int) time.Time
	Value(i int, name string) (float64, bool)
}

// ReportData 是組裝四張圖所需的全部輸入：合併後的主表、兩個資源族的
// 過濾後長表格與排名名單，以及名單對應的k值（用於標題）。
type ReportData struct {
	Log         Source
	Memory      []reshape.Observation
	MemoryNames []string
	TopMemory   int
	Handle      []reshape.Observation
	HandleNames []string
	TopHandle   int
}

type Assembler interface {
	// Render 把整份報告序列化為單一HTML文件
	Render(w io.Writer) error
}

func NewAssembler(data *ReportData) Assembler {
	a := &assembler{data: data}
	a.buildTimeAxis()
	return a
}

type assembler struct {
	data *ReportData

	// 四張圖共用合併表的時間軸，程序序列靠timeIndex對齊
	timeAxis  []string
	timeIndex map[int64]int
}

func (a *assembler) buildTimeAxis() {
	l := a.data.Log
	a.timeAxis = make([]string, 0, l.Len())
	a.timeIndex = make(map[int64]int, l.Len())
	for i := 0; i < l.Len(); i++ {
		ts := l.Time(i)
		if _, ok := a.timeIndex[ts.UnixNano()]; ok {
			continue
		}
		a.timeIndex[ts.UnixNano()] = len(a.timeAxis)
		a.timeAxis = append(a.timeAxis, ts.Format(timeAxisLayout))
	}
}

func (a *assembler) Render(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "系統資源鑑識報告 / System Resource Forensics Report"
	page.SetLayout(components.PageCenterLayout)

	page.AddCharts(
		a.systemMemoryChart(),
		a.kernelPoolChart(),
		a.processChart(
			fmt.Sprintf("3. 前 %d 大應用程式記憶體佔用 (應用程式洩漏偵測) - 這裡抓出誰是吃記憶體怪獸 / Top %d Process Memory Usage",
				a.data.TopMemory, a.data.TopMemory),
			"MB", integerLabel, 5,
			"Mem", a.data.Memory, a.data.MemoryNames,
		),
		a.processChart(
			fmt.Sprintf("4. 前 %d 大應用程式控制代碼佔用 (資源洩漏偵測) - lsm.exe 或資安軟體若出現在這且持續上升，通常是元兇 / Top %d Process Handle Count",
				a.data.TopHandle, a.data.TopHandle),
			"數量 (Count)", integerLabel, 5,
			"Handles", a.data.Handle, a.data.HandleNames,
		),
	)

	return errors.Wrap(page.Render(w), "輸出報告出錯")
}

// 整數與一位小數兩種刻度標籤，對應各面板數值範圍
var (
	integerLabel = opts.FuncOpts("function (value) { return value.toFixed(0); }")
	decimalLabel = opts.FuncOpts("function (value) { return value.toFixed(1); }")
)

func (a *assembler) newLine(title, yName, yLabelFormatter string, splitNumber int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeChalk,
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Show: true, Rotate: 30},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:        yName,
			SplitNumber: splitNumber,
			AxisLabel:   &opts.AxisLabel{Show: true, Formatter: yLabelFormatter},
		}),
	)
	line.SetXAxis(a.timeAxis)
	return line
}

// 面板一：總記憶體畫成灰色虛線當參考線，已用記憶體畫成紅色填滿區域。
// 紅色區域貼近虛線即表示實體記憶體即將耗盡。
func (a *assembler) systemMemoryChart() *charts.Line {
	line := a.newLine(
		"1. 總系統記憶體使用量 (實體記憶體) - 當紅色區域接近灰色虛線時，代表記憶體快被吃光了 / Total System Memory Usage",
		"MB", integerLabel, 4,
	)

	line.AddSeries("總記憶體 (Total MB)", a.scalarSeries(internal.ColTotalMB),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "gray", Type: "dashed"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "gray"}),
	)
	line.AddSeries("已用記憶體 (Used MB)", a.scalarSeries(internal.ColUsedMB),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "red"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "red"}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.4}),
	)
	return line
}

// 面板二：核心集區。非分頁集區持續上升不降通常代表驅動程式洩漏。
func (a *assembler) kernelPoolChart() *charts.Line {
	line := a.newLine(
		"2. 核心集區使用量 (驅動程式洩漏偵測) - 橘色線若持續上升不降，代表驅動程式有問題 / Kernel Pool Usage (Driver Leak)",
		"MB", decimalLabel, 8,
	)

	line.AddSeries("非分頁集區 (Non-Paged Pool) [關鍵]", a.scalarSeries(internal.ColNonPagedPoolMB),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "orange", Width: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "orange"}),
	)
	line.AddSeries("分頁集區 (Paged Pool)", a.scalarSeries(internal.ColPagedPoolMB),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "cyan"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "cyan"}),
	)
	return line
}

// 面板三、四：每個入選程序一條線，圖例順序沿用排名順序。
// 名單為空時產生沒有序列的空面板，不是錯誤。
func (a *assembler) processChart(title, yName, yLabelFormatter string, splitNumber int,
	seriesPrefix string, observations []reshape.Observation, names []string) *charts.Line {

	line := a.newLine(title, yName, yLabelFormatter, splitNumber)

	byName := make(map[string][]reshape.Observation, len(names))
	for _, obs := range observations {
		byName[obs.ProcessName] = append(byName[obs.ProcessName], obs)
	}

	for _, name := range names {
		data := a.emptySeries()
		for _, obs := range byName[name] {
			if idx, ok := a.timeIndex[obs.Timestamp.UnixNano()]; ok {
				data[idx] = opts.LineData{Value: obs.Value}
			}
		}
		line.AddSeries(fmt.Sprintf("%s: %s", seriesPrefix, name), data)
	}
	return line
}

// scalarSeries 取主表單一欄位對齊到時間軸。同一時間戳有多列時取最後一列，
// 缺少或無法解析的儲存格留下斷點。
func (a *assembler) scalarSeries(column string) []opts.LineData {
	data := a.emptySeries()
	l := a.data.Log
	for i := 0; i < l.Len(); i++ {
		v, ok := l.Value(i, column)
		if !ok {
			continue
		}
		data[a.timeIndex[l.Time(i).UnixNano()]] = opts.LineData{Value: v}
	}
	return data
}

func (a *assembler) emptySeries() []opts.LineData {
	data := make([]opts.LineData, len(a.timeAxis))
	for i := range data {
		data[i] = opts.LineData{Value: gapValue}
	}
	return data
}
