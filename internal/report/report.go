package report

import (
	"fmt"
	"os"
	"path/filepath"

	"memforensics/internal"
	"memforensics/internal/chart"
	"memforensics/internal/logsource"
	"memforensics/internal/reshape"

	"github.com/pkg/errors"
)

type Options struct {
	// 記錄檔所在目錄，報告也輸出到這裡
	Dir        string
	OutputFile string
	TopMemory  int
	TopHandle  int
}

func DefaultOptions() *Options {
	return &Options{
		Dir:        ".",
		OutputFile: internal.OutputFileName,
		TopMemory:  internal.DefaultTopMemory,
		TopHandle:  internal.DefaultTopHandle,
	}
}

// Generate 執行整條管線：找檔、合併、攤平、取前幾名、組圖、輸出HTML。
// 沒有檔案或沒有有效資料屬於正常空轉，印出診斷訊息後回傳nil且不產生
// 輸出檔；只有真正的輸出失敗才回傳錯誤。
func Generate(opt *Options) error {
	l, err := logsource.Load(opt.Dir)
	switch errors.Cause(err) {
	case nil:
	case logsource.ErrNoLogFiles:
		fmt.Println("No log files (*_log.csv) found in the current directory.")
		return nil
	case logsource.ErrNoValidData:
		fmt.Println("Could not read any valid data (New Format).")
		return nil
	default:
		return err
	}

	memory, memoryNames := reshape.TopK(reshape.Unpivot(l, reshape.MemoryFamily), opt.TopMemory)
	handle, handleNames := reshape.TopK(reshape.Unpivot(l, reshape.HandleFamily), opt.TopHandle)

	assembler := chart.NewAssembler(&chart.ReportData{
		Log:         l,
		Memory:      memory,
		MemoryNames: memoryNames,
		TopMemory:   opt.TopMemory,
		Handle:      handle,
		HandleNames: handleNames,
		TopHandle:   opt.TopHandle,
	})

	outputPath := filepath.Join(opt.Dir, opt.OutputFile)
	fout, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "建立輸出檔案出錯")
	}
	defer func() {
		_ = fout.Close()
	}()

	if err := assembler.Render(fout); err != nil {
		return err
	}

	abs, err := filepath.Abs(outputPath)
	if err != nil {
		abs = outputPath
	}
	fmt.Printf("Successfully created report: %s\n", abs)
	fmt.Println("\n報告已成功生成！請打開 MemoryForensicsReport.html 查看。")
	fmt.Println("Report has been successfully generated! Please open MemoryForensicsReport.html to view.")

	return nil
}
