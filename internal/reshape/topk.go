package reshape

import "sort"

// TopK 依整段期間內的最大觀測值（不是平均值）排名，保留前k名程序。
// 回傳過濾後的長表格（保持原有順序）與排名順序的程序名單，名單用於
// 固定下游圖例的序列順序。最大值相同時依首次出現順序決定先後。
// k大於程序總數時全數保留；空輸入回傳空結果。
func TopK(observations []Observation, k int) ([]Observation, []string) {
	if len(observations) == 0 || k <= 0 {
		return nil, nil
	}

	maxByName := make(map[string]float64)
	names := make([]string, 0)
	for _, obs := range observations {
		max, seen := maxByName[obs.ProcessName]
		if !seen {
			names = append(names, obs.ProcessName)
		}
		if !seen || obs.Value > max {
			maxByName[obs.ProcessName] = obs.Value
		}
	}

	sort.SliceStable(names, func(a, b int) bool {
		return maxByName[names[a]] > maxByName[names[b]]
	})
	if k < len(names) {
		names = names[:k]
	}

	selected := make(map[string]struct{}, len(names))
	for _, n := range names {
		selected[n] = struct{}{}
	}

	filtered := make([]Observation, 0, len(observations))
	for _, obs := range observations {
		if _, ok := selected[obs.ProcessName]; ok {
			filtered = append(filtered, obs)
		}
	}

	return filtered, names
}
