package channelconfig

import "github.com/wonny/volscan/internal/contracts"

// ColumnSpec is one channel column of a configuration template
type ColumnSpec struct {
	Trigger      string
	Active       string
	MinPrice     string
	MaxPrice     string
	MinVolume    string
	MaxVolume    string
	MinAvgVolume string
	MaxAvgVolume string
	MinRatio     string
	UseList1     string
	UseList2     string
}

var rowLabels = map[int]string{
	contracts.RowSaveTime:  "Save Time",
	contracts.RowTrigger:   "Run Time",
	contracts.RowActive:    "Active",
	contracts.RowMinPrice:  "Min Price",
	contracts.RowMaxPrice:  "Max Price",
	contracts.RowMinVolume: "Min Volume",
	contracts.RowMaxVolume: "Max Volume",
	contracts.RowMinAvgVol: "Min Avg Volume",
	contracts.RowMaxAvgVol: "Max Avg Volume",
	contracts.RowMinRatio:  "Min Volume / Avg Volume",
	contracts.RowUseList1:  "Exclude list1.txt",
	contracts.RowUseList2:  "Exclude list2.txt",
}

// Template builds a configuration grid with the fixed layout (used by `config init`)
func Template(saveAt string, cols ...ColumnSpec) contracts.Grid {
	width := contracts.FirstChannel + len(cols)
	grid := contracts.Grid{}.Resize(contracts.HeaderRows, width)

	for row, label := range rowLabels {
		grid[row][0] = label
	}
	grid[contracts.RowSaveTime][contracts.ColSaveTime] = saveAt

	for i, spec := range cols {
		col := contracts.FirstChannel + i
		grid[contracts.RowTrigger][col] = spec.Trigger
		grid[contracts.RowActive][col] = spec.Active
		grid[contracts.RowMinPrice][col] = spec.MinPrice
		grid[contracts.RowMaxPrice][col] = spec.MaxPrice
		grid[contracts.RowMinVolume][col] = spec.MinVolume
		grid[contracts.RowMaxVolume][col] = spec.MaxVolume
		grid[contracts.RowMinAvgVol][col] = spec.MinAvgVolume
		grid[contracts.RowMaxAvgVol][col] = spec.MaxAvgVolume
		grid[contracts.RowMinRatio][col] = spec.MinRatio
		grid[contracts.RowUseList1][col] = spec.UseList1
		grid[contracts.RowUseList2][col] = spec.UseList2
	}

	return grid
}

// SampleColumn is the worked example channel: 09:30:00, price (1, 50)
func SampleColumn() ColumnSpec {
	return ColumnSpec{
		Trigger:      "09:30:00",
		Active:       "YES",
		MinPrice:     "1",
		MaxPrice:     "50",
		MinVolume:    "100000",
		MaxVolume:    "5000000",
		MinAvgVolume: "50000",
		MaxAvgVolume: "4000000",
		MinRatio:     "1.5",
		UseList1:     "NO",
		UseList2:     "NO",
	}
}
