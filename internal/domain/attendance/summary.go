package attendance

import "github.com/shopspring/decimal"

func Summarize(rows []Record) Summary {
	out := Summary{OvertimeHours: decimal.Zero}
	for _, row := range rows {
		switch {
		case IsWorked(row.Status):
			out.DaysWorked++
		case row.Status == StatusAbsent:
			out.DaysAbsent++
		}
		out.OvertimeHours = out.OvertimeHours.Add(row.OvertimeHours)
	}
	return out
}
