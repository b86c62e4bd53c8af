package engine

// DailyReturns converts a value series into simple daily returns:
// r[i] = v[i]/v[i-1] - 1. Steps where the prior value is zero or negative
// are skipped entirely rather than recorded as zero, so a valuation gap
// does not fabricate a crash-and-recovery pair.
func DailyReturns(values ValueSeries) ReturnSeries {
	if len(values) < 2 {
		return ReturnSeries{}
	}

	returns := make(ReturnSeries, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, Point{
			Date:  values[i].Date,
			Value: values[i].Value/prev - 1,
		})
	}
	return returns
}
