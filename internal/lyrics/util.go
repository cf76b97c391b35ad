package lyrics

import "strconv"

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatBool(vs ...bool) string {
	b := make([]byte, len(vs))
	for i, v := range vs {
		b[i] = '0'
		if v {
			b[i] = '1'
		}
	}
	return string(b)
}
