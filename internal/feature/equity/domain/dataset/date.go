package dataset

// monthNumbers maps the upper-case English month abbreviations to their two-digit numbers.
var monthNumbers = map[string]string{
	"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04", "MAY": "05", "JUN": "06",
	"JUL": "07", "AUG": "08", "SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
}

// DateResult は1件分の日付変換結果です。OK が false の場合 Value は空です。
type DateResult struct {
	Value string
	OK    bool
}

// NormalizeDate は "DD-MON-YYYY" 形式の日付を "YYYY-MM-DD" 形式に変換します。
// 暦として正しいかどうかは検証しません（"31-FEB-2022" は "2022-02-31" になります）。
func NormalizeDate(s string) (string, bool) {
	if len(s) != 11 || s[2] != '-' || s[6] != '-' {
		return "", false
	}
	day, mon, year := s[0:2], s[3:6], s[7:11]
	m, ok := monthNumbers[mon]
	if !ok || !isDigits(day) || !isDigits(year) {
		return "", false
	}
	return year + "-" + m + "-" + day, true
}

// ParseDates は各要素を変換し、入力と同じ長さの結果を返します。
func ParseDates(col []string) []DateResult {
	out := make([]DateResult, len(col))
	for i, s := range col {
		v, ok := NormalizeDate(s)
		out[i] = DateResult{Value: v, OK: ok}
	}
	return out
}

// NormalizeDates は変換できた日付だけを入力順に返します。
//
// 変換できない要素は黙って読み飛ばすため、出力は入力より短くなり得ます。
// 他の列と位置を揃える必要がある場合は ParseDates を使ってください。
func NormalizeDates(col []string) []string {
	out := make([]string, 0, len(col))
	for _, s := range col {
		if v, ok := NormalizeDate(s); ok {
			out = append(out, v)
		}
	}
	return out
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
