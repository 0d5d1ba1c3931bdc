package valueparse

import "time"

// strftimeToGoLayout translates the handful of strftime directives used in
// this package's date formats into a Go reference-time layout. It only
// covers the directives DefaultGeoHints' sibling DefaultOptions' date
// formats actually use; an unrecognized directive is left as-is, which will
// simply fail to match during parsing rather than panicking.
var strftimeReplacer = func() func(string) string {
	pairs := []string{
		"%Y", "2006",
		"%m", "01",
		"%d", "02",
		"%H", "15",
		"%M", "04",
		"%S", "05",
		"%f", "000000",
		"%z", "-0700",
		"%Z", "MST",
	}
	return func(format string) string {
		out := []byte(format)
		result := make([]byte, 0, len(format)*2)
		for i := 0; i < len(out); i++ {
			matched := false
			if out[i] == '%' && i+1 < len(out) {
				for p := 0; p < len(pairs); p += 2 {
					token := pairs[p]
					end := i + len(token)
					if end > len(out) {
						end = len(out)
					}
					if string(out[i:end]) == token {
						result = append(result, pairs[p+1]...)
						i += len(token) - 1
						matched = true
						break
					}
				}
			}
			if !matched {
				result = append(result, out[i])
			}
		}
		return string(result)
	}
}()

// parseDate tries each of the given strftime-style formats in order and
// returns the epoch-milliseconds value of the first one that parses the
// candidate string, mirroring the "stop at the first successful format"
// contract.
func parseDate(candidate string, formats []string) (int64, bool) {
	for _, format := range formats {
		layout := strftimeToGoLayout(format)
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

func strftimeToGoLayout(format string) string {
	return strftimeReplacer(format)
}
