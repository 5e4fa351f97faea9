package durable

import "strings"

// IsTemp reports whether name is an in-progress output: "<x>.temp.parquet"
// or "<x>.temp_<tag>.parquet". Names that merely contain ".temp", such as
// "Heat.temperature.json.parquet", are finished files.
func IsTemp(name string) bool {
	base, ok := strings.CutSuffix(name, ".parquet")
	if !ok {
		return false
	}
	i := strings.LastIndex(base, ".temp")
	if i < 0 {
		return false
	}
	rest := base[i+len(".temp"):]
	if rest == "" {
		return true
	}
	tag, ok := strings.CutPrefix(rest, "_")
	return ok && tag != "" && !strings.Contains(tag, ".")
}
