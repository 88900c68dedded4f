package dataset

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the content of records so caches can tell datasets
// apart. Field order within a record does not affect the result.
func Fingerprint(records []Record) string {
	cols := Columns(records)
	d := xxhash.New()
	_, _ = d.WriteString(strconv.Itoa(len(records)))
	for _, r := range records {
		_, _ = d.WriteString("\x1e")
		for _, c := range cols {
			v, ok := r[c]
			if !ok {
				continue
			}
			_, _ = d.WriteString(c)
			_, _ = d.WriteString("\x1f")
			_, _ = d.WriteString(FormatValue(v))
			_, _ = d.WriteString("\x1f")
		}
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
