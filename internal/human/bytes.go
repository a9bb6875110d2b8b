// Package human formats values for people to read.
package human

import (
	"fmt"
	"math"
)

// Bytes formats b with a decimal unit, e.g. 83 MB.
func Bytes(b int64) string {
	if b < 1000 {
		return fmt.Sprintf("%d B", b)
	}
	sizes := []string{"B", "kB", "MB", "GB", "TB"}
	e := math.Min(math.Floor(math.Log10(float64(b))/3), float64(len(sizes)-1))
	val := float64(b) / math.Pow(1000, e)
	return fmt.Sprintf("%.0f %s", val, sizes[int(e)])
}
