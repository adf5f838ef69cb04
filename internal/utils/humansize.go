package utils

import (
	"fmt"
	"math"
)

// HumanSize renders a byte count as a human-readable size (KB, MB, ...).
func HumanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	exp := int64(math.Log(float64(bytes)) / math.Log(unit))
	pre := "KMGTPE"[exp-1]
	return fmt.Sprintf("%.1f %cB", float64(bytes)/math.Pow(unit, float64(exp)), pre)
}
