package util

import "fmt"

// FormatSize renders a byte count with a binary unit, e.g. "512 B" or "1.5 KiB".
func FormatSize(n int64) string {
	const unit = 1024
	if n < 0 {
		return "-" + FormatSize(-n)
	}
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	value := float64(n)
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	i := -1
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}

// Savings returns how much smaller out is than in, as a percentage of in.
// It is negative when the output grew.
func Savings(in, out int64) float64 {
	if in == 0 {
		return 0
	}
	return float64(in-out) / float64(in) * 100
}
