package nic

import "fmt"

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n with two decimals in the largest unit that keeps the
// scaled value below 1024. PB absorbs anything larger.
func FormatBytes(n uint64) string {
	value := float64(n)
	for _, unit := range byteUnits[:len(byteUnits)-1] {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2f %s", value, byteUnits[len(byteUnits)-1])
}
