package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var byteUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// HumanBytes formats n in IEC units with two decimals.
func HumanBytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", v, byteUnits[unit])
}

// Percent formats a 0-100 value.
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// Ratio returns part/total as a percentage, 0 when total is 0.
func Ratio(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Uptime formats seconds as "1d 2h 3m", omitting leading zero units.
func Uptime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if days > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}

var (
	healthyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	faultedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// HealthStyle colors ZFS and guest states: ONLINE and ACTIVE green,
// DEGRADED and INACTIVE yellow, anything else red.
func HealthStyle(health string) lipgloss.Style {
	switch strings.ToUpper(strings.TrimSpace(health)) {
	case "ONLINE", "ACTIVE":
		return healthyStyle
	case "DEGRADED", "INACTIVE":
		return degradedStyle
	default:
		return faultedStyle
	}
}

// Bar draws a fixed-width usage bar for a 0-100 value.
func Bar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
