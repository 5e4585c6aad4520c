package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"castos/internal/casting"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders a currency amount with digit grouping, using the
// symbol of the job's industry.
func formatAmount(industry string, amount float64) string {
	return amountPrinter.Sprintf("%s%.0f", casting.MarketFor(industry).CurrencySymbol, amount)
}

func formatStatus(status string, colorize bool) string {
	label := strings.ToUpper(status[:min(1, len(status))]) + status[min(1, len(status)):]
	if !colorize {
		return label
	}
	switch status {
	case "completed":
		return ansiGreen + label + ansiReset
	case "failed":
		return ansiRed + label + ansiReset
	case "pending":
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
