// Package format contains small formatting and filesystem helpers shared by the commands.
package format

import (
	gounits "github.com/docker/go-units"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// HumanBytes renders a byte count in binary units, e.g. "256MiB"
func HumanBytes(size int64) string {
	return gounits.BytesSize(float64(size))
}

// Count renders n with thousands separators, e.g. "3,861,493"
func Count(n int64) string {
	return printer.Sprintf("%d", n)
}
