package payload

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"
)

// ParseHexColor converts "#rrggbb", "rrggbb" or "#rgb" into a Sheets color.
func ParseHexColor(hex string) (*gsheet.Color, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return &gsheet.Color{
		Red:   float64((v>>16)&0xff) / 255,
		Green: float64((v>>8)&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
		Alpha: 1,
	}, true
}

// HexColor renders a Sheets color as #rrggbb. Nil renders as "".
func HexColor(c *gsheet.Color) string {
	if c == nil {
		return ""
	}
	channel := func(f float64) int {
		return int(math.Round(math.Max(0, math.Min(1, f)) * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c.Red), channel(c.Green), channel(c.Blue))
}

func white() *gsheet.Color {
	return &gsheet.Color{Red: 1, Green: 1, Blue: 1, Alpha: 1}
}
