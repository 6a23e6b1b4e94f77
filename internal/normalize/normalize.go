// internal/normalize/normalize.go

// Package normalize derives typed secondary attributes from raw scraped
// titles and description maps. Every function is pure and total: a signal
// that cannot be derived yields a zero value, never an error.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pricewatch/pricewatch/pkg/models"
)

type memoryPattern struct {
	re         *regexp.Regexp
	multiplier int
}

// Ordered unit patterns; the first match wins. Terabyte forms are converted
// to gigabyte-equivalent.
var memoryPatterns = []memoryPattern{
	{regexp.MustCompile(`(?i)(\d+)\s*GB`), 1},
	{regexp.MustCompile(`(?i)(\d+)\s*ГБ`), 1},
	{regexp.MustCompile(`(?i)(\d+)\s*TB`), 1024},
	{regexp.MustCompile(`(?i)(\d+)\s*ТБ`), 1024},
}

// Ordered model-number patterns: a brand-prefixed number, then a number
// adjacent to a size/unit marker, then a bare trailing number.
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:iPhone|iPad|Samsung|Galaxy|Xiaomi|Huawei|Sony|Google Pixel|Pixel|OnePlus|Oppo|Vivo|Realme|Redmi Note|Redmi|Poco|Motorola|Nokia|ASUS|Lenovo|TECNO|Infinix|Blackview|Ulefone|Doogee|Umidigi|Cubot|Oukitel|Mi)\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:GB|ГБ|inch|дюйм|"|см|cm)`),
	regexp.MustCompile(`(\d+)\s*$`),
}

var screenSizeLabels = []string{
	"Діагональ екрану",
	"Діагональ",
	"Екран",
	"Screen",
	"Screen Size",
}

var displayTypeLabels = []string{"Тип екрану", "Тип дисплею"}

var decimalRe = regexp.MustCompile(`\d+[.,]?\d*`)

// Memory extracts the storage size from a title and formats it as an
// integer with a GB suffix, e.g. "128GB" or "1024GB" for a 1TB title.
// Returns "" when no unit pattern matches.
func Memory(title string) string {
	if title == "" {
		return ""
	}
	for _, p := range memoryPatterns {
		m := p.re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return strconv.Itoa(n*p.multiplier) + "GB"
	}
	return ""
}

// ModelNumber extracts the numeric model token from a title, preferring a
// recognized brand prefix over unit-adjacent and trailing numbers.
func ModelNumber(title string) string {
	if title == "" {
		return ""
	}
	for _, re := range modelPatterns {
		if m := re.FindStringSubmatch(title); m != nil {
			return m[1]
		}
	}
	return ""
}

// ScreenSize looks up known diagonal labels in the description map and
// parses the first decimal number in the value. Comma decimal separators
// are normalized to dots. ok is false when no label yields a number.
func ScreenSize(desc models.Description) (float64, bool) {
	if len(desc) == 0 {
		return 0, false
	}
	for _, label := range screenSizeLabels {
		value, present := desc[label]
		if !present {
			continue
		}
		m := decimalRe.FindString(value)
		if m == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
		if err != nil {
			continue
		}
		return f, true
	}
	return 0, false
}

// IsOLED reports whether the display-type label marks an OLED panel.
func IsOLED(desc models.Description) bool {
	for _, label := range displayTypeLabels {
		if value := desc[label]; value != "" {
			return strings.Contains(strings.ToLower(value), "oled")
		}
	}
	return false
}

// HasNFC reports whether the NFC label carries an affirmative value.
func HasNFC(desc models.Description) bool {
	value, ok := desc["NFC"]
	if !ok {
		return false
	}
	return value == "Є" || strings.Contains(strings.ToLower(value), "так")
}

// Derive computes all secondary attributes. The fields are independent: a
// non-match in one never affects another.
func Derive(title string, desc models.Description) models.Derived {
	d := models.Derived{
		Memory:      Memory(title),
		ModelNumber: ModelNumber(title),
		IsOLED:      IsOLED(desc),
		HasNFC:      HasNFC(desc),
	}
	d.ScreenSize, d.HasScreenSize = ScreenSize(desc)
	return d
}
