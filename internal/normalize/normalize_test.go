// internal/normalize/normalize_test.go
package normalize

import (
	"testing"

	"github.com/pricewatch/pricewatch/pkg/models"
)

func TestMemory(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Phone 128GB Black", "128GB"},
		{"Phone 128 GB Black", "128GB"},
		{"Смартфон 256ГБ", "256GB"},
		{"Laptop 1TB SSD", "1024GB"},
		{"Диск 2ТБ", "2048GB"},
		{"Phone 128gb", "128GB"},
		{"Phone Black", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Memory(tt.title); got != tt.want {
			t.Errorf("Memory(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestMemoryIdempotent(t *testing.T) {
	// Running the extractor over its own output yields the same value.
	first := Memory("Phone 1TB")
	if first != "1024GB" {
		t.Fatalf("Memory = %q, want 1024GB", first)
	}
	if again := Memory(first); again != first {
		t.Errorf("Memory(%q) = %q, not idempotent", first, again)
	}
}

func TestModelNumber(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Apple iPhone 15 Pro 128GB", "15"},
		{"Samsung Galaxy S24", "24"},
		{"Xiaomi 14 Ultra", "14"},
		{"Redmi Note 13 Pro", "13"},
		{"Generic Phone 128GB", "128"},
		{"Widget Model 42", "42"},
		{"No digits here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ModelNumber(tt.title); got != tt.want {
			t.Errorf("ModelNumber(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestScreenSize(t *testing.T) {
	tests := []struct {
		name   string
		desc   models.Description
		want   float64
		wantOK bool
	}{
		{
			"ukrainian label comma decimal",
			models.Description{"Діагональ екрану": "6,1 дюйма"},
			6.1, true,
		},
		{
			"short label",
			models.Description{"Діагональ": "6.7\""},
			6.7, true,
		},
		{
			"english label",
			models.Description{"Screen Size": "6.5 inches"},
			6.5, true,
		},
		{
			"integer value",
			models.Description{"Екран": "7 дюймів"},
			7, true,
		},
		{
			"preferred label wins",
			models.Description{"Діагональ екрану": "6,1", "Screen": "5.0"},
			6.1, true,
		},
		{
			"no numeric content",
			models.Description{"Діагональ екрану": "великий"},
			0, false,
		},
		{
			"unknown labels only",
			models.Description{"Колір": "чорний"},
			0, false,
		},
		{"nil map", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScreenSize(tt.desc)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ScreenSize(%v) = %v, %v; want %v, %v", tt.desc, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsOLED(t *testing.T) {
	tests := []struct {
		name string
		desc models.Description
		want bool
	}{
		{"oled exact", models.Description{"Тип екрану": "OLED"}, true},
		{"amoled counts", models.Description{"Тип дисплею": "Super AMOLED"}, true},
		{"lowercase value", models.Description{"Тип екрану": "oled"}, true},
		{"ips", models.Description{"Тип екрану": "IPS"}, false},
		{"empty value falls through", models.Description{"Тип екрану": "", "Тип дисплею": "OLED"}, true},
		{"no label", models.Description{"Колір": "чорний"}, false},
		{"nil map", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOLED(tt.desc); got != tt.want {
				t.Errorf("IsOLED(%v) = %v, want %v", tt.desc, got, tt.want)
			}
		})
	}
}

func TestHasNFC(t *testing.T) {
	tests := []struct {
		name string
		desc models.Description
		want bool
	}{
		{"ukrainian yes", models.Description{"NFC": "Є"}, true},
		{"tak", models.Description{"NFC": "Так"}, true},
		{"nemaie", models.Description{"NFC": "Немає"}, false},
		{"missing", models.Description{"Колір": "чорний"}, false},
		{"nil map", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasNFC(tt.desc); got != tt.want {
				t.Errorf("HasNFC(%v) = %v, want %v", tt.desc, got, tt.want)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	desc := models.Description{
		"Діагональ екрану": "6,1 дюйма",
		"Тип екрану":       "OLED",
		"NFC":              "Є",
	}

	d := Derive("Apple iPhone 15 Pro 128GB", desc)

	if d.Memory != "128GB" {
		t.Errorf("Memory = %q, want 128GB", d.Memory)
	}
	if d.ModelNumber != "15" {
		t.Errorf("ModelNumber = %q, want 15", d.ModelNumber)
	}
	if !d.HasScreenSize || d.ScreenSize != 6.1 {
		t.Errorf("ScreenSize = %v, %v; want 6.1, true", d.ScreenSize, d.HasScreenSize)
	}
	if !d.IsOLED {
		t.Error("IsOLED = false, want true")
	}
	if !d.HasNFC {
		t.Error("HasNFC = false, want true")
	}
}

func TestDeriveZeroInputs(t *testing.T) {
	d := Derive("", nil)
	if d != (models.Derived{}) {
		t.Errorf("Derive with zero inputs = %+v, want zero value", d)
	}
}
