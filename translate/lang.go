package translate

import (
	"fmt"

	"golang.org/x/text/language"
)

// vendorCodes maps language bases to the service's codes where they differ
// from the ISO 639-1 code.
var vendorCodes = map[string]string{
	"ja": "jp",
	"ko": "kor",
	"fr": "fra",
	"es": "spa",
	"ar": "ara",
	"vi": "vie",
	"bg": "bul",
	"et": "est",
	"da": "dan",
	"fi": "fin",
	"ro": "rom",
	"sl": "slo",
	"sv": "swe",
}

// VendorCode returns the service language code for a BCP 47 locale.
// Chinese maps to "zh" or "cht" by script, so zh-TW and zh-HK become
// traditional Chinese; other bases map through a fixed table or pass
// through as the base language.
func VendorCode(locale string) (string, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	base, _ := tag.Base()
	switch b := base.String(); b {
	case "zh":
		if script, _ := tag.Script(); script.String() == "Hant" {
			return "cht", nil
		}
		return "zh", nil
	case "und":
		return "", fmt.Errorf("invalid locale %q: no language", locale)
	default:
		if code, ok := vendorCodes[b]; ok {
			return code, nil
		}
		return b, nil
	}
}
