// Package normalize maps the loose language, description and runtime values
// providers report onto the canonical Book representation.
package normalize

import (
	"strings"

	"golang.org/x/text/language"
)

// iso639_2to1 maps ISO 639-2 codes, terminologic and bibliographic, to
// ISO 639-1.
var iso639_2to1 = map[string]string{
	"eng": "en", "spa": "es", "fra": "fr", "deu": "de", "ita": "it",
	"por": "pt", "nld": "nl", "rus": "ru", "jpn": "ja", "zho": "zh",
	"kor": "ko", "ara": "ar", "hin": "hi", "pol": "pl", "swe": "sv",
	"nor": "no", "dan": "da", "fin": "fi", "tur": "tr", "ell": "el",
	"heb": "he", "ces": "cs", "hun": "hu", "ron": "ro", "tha": "th",
	"vie": "vi", "ind": "id", "msa": "ms", "ukr": "uk", "cat": "ca",
	"hrv": "hr", "slk": "sk", "bul": "bg", "lit": "lt", "lav": "lv",
	"est": "et", "slv": "sl", "srp": "sr", "fas": "fa", "ben": "bn",
	"tam": "ta", "tel": "te", "mar": "mr", "guj": "gu", "kan": "kn",
	"mal": "ml", "pan": "pa", "urd": "ur", "nep": "ne", "sin": "si",
	"mya": "my", "khm": "km", "lao": "lo", "amh": "am", "swa": "sw",
	"afr": "af", "zul": "zu", "xho": "xh", "hau": "ha", "yor": "yo",
	"ibo": "ig", "cym": "cy", "gle": "ga", "gla": "gd", "eus": "eu",
	"glg": "gl", "isl": "is", "mkd": "mk", "bos": "bs", "sqi": "sq",
	"hye": "hy", "kat": "ka", "kaz": "kk", "uzb": "uz", "azj": "az",
	"mon": "mn", "tgl": "tl", "fil": "tl", "jav": "jv", "sun": "su",
	// Alternative ISO 639-2/B codes (bibliographic)
	"ger": "de", "fre": "fr", "dut": "nl", "chi": "zh", "cze": "cs",
	"gre": "el", "per": "fa", "rum": "ro", "slo": "sk", "alb": "sq",
	"arm": "hy", "baq": "eu", "bur": "my", "geo": "ka", "ice": "is",
	"mac": "mk", "may": "ms", "tib": "bo", "wel": "cy",
}

// languageNameToCode maps English names and common endonyms to ISO 639-1.
var languageNameToCode = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de",
	"italian": "it", "portuguese": "pt", "dutch": "nl", "russian": "ru",
	"japanese": "ja", "chinese": "zh", "korean": "ko", "arabic": "ar",
	"hindi": "hi", "polish": "pl", "swedish": "sv", "norwegian": "no",
	"danish": "da", "finnish": "fi", "turkish": "tr", "greek": "el",
	"hebrew": "he", "czech": "cs", "hungarian": "hu", "romanian": "ro",
	"thai": "th", "vietnamese": "vi", "indonesian": "id", "malay": "ms",
	"ukrainian": "uk", "catalan": "ca", "croatian": "hr", "slovak": "sk",
	"bulgarian": "bg", "lithuanian": "lt", "latvian": "lv", "estonian": "et",
	"slovenian": "sl", "serbian": "sr", "persian": "fa", "farsi": "fa",
	"bengali": "bn", "tamil": "ta", "telugu": "te", "marathi": "mr",
	"gujarati": "gu", "kannada": "kn", "malayalam": "ml", "punjabi": "pa",
	"urdu": "ur", "nepali": "ne", "sinhala": "si", "burmese": "my",
	"khmer": "km", "lao": "lo", "amharic": "am", "swahili": "sw",
	"afrikaans": "af", "zulu": "zu", "xhosa": "xh", "hausa": "ha",
	"yoruba": "yo", "igbo": "ig", "welsh": "cy", "irish": "ga",
	"scottish gaelic": "gd", "basque": "eu", "galician": "gl", "icelandic": "is",
	"macedonian": "mk", "bosnian": "bs", "albanian": "sq", "armenian": "hy",
	"georgian": "ka", "kazakh": "kk", "uzbek": "uz", "azerbaijani": "az",
	"mongolian": "mn", "tagalog": "tl", "filipino": "tl", "javanese": "jv",
	"sundanese": "su", "mandarin": "zh", "cantonese": "zh", "tibetan": "bo",
	// Endonyms seen in provider payloads.
	"deutsch": "de", "francais": "fr", "français": "fr", "espanol": "es",
	"español": "es", "italiano": "it", "nederlands": "nl", "português": "pt",
	"polski": "pl", "svenska": "sv", "norsk": "no", "dansk": "da", "suomi": "fi",
}

// DefaultLanguage is returned for empty or unrecognized input.
const DefaultLanguage = "en"

// LanguageCode reduces a provider language value to ISO 639-1. It accepts
// 2- and 3-letter codes, locales ("EN-us", "en_GB"), names and endonyms
// ("English", "Deutsch") and other BCP 47 tags ("zh-Hant-TW"). Anything it
// cannot place, including unassigned codes like "xx", is DefaultLanguage.
func LanguageCode(raw string) string {
	if code := lookupLanguage(raw); code != "" {
		return code
	}
	return DefaultLanguage
}

// lookupLanguage returns "" when raw cannot be mapped.
func lookupLanguage(raw string) string {
	full := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "\x00", "")))
	if full == "" {
		return ""
	}
	primary, _, _ := strings.Cut(strings.ReplaceAll(full, "_", "-"), "-")

	if code, ok := iso639_2to1[primary]; ok {
		return code
	}
	if code, ok := languageNameToCode[full]; ok {
		return code
	}
	if code, ok := languageNameToCode[primary]; ok {
		return code
	}
	if len(primary) == 2 {
		if base, err := language.ParseBase(primary); err == nil && base.String() == primary {
			return primary
		}
		return ""
	}

	// Last resort: let x/text canonicalize the whole tag.
	tag, err := language.Parse(strings.ReplaceAll(full, "_", "-"))
	if err != nil {
		return ""
	}
	if base, conf := tag.Base(); conf != language.No && len(base.String()) == 2 {
		return base.String()
	}
	return ""
}
