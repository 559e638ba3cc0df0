package locale

import "strings"

const (
	LanguageChinese = "zh"
	LanguageEnglish = "en"
)

// Preference 描述回复所用语言及对应的 HTML lang。
type Preference struct {
	Language string
	HTMLLang string
}

// NormalizeLanguage 将 zh-CN、en_US 等写法归一为 zh/en，无法识别时返回空串。
func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "zh") || trimmed == "cn" {
		return LanguageChinese
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage 从 Accept-Language 头中粗略识别语言。
func LanguageFromAcceptLanguage(header string) string {
	trimmed := strings.ToLower(strings.TrimSpace(header))
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "zh") {
		return LanguageChinese
	}
	if strings.Contains(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// Resolve 依次取第一个可识别的语言，全部无法识别时回退到中文。
func Resolve(candidates ...string) string {
	for _, candidate := range candidates {
		if normalized := NormalizeLanguage(candidate); normalized != "" {
			return normalized
		}
	}
	return LanguageChinese
}

func PreferenceForLanguage(language string) Preference {
	if NormalizeLanguage(language) == LanguageEnglish {
		return Preference{Language: LanguageEnglish, HTMLLang: "en-US"}
	}
	return Preference{Language: LanguageChinese, HTMLLang: "zh-CN"}
}
