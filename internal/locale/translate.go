package locale

// Pick 按语言返回对应文案，缺省中文；目标语言文案为空时回退到另一种。
func Pick(language, english, chinese string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return chinese
	}
	if chinese != "" {
		return chinese
	}
	return english
}
