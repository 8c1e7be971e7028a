package translate

import "strings"

// Language is a supported translation target.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Native string `json:"native"`
	Region string `json:"region"`
}

var languages = []Language{
	{"en", "English", "English", "Global"},
	{"es", "Spanish", "Español", "Europe/Americas"},
	{"fr", "French", "Français", "Europe/Africa"},
	{"de", "German", "Deutsch", "Europe"},
	{"it", "Italian", "Italiano", "Europe"},
	{"pt", "Portuguese", "Português", "Europe/Americas"},
	{"pt-br", "Portuguese (Brazil)", "Português (Brasil)", "Americas"},
	{"nl", "Dutch", "Nederlands", "Europe"},
	{"pl", "Polish", "Polski", "Europe"},
	{"ru", "Russian", "Русский", "Europe/Asia"},
	{"uk", "Ukrainian", "Українська", "Europe"},
	{"cs", "Czech", "Čeština", "Europe"},
	{"sv", "Swedish", "Svenska", "Europe"},
	{"da", "Danish", "Dansk", "Europe"},
	{"no", "Norwegian", "Norsk", "Europe"},
	{"fi", "Finnish", "Suomi", "Europe"},
	{"el", "Greek", "Ελληνικά", "Europe"},
	{"tr", "Turkish", "Türkçe", "Europe/Asia"},
	{"zh", "Chinese (Simplified)", "简体中文", "Asia"},
	{"zh-tw", "Chinese (Traditional)", "繁體中文", "Asia"},
	{"ja", "Japanese", "日本語", "Asia"},
	{"ko", "Korean", "한국어", "Asia"},
	{"th", "Thai", "ไทย", "Asia"},
	{"vi", "Vietnamese", "Tiếng Việt", "Asia"},
	{"id", "Indonesian", "Bahasa Indonesia", "Asia"},
	{"ms", "Malay", "Bahasa Melayu", "Asia"},
	{"hi", "Hindi", "हिन्दी", "Asia"},
	{"bn", "Bengali", "বাংলা", "Asia"},
	{"ta", "Tamil", "தமிழ்", "Asia"},
	{"te", "Telugu", "తెలుగు", "Asia"},
	{"ar", "Arabic", "العربية", "Middle East/Africa"},
	{"he", "Hebrew", "עברית", "Middle East"},
	{"fa", "Persian", "فارسی", "Middle East"},
	{"ur", "Urdu", "اردو", "Asia"},
	{"sw", "Swahili", "Kiswahili", "Africa"},
	{"ro", "Romanian", "Română", "Europe"},
	{"hu", "Hungarian", "Magyar", "Europe"},
	{"bg", "Bulgarian", "Български", "Europe"},
	{"sr", "Serbian", "Српски", "Europe"},
	{"hr", "Croatian", "Hrvatski", "Europe"},
	{"sk", "Slovak", "Slovenčina", "Europe"},
	{"sl", "Slovenian", "Slovenščina", "Europe"},
	{"lt", "Lithuanian", "Lietuvių", "Europe"},
	{"lv", "Latvian", "Latviešu", "Europe"},
	{"et", "Estonian", "Eesti", "Europe"},
}

// Languages returns every supported language.
func Languages() []Language {
	return append([]Language(nil), languages...)
}

// LookupLanguage finds a language by code, English name or native name,
// ignoring case.
func LookupLanguage(id string) (Language, bool) {
	id = strings.TrimSpace(id)
	for _, l := range languages {
		if strings.EqualFold(l.Code, id) || strings.EqualFold(l.Name, id) || strings.EqualFold(l.Native, id) {
			return l, true
		}
	}
	return Language{}, false
}

// LanguagesByRegion returns languages whose region contains region.
func LanguagesByRegion(region string) []Language {
	region = strings.ToLower(strings.TrimSpace(region))
	var out []Language
	for _, l := range languages {
		if strings.Contains(strings.ToLower(l.Region), region) {
			out = append(out, l)
		}
	}
	return out
}

// Model describes a completion model usable for translation.
type Model struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gemini-3-pro-preview"

var knownModels = []Model{
	{ID: "gemini-3-pro-preview", Name: "Gemini 3.0 Pro", Temperature: 0.3, MaxTokens: 8000},
	{ID: "claude-sonnet-4", Name: "Claude Sonnet 4.5", Temperature: 0.2, MaxTokens: 8000},
	{ID: "claude-opus-4", Name: "Claude Opus 4", Temperature: 0.15, MaxTokens: 12000},
}

var modelAliases = map[string]string{
	"gemini":   "gemini-3-pro-preview",
	"gemini-3": "gemini-3-pro-preview",
	"claude":   "claude-sonnet-4",
	"sonnet":   "claude-sonnet-4",
	"opus":     "claude-opus-4",
}

// Models returns every known model.
func Models() []Model {
	return append([]Model(nil), knownModels...)
}

// LookupModel resolves a model id or short alias.
func LookupModel(name string) (Model, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if id, ok := modelAliases[name]; ok {
		name = id
	}
	for _, m := range knownModels {
		if m.ID == name {
			return m, true
		}
	}
	return Model{}, false
}
