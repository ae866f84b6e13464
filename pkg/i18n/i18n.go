// Package i18n holds the two UI translation tables (zh, en) and formats
// localized messages through golang.org/x/text message catalogs.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
)

// Supported is ordered to match the matcher tags below.
var Supported = []Language{Chinese, English}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher([]language.Tag{language.Chinese, language.English})
)

// Parse accepts "zh" or "en" (any case-insensitive BCP 47 form whose base is one of them).
func Parse(s string) (Language, bool) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case string(Chinese):
		return Chinese, true
	case string(English):
		return English, true
	}
	return "", false
}

// Match picks the session language from an Accept-Language header.
func Match(acceptLanguage string, fallback Language) Language {
	if acceptLanguage == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return Supported[idx]
}

// Toggle swaps zh and en. Anything else toggles to zh.
func (l Language) Toggle() Language {
	if l == Chinese {
		return English
	}
	return Chinese
}

func (l Language) Tag() language.Tag {
	if l == English {
		return language.English
	}
	return language.Chinese
}

func (l Language) Valid() bool {
	return l == Chinese || l == English
}

// Printer formats catalog messages for l.
func Printer(l Language) *message.Printer {
	return message.NewPrinter(l.Tag(), message.Catalog(cat))
}

// Sprintf is shorthand for Printer(l).Sprintf(key, args...).
func Sprintf(l Language, key string, args ...interface{}) string {
	return Printer(l).Sprintf(key, args...)
}

// Table returns the flat UI table for l (only the page copy keys).
func Table(l Language) map[string]string {
	p := Printer(l)
	out := make(map[string]string, len(pageKeys))
	for _, key := range pageKeys {
		out[key] = p.Sprintf(key)
	}
	return out
}

// Copy is the page copy in template-friendly form.
type Copy struct {
	Title              string
	Email              string
	Phone              string
	Remarks            string
	Submit             string
	Success            string
	EmailPlaceholder   string
	PhonePlaceholder   string
	RemarksPlaceholder string
	Toggle             string
}

func For(l Language) Copy {
	p := Printer(l)
	return Copy{
		Title:              p.Sprintf(KeyTitle),
		Email:              p.Sprintf(KeyEmail),
		Phone:              p.Sprintf(KeyPhone),
		Remarks:            p.Sprintf(KeyRemarks),
		Submit:             p.Sprintf(KeySubmit),
		Success:            p.Sprintf(KeySuccess),
		EmailPlaceholder:   p.Sprintf(KeyEmailPlaceholder),
		PhonePlaceholder:   p.Sprintf(KeyPhonePlaceholder),
		RemarksPlaceholder: p.Sprintf(KeyRemarksPlaceholder),
		Toggle:             p.Sprintf(KeyToggle),
	}
}

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for lang, table := range tables {
		for key, msg := range table {
			if err := b.SetString(lang.Tag(), key, msg); err != nil {
				panic("i18n: " + key + ": " + err.Error())
			}
		}
	}
	return b
}
