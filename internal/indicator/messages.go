package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
	localeDutch   locale = "nl"
)

type messages struct {
	recording   string
	uploading   string
	translating string
	ready       string
	languages   string
	errorText   string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "nl") {
		return localeDutch
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeDutch:
		return messages{
			recording:   "Opnemen…",
			uploading:   "Uploaden…",
			translating: "Vertalen…",
			ready:       "Vertaling klaar",
			languages:   "Talen",
			errorText:   "Vertaling mislukt",
		}
	default:
		return messages{
			recording:   "Recording…",
			uploading:   "Uploading…",
			translating: "Translating…",
			ready:       "Translation ready",
			languages:   "Languages",
			errorText:   "Translation failed",
		}
	}
}
