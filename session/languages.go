package session

import (
	"fmt"
	"strings"

	"github.com/nijaru/yt-chat/validation"
)

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var languages = []Language{
	{"en", "English"},
	{"hi", "Hindi"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"ar", "Arabic"},
	{"zh", "Chinese"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"ru", "Russian"},
}

// Languages returns the caption languages a user can pick, in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

func LookupLanguage(code string) (Language, error) {
	code = strings.TrimSpace(code)
	for _, l := range languages {
		if l.Code == code {
			return l, nil
		}
	}
	return Language{}, &validation.ValidationError{Message: fmt.Sprintf("unsupported language %q", code)}
}
