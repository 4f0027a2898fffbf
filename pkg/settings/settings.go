package settings

import (
	"context"
	"net/url"
	"strings"
)

// ContactMethodsKey is the storage key the creator's contact handles live under.
const ContactMethodsKey = "glowlink_contact_methods"

// ContactMethods are the creator's external contact handles. Any may be empty.
type ContactMethods struct {
	WhatsApp  string `json:"whatsapp" yaml:"whatsapp"`
	Instagram string `json:"instagram" yaml:"instagram"`
	Other     string `json:"other" yaml:"other"`
}

// Empty reports whether no handle is set.
func (c ContactMethods) Empty() bool {
	return c.WhatsApp == "" && c.Instagram == "" && c.Other == ""
}

// Source reads the contact methods. A missing value is not an error.
type Source interface {
	ContactMethods(ctx context.Context) (ContactMethods, error)
}

// StaticSource serves fixed contact methods, typically from the config file.
type StaticSource ContactMethods

func (s StaticSource) ContactMethods(context.Context) (ContactMethods, error) {
	return ContactMethods(s), nil
}

// WhatsAppLink builds a wa.me deep link with msg prefilled. Everything but digits is
// stripped from the handle; an empty result yields an empty link.
func WhatsAppLink(handle, msg string) string {
	var digits strings.Builder
	for _, r := range handle {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	link := "https://wa.me/" + digits.String()
	if msg == "" {
		return link
	}
	return link + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
}
