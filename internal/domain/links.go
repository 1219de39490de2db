package domain

import "strings"

const siteURL = "https://polymarket.com"

// ProfileURL devuelve el perfil público de una wallet.
func ProfileURL(address string) string {
	return siteURL + "/profile/" + address
}

// MarketURL devuelve la página del evento, o la home si no hay slug.
func MarketURL(slug string) string {
	if slug == "" {
		return siteURL
	}
	return siteURL + "/event/" + slug
}

var markdownReplacer = strings.NewReplacer("_", " ", "*", "", "`", "", "[", "(", "]", ")")

// MarkdownSafe quita de s los caracteres que rompen el Markdown legacy de Telegram.
// El guion bajo pasa a espacio (los nombres tipo "Trump_Whale" son habituales).
func MarkdownSafe(s string) string {
	return markdownReplacer.Replace(s)
}
