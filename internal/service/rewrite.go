package service

import (
	"bytes"
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// rewriteAttrRe matches href/src/action attribute values beginning with a
// slash. Whether the value is root-relative (one slash) or
// protocol-relative (two) is decided in the replacement func; RE2 has no
// lookahead.
var rewriteAttrRe = regexp.MustCompile(`\b(href|src|action)=(["'])/([^"']*)`)

// headTagRe matches the first opening <head> tag, tolerating attributes.
var headTagRe = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)

// marimoMountConfigRe matches the script-embedded mount config block.
var marimoMountConfigRe = regexp.MustCompile(`(?is)window\.__MARIMO_MOUNT_CONFIG__\s*=\s*\{.*?\}\s*;`)

// marimoThemeKeyRe matches the theme entry inside a mount config block.
var marimoThemeKeyRe = regexp.MustCompile(`("theme"\s*:\s*")[^"]+(")`)

// marimoUserConfigRe matches the entity-escaped JSON carried by the
// <marimo-user-config> custom element.
var marimoUserConfigRe = regexp.MustCompile(`(?is)(<marimo-user-config[^>]*\bdata-config=")([^"]*)(")`)

// RewriteHTML adjusts an upstream HTML document so it keeps working when
// served under the proxy mount instead of at the upstream's root: it
// injects a <base> tag, prefixes root-relative href/src/action values
// with the mount, and optionally overrides the embedded theme preference.
// Rewriting is best-effort and never fails; undecodable bytes are decoded
// permissively and malformed embedded config is left untouched.
func RewriteHTML(body []byte, mount string, theme string) []byte {
	doc := decodeUTF8(body)

	baseHref := strings.TrimRight(mount, "/") + "/"
	mountPrefix := strings.TrimLeft(mount, "/")

	if theme == "dark" || theme == "light" {
		doc = rewriteMountConfigTheme(doc, theme)
		doc = rewriteUserConfigTheme(doc, theme)
	}

	// Ensure relative URLs resolve under the proxy mount.
	if !strings.Contains(strings.ToLower(doc), "<base") {
		if loc := headTagRe.FindStringIndex(doc); loc != nil {
			doc = doc[:loc[1]] + "\n<base href=\"" + baseHref + "\" />" + doc[loc[1]:]
		}
	}

	// Rewrite root-relative asset paths (e.g. src="/static/app.js") to stay
	// under the mount. Protocol-relative (//) values and paths already under
	// the mount are left byte-identical.
	doc = rewriteAttrRe.ReplaceAllStringFunc(doc, func(match string) string {
		sub := rewriteAttrRe.FindStringSubmatch(match)
		rest := sub[3]
		if strings.HasPrefix(rest, "/") {
			return match
		}
		if rest == mountPrefix || strings.HasPrefix(rest, mountPrefix+"/") {
			return match
		}
		return sub[1] + "=" + sub[2] + baseHref + rest
	})

	return []byte(doc)
}

// decodeUTF8 decodes bytes as UTF-8, replacing invalid sequences instead
// of failing the request.
func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// rewriteMountConfigTheme replaces the theme value inside the first
// window.__MARIMO_MOUNT_CONFIG__ assignment, first match only.
func rewriteMountConfigTheme(doc, theme string) string {
	loc := marimoMountConfigRe.FindStringIndex(doc)
	if loc == nil {
		return doc
	}
	segment := doc[loc[0]:loc[1]]
	key := marimoThemeKeyRe.FindStringSubmatchIndex(segment)
	if key == nil {
		return doc
	}
	// key[3] is the end of the opening `"theme": "` group, key[4] the start
	// of the closing quote group.
	segment = segment[:key[3]] + theme + segment[key[4]:]
	return doc[:loc[0]] + segment + doc[loc[1]:]
}

// rewriteUserConfigTheme sets display.theme inside the entity-escaped JSON
// of the first <marimo-user-config data-config="..."> attribute. On any
// unescape/parse failure the attribute is left byte-identical.
func rewriteUserConfigTheme(doc, theme string) string {
	idx := marimoUserConfigRe.FindStringSubmatchIndex(doc)
	if idx == nil {
		return doc
	}
	raw := doc[idx[4]:idx[5]]

	var cfg map[string]any
	if err := json.Unmarshal([]byte(html.UnescapeString(raw)), &cfg); err != nil {
		return doc
	}
	display, ok := cfg["display"].(map[string]any)
	if !ok {
		display = map[string]any{}
		cfg["display"] = display
	}
	display["theme"] = theme

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return doc
	}
	escaped := html.EscapeString(strings.TrimSuffix(buf.String(), "\n"))

	return doc[:idx[4]] + escaped + doc[idx[5]:]
}
