package service

import (
	"strings"
	"testing"
)

const testMount = "/marimo/semantic-entropy-probe-comparison"

func TestRewriteHTML_InjectsBaseTag(t *testing.T) {
	doc := `<html><head><meta charset="utf-8"></head><body></body></html>`
	got := string(RewriteHTML([]byte(doc), testMount, ""))

	want := `<head>` + "\n" + `<base href="` + testMount + `/" />`
	if !strings.Contains(got, want) {
		t.Errorf("base tag not injected after <head>:\n%s", got)
	}
	if strings.Count(got, "<base") != 1 {
		t.Errorf("expected exactly one base tag, got %d", strings.Count(got, "<base"))
	}
}

func TestRewriteHTML_BaseTagAfterHeadWithAttributes(t *testing.T) {
	doc := `<HEAD data-x="1"><title>t</title></HEAD>`
	got := string(RewriteHTML([]byte(doc), testMount, ""))
	if !strings.Contains(got, `<HEAD data-x="1">`+"\n"+`<base href="`+testMount+`/" />`) {
		t.Errorf("base tag not injected after attributed head:\n%s", got)
	}
}

func TestRewriteHTML_ExistingBaseTagKept(t *testing.T) {
	doc := `<head><base href="/other/" /></head>`
	got := string(RewriteHTML([]byte(doc), testMount, ""))
	if strings.Count(got, "<base") != 1 {
		t.Errorf("must not inject a second base tag:\n%s", got)
	}
}

func TestRewriteHTML_NoHeadNoBase(t *testing.T) {
	doc := `<body><p>plain</p></body>`
	got := string(RewriteHTML([]byte(doc), testMount, ""))
	if strings.Contains(got, "<base") {
		t.Errorf("base tag must not be synthesized without <head>:\n%s", got)
	}
}

func TestRewriteHTML_RootRelativeAttributes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "src rewritten",
			in:   `<script src="/assets/app.js"></script>`,
			want: `<script src="` + testMount + `/assets/app.js"></script>`,
		},
		{
			name: "href rewritten",
			in:   `<link href='/style.css'>`,
			want: `<link href='` + testMount + `/style.css'>`,
		},
		{
			name: "action rewritten",
			in:   `<form action="/submit">`,
			want: `<form action="` + testMount + `/submit">`,
		},
		{
			name: "protocol-relative untouched",
			in:   `<script src="//cdn.example/app.js"></script>`,
			want: `<script src="//cdn.example/app.js"></script>`,
		},
		{
			name: "already under mount untouched",
			in:   `<a href="` + testMount + `/page">x</a>`,
			want: `<a href="` + testMount + `/page">x</a>`,
		},
		{
			name: "relative untouched",
			in:   `<img src="logo.png">`,
			want: `<img src="logo.png">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(RewriteHTML([]byte(tt.in), testMount, ""))
			if got != tt.want {
				t.Errorf("RewriteHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteHTML_Idempotent(t *testing.T) {
	doc := `<head></head><script src="/assets/app.js"></script><a href="/blog">b</a>`
	once := RewriteHTML([]byte(doc), testMount, "")
	twice := RewriteHTML(once, testMount, "")
	if string(once) != string(twice) {
		t.Errorf("rewrite not idempotent:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestRewriteHTML_ThemeSubstitution(t *testing.T) {
	doc := `<head></head>` +
		`<script>window.__MARIMO_MOUNT_CONFIG__ = { "config": {"display": {"theme": "light"}} };</script>` +
		`<marimo-user-config data-config="{&#34;display&#34;:{&#34;theme&#34;:&#34;light&#34;}}"></marimo-user-config>`

	got := string(RewriteHTML([]byte(doc), testMount, "dark"))

	if !strings.Contains(got, `"theme": "dark"`) {
		t.Errorf("mount config theme not replaced:\n%s", got)
	}
	if !strings.Contains(got, `{&#34;display&#34;:{&#34;theme&#34;:&#34;dark&#34;}}`) {
		t.Errorf("user config theme not replaced:\n%s", got)
	}
	if strings.Contains(got, "light") {
		t.Errorf("old theme value still present:\n%s", got)
	}
}

func TestRewriteHTML_NoThemeLeavesConfigUntouched(t *testing.T) {
	doc := `<script>window.__MARIMO_MOUNT_CONFIG__ = { "config": {"display": {"theme": "light"}} };</script>` +
		`<marimo-user-config data-config="{&#34;display&#34;:{&#34;theme&#34;:&#34;light&#34;}}"></marimo-user-config>`

	got := string(RewriteHTML([]byte(doc), testMount, ""))
	if !strings.Contains(got, `"theme": "light"`) {
		t.Errorf("mount config must be untouched without a theme override:\n%s", got)
	}
	if !strings.Contains(got, `{&#34;display&#34;:{&#34;theme&#34;:&#34;light&#34;}}`) {
		t.Errorf("user config must be untouched without a theme override:\n%s", got)
	}
}

func TestRewriteHTML_InvalidThemeIgnored(t *testing.T) {
	doc := `<script>window.__MARIMO_MOUNT_CONFIG__ = { "theme": "light" };</script>`
	got := string(RewriteHTML([]byte(doc), testMount, "solarized"))
	if !strings.Contains(got, `"theme": "light"`) {
		t.Errorf("unexpected substitution for invalid theme:\n%s", got)
	}
}

func TestRewriteHTML_MalformedUserConfigUntouched(t *testing.T) {
	attr := `not json at all {`
	doc := `<marimo-user-config data-config="` + attr + `"></marimo-user-config>`
	got := string(RewriteHTML([]byte(doc), testMount, "dark"))
	if !strings.Contains(got, attr) {
		t.Errorf("malformed attribute must stay byte-identical:\n%s", got)
	}
}

func TestRewriteHTML_UserConfigWithoutDisplayObject(t *testing.T) {
	doc := `<marimo-user-config data-config="{&#34;keymap&#34;:{}}"></marimo-user-config>`
	got := string(RewriteHTML([]byte(doc), testMount, "dark"))
	if !strings.Contains(got, "&#34;theme&#34;:&#34;dark&#34;") {
		t.Errorf("display.theme should be created when missing:\n%s", got)
	}
}

func TestRewriteHTML_InvalidUTF8DoesNotFail(t *testing.T) {
	doc := append([]byte(`<head></head><a href="/x">`), 0xff, 0xfe)
	got := RewriteHTML(doc, testMount, "")
	if !strings.Contains(string(got), testMount+"/x") {
		t.Errorf("rewrite should survive invalid UTF-8:\n%q", got)
	}
}
