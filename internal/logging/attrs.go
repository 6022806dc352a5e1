package logging

import (
	"log/slog"
	"slices"
	"strings"
)

// Redacted replaces the value of attributes whose key names a secret.
const Redacted = "[REDACTED]"

var secretKeys = []string{"password", "passphrase", "psk", "secret", "token", "key_pem"}

// isSecret reports whether key names credential material, e.g. the Wi-Fi
// passphrase or an inline client key.
func isSecret(key string) bool {
	key = strings.ToLower(key)
	return slices.ContainsFunc(secretKeys, func(s string) bool {
		return strings.Contains(key, s)
	})
}

// scope is the attribute and group context accumulated by WithAttrs and
// WithGroup. Attributes keep the groups that were open when they were added.
type scope struct {
	attrs  []scopedAttr
	groups []string
}

type scopedAttr struct {
	groups []string
	attr   slog.Attr
}

func (s scope) withAttrs(attrs []slog.Attr) scope {
	out := slices.Clip(s.attrs)
	for _, a := range attrs {
		out = append(out, scopedAttr{groups: s.groups, attr: a})
	}
	return scope{attrs: out, groups: s.groups}
}

func (s scope) withGroup(name string) scope {
	return scope{attrs: s.attrs, groups: append(slices.Clip(s.groups), name)}
}

// each visits the scope attributes and then the record attributes with
// groups flattened into path. Secret values are replaced by Redacted.
func (s scope) each(r slog.Record, fn func(path []string, v slog.Value)) {
	for _, sa := range s.attrs {
		walkAttr(sa.groups, sa.attr, fn)
	}
	r.Attrs(func(a slog.Attr) bool {
		walkAttr(s.groups, a, fn)
		return true
	})
}

func walkAttr(groups []string, a slog.Attr, fn func(path []string, v slog.Value)) {
	v := a.Value.Resolve()
	if a.Key == "" && v.Kind() != slog.KindGroup {
		return
	}
	if v.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(slices.Clip(groups), a.Key)
		}
		for _, ga := range v.Group() {
			walkAttr(inner, ga, fn)
		}
		return
	}
	if isSecret(a.Key) {
		v = slog.StringValue(Redacted)
	}
	fn(append(slices.Clip(groups), a.Key), v)
}
