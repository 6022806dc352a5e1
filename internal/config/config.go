package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/switchlight/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every `env:` tag when reading the environment.
const EnvPrefix = "SWITCHLIGHT_"

// LoadConfig fills opts from the config file and then the environment.
// Flags explicitly set on cmd win over both and are left untouched.
// A missing config file is not an error.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	pinned := changedFlags(cmd)

	var doc map[string]any
	if path := configPath(v); path != "" {
		var err error
		if doc, err = readTOML(path); err != nil {
			return err
		}
	}

	eachField(v, func(field reflect.Value, sf reflect.StructField) {
		if pinned[fieldNameToFlag(sf.Name)] {
			return
		}
		if key := sf.Tag.Get("toml"); key != "" && doc != nil {
			if value := getNestedValue(doc, key); value != nil {
				assignTOML(field, value)
			}
		}
		if key := sf.Tag.Get("env"); key != "" {
			if value := os.Getenv(EnvPrefix + key); value != "" {
				assignString(field, value)
			}
		}
	})
	return nil
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	pinned := make(map[string]bool)
	if cmd == nil {
		return pinned
	}
	mark := func(f *pflag.Flag) {
		if f.Changed {
			pinned[f.Name] = true
		}
	}
	cmd.Flags().VisitAll(mark)
	cmd.PersistentFlags().VisitAll(mark)
	return pinned
}

func configPath(v reflect.Value) string {
	field := v.FieldByName("Config")
	if !field.IsValid() || field.Kind() != reflect.String {
		return ""
	}
	return field.String()
}

func readTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}
	return doc, nil
}

func eachField(v reflect.Value, fn func(reflect.Value, reflect.StructField)) {
	t := v.Type()
	for i := range t.NumField() {
		if field := v.Field(i); field.CanSet() {
			fn(field, t.Field(i))
		}
	}
}

// fieldNameToFlag converts a struct field name to the flag name humacli
// derives for it, e.g. "BrokerCAFile" -> "broker-ca-file".
func fieldNameToFlag(fieldName string) string {
	runes := []rune(fieldName)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// getNestedValue looks up a dotted path such as "broker.url" in a decoded
// TOML document. It returns nil when any segment is missing.
func getNestedValue(data map[string]any, path string) any {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return data[head]
	}
	table, ok := data[head].(map[string]any)
	if !ok {
		return nil
	}
	return getNestedValue(table, rest)
}

// assignTOML stores a decoded TOML value. Values of the wrong kind are ignored.
func assignTOML(field reflect.Value, value any) {
	switch field.Kind() {
	case reflect.String:
		switch s := value.(type) {
		case string:
			field.SetString(s)
		case int64:
			field.SetString(strconv.FormatInt(s, 10))
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case float64:
			field.SetInt(int64(n))
		}
	case reflect.Slice:
		items, ok := value.([]any)
		if !ok || field.Type().Elem().Kind() != reflect.String {
			return
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, isString := item.(string); isString {
				out = append(out, s)
			}
		}
		field.Set(reflect.ValueOf(out))
	}
}

// assignString parses an environment value into the field kind.
// Slices are comma separated.
func assignString(field reflect.Value, value string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if n, err := strconv.Atoi(value); err == nil {
			field.SetInt(int64(n))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	}
}

func defaultLogging() logging.Config {
	return logging.Config{Level: "info", Format: "text", Modules: make(map[string]string)}
}

// ReadLoggingConfig reads the [logging] table of a TOML config file.
// Keys other than level and format are module overrides.
func ReadLoggingConfig(path string) (logging.Config, error) {
	cfg := defaultLogging()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var doc struct {
		Logging map[string]any `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}

	for key, raw := range doc.Logging {
		level, ok := raw.(string)
		if !ok {
			continue
		}
		switch key {
		case "level":
			cfg.Level = level
		case "format":
			cfg.Format = level
		default:
			cfg.Modules[key] = level
		}
	}
	return cfg, nil
}

// LoadLoggingConfig is ReadLoggingConfig that returns defaults on any error.
func LoadLoggingConfig(path string) logging.Config {
	cfg, err := ReadLoggingConfig(path)
	if err != nil {
		return defaultLogging()
	}
	return cfg
}
