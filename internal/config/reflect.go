package config

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/imgajeed76/pgrid/internal/util"
)

// ConfigField represents metadata about a config field extracted from struct tags
type ConfigField struct {
	Key      string   // e.g., "grid.page_size"
	Default  string   // default value as string
	Desc     string   // description for help text
	Min      int      // minimum value for int fields (0 = no limit)
	Max      int      // maximum value for int fields (0 = no limit)
	Enum     []string // allowed values for string fields
	Env      string   // environment variable that overrides the file
	Secret   bool     // value is redacted when listed
	Type     string   // "string", "int", "bool" or "[]int"
	Category string   // e.g., "grid", "export", "storage"
}

var (
	fieldCache     []ConfigField
	fieldCacheOnce sync.Once
)

// fields extracts all config fields from Config using reflection
func fields() []ConfigField {
	fieldCacheOnce.Do(func() {
		var out []ConfigField
		extractFields(reflect.TypeOf(Config{}), &out)
		sort.Slice(out, func(i, j int) bool {
			return out[i].Key < out[j].Key
		})
		fieldCache = out
	})
	return fieldCache
}

// extractFields recursively extracts config fields from a struct
func extractFields(t reflect.Type, out *[]ConfigField) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		configKey := field.Tag.Get("config")
		if configKey == "" {
			if field.Type.Kind() == reflect.Struct {
				extractFields(field.Type, out)
			}
			continue
		}

		cf := ConfigField{
			Key:      configKey,
			Default:  field.Tag.Get("default"),
			Desc:     field.Tag.Get("desc"),
			Env:      field.Tag.Get("env"),
			Secret:   field.Tag.Get("secret") == "true",
			Category: strings.Split(configKey, ".")[0],
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			cf.Enum = strings.Split(enum, ",")
		}
		if minStr := field.Tag.Get("min"); minStr != "" {
			cf.Min, _ = strconv.Atoi(minStr)
		}
		if maxStr := field.Tag.Get("max"); maxStr != "" {
			cf.Max, _ = strconv.Atoi(maxStr)
		}

		switch field.Type.Kind() {
		case reflect.Int:
			cf.Type = "int"
		case reflect.String:
			cf.Type = "string"
		case reflect.Bool:
			cf.Type = "bool"
		case reflect.Slice:
			cf.Type = "[]int"
		}

		*out = append(*out, cf)
	}
}

// Fields returns metadata for every config key, sorted by key.
func Fields() []ConfigField {
	return slices.Clone(fields())
}

// Lookup finds a config field by key.
func Lookup(key string) (ConfigField, bool) {
	key = normalizeKey(key)
	for _, f := range fields() {
		if f.Key == key {
			return f, true
		}
	}
	return ConfigField{}, false
}

// ListKeys returns all available config keys
func ListKeys() []string {
	fs := fields()
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key
	}
	return keys
}

// normalizeKey handles key aliases
func normalizeKey(key string) string {
	aliases := map[string]string{
		"grid.pagesize":   "grid.page_size",
		"export.filename": "export.file_name",
		"export.xlsx":     "export.excel",
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if normalized, ok := aliases[key]; ok {
		return normalized
	}
	return key
}

// fieldByKey navigates to the struct field holding key.
func fieldByKey(cfg *Config, key string) (reflect.Value, bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, false
	}

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	// Find the nested struct by toml tag
	var nested reflect.Value
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == parts[0] {
			nested = v.Field(i)
			break
		}
	}
	if !nested.IsValid() || nested.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	nt := nested.Type()
	for i := 0; i < nt.NumField(); i++ {
		if nt.Field(i).Tag.Get("config") == key {
			return nested.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// getFieldValue gets a field value from a config struct using reflection
func getFieldValue(cfg *Config, key string) (string, bool) {
	fv, ok := fieldByKey(cfg, normalizeKey(key))
	if !ok {
		return "", false
	}

	switch fv.Kind() {
	case reflect.String:
		return fv.String(), true
	case reflect.Int:
		return strconv.FormatInt(fv.Int(), 10), true
	case reflect.Bool:
		return strconv.FormatBool(fv.Bool()), true
	case reflect.Slice:
		parts := make([]string, fv.Len())
		for i := range parts {
			parts[i] = strconv.FormatInt(fv.Index(i).Int(), 10)
		}
		return strings.Join(parts, ","), true
	}
	return "", false
}

// setFieldValue sets a field value on a config struct using reflection
func setFieldValue(cfg *Config, key, value string) error {
	key = normalizeKey(key)

	field, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", util.ErrUnknownConfigKey, key)
	}
	fv, ok := fieldByKey(cfg, key)
	if !ok {
		return fmt.Errorf("%w: %s", util.ErrUnknownConfigKey, key)
	}

	value = strings.TrimSpace(value)
	if err := field.validate(value); err != nil {
		return err
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Int:
		n, _ := strconv.Atoi(value)
		fv.SetInt(int64(n))
	case reflect.Bool:
		b, _ := strconv.ParseBool(value)
		fv.SetBool(b)
	case reflect.Slice:
		ints, _ := parseInts(value)
		fv.Set(reflect.ValueOf(ints))
	default:
		return fmt.Errorf("field not settable: %s", key)
	}
	return nil
}

// validate checks value, in its string form, against the field's tags.
func (f ConfigField) validate(value string) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w %s: %s", util.ErrInvalidConfigType, f.Key, fmt.Sprintf(format, args...))
	}

	switch f.Type {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid("%q is not an integer", value)
		}
		return f.checkRange(n, invalid)

	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return invalid("%q is not true or false", value)
		}

	case "[]int":
		ints, err := parseInts(value)
		if err != nil {
			return invalid("%q is not a comma-separated list of integers", value)
		}
		for _, n := range ints {
			if err := f.checkRange(n, invalid); err != nil {
				return err
			}
		}

	case "string":
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, value) {
			return invalid("%q is not one of %s", value, strings.Join(f.Enum, ", "))
		}
	}
	return nil
}

func (f ConfigField) checkRange(n int, invalid func(string, ...any) error) error {
	if f.Min != 0 && n < f.Min {
		return invalid("value %d is below minimum %d", n, f.Min)
	}
	if f.Max != 0 && n > f.Max {
		return invalid("value %d exceeds maximum %d", n, f.Max)
	}
	return nil
}

func parseInts(s string) ([]int, error) {
	s = strings.Trim(s, "[] ")
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// GetFieldsByCategory returns config fields grouped by category
func GetFieldsByCategory() map[string][]ConfigField {
	result := make(map[string][]ConfigField)
	for _, f := range fields() {
		result[f.Category] = append(result[f.Category], f)
	}
	return result
}

// GenerateHelpText generates help text for config options
func GenerateHelpText() string {
	var sb strings.Builder

	byCategory := GetFieldsByCategory()

	categories := []struct {
		key   string
		title string
	}{
		{"grid", "Grid"},
		{"export", "Export"},
		{"storage", "View state storage"},
		{"server", "HTTP server"},
		{"log", "Logging"},
	}

	for _, cat := range categories {
		fs, ok := byCategory[cat.key]
		if !ok || len(fs) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("  %s:\n", cat.title))
		for _, f := range fs {
			extra := ""
			if f.Default != "" {
				extra = fmt.Sprintf(" (default: %s)", f.Default)
			}
			if f.Env != "" {
				extra += fmt.Sprintf(" [$%s]", f.Env)
			}
			sb.WriteString(fmt.Sprintf("    %-26s %s%s\n", f.Key, f.Desc, extra))
		}
		sb.WriteString("\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
