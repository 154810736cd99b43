package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/key"
	"github.com/themetester/themetester/style"
)

// Field is one registered configuration key with its default and description.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored multi-line description of the field.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Themetester + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.TypeName(),
	})
}

// TypeName names the type of the default value.
func (f *Field) TypeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Parse converts raw command-line values to the type of the field's default.
func (f *Field) Parse(values []string) (any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no value given for %s", f.Key)
	}

	switch f.Value.(type) {
	case string:
		return values[0], nil
	case int:
		parsed, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", values[0])
		}
		return parsed, nil
	case bool:
		parsed, err := strconv.ParseBool(values[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", values[0])
		}
		return parsed, nil
	case []string:
		return values, nil
	default:
		return nil, fmt.Errorf("unsupported type for %s", f.Key)
	}
}

// Default holds every registered configuration field by key.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PreviewSetting, constant.DefaultSetting, "Setting that selects the active color theme.\nIt is captured before a preview and restored on undo")
	register(key.PreviewDefaultLocation, constant.DefaultLocation, "Theme suggested when preview is run without arguments")
	register(key.PreviewShowSuggestions, true, "Suggest previously previewed themes when completing a location")
	register(key.HostWeb, false, "Treat the host as a browser-based editor.\nPackages that only ship a desktop entry point cannot be previewed there")
	register(key.HostRemote, "", "Name of the remote the host is connected to, if any.\nA connected remote lifts the browser restriction")
	register(key.MarketplaceGalleryURL, "https://marketplace.visualstudio.com/_apis/public/gallery/extensionquery", "Extension gallery query endpoint")
	register(key.MarketplaceClientID, "vscode-marketplace-extension-browser", "Client id sent to the extension gallery")
	register(key.BackingUnpkgTemplate, "https://{publisher}.vscode-unpkg.net/{publisher}/{name}/{version}/extension", "Location of unpacked package files.\nPlaceholders: {publisher}, {name}, {version}. Use s3://bucket/prefix/... for an S3 mirror")
	register(key.BackingS3Region, "", "Region of the S3 mirror.\nEmpty uses the AWS default chain")
	register(key.BackingS3Endpoint, "", "Custom S3 endpoint for MinIO-like mirrors")
	register(key.PlaygroundInjectHeader, true, "Prepend a header naming the previewed theme to the sample readme")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliWrap, 80, "Wrap width used by cat when stdout is not a terminal")
}

// Closest returns the registered key nearest to k by edit distance.
func Closest(k string) string {
	return lo.MinBy(lo.Keys(Default), func(a, b string) bool {
		return levenshtein.Distance(k, a) < levenshtein.Distance(k, b)
	})
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
