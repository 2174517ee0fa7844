package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// SetValue sets a configuration value by key.
// Supported keys:
//   - base_host, download_uri, catalog_uri, staging_dir, user_agent: string
//   - transport: string - http or command
//   - checksum: string - native or command
//   - offline, validate, validate_device: bool
//   - http_timeout, lock_timeout: duration (e.g. 30s)
//   - max_concurrent: int
//   - log_level: string - panic, fatal, error, warn, info, debug, trace
//   - post_download_hook: string - path to a .tengo script
func (c *Config) SetValue(key, value string) error {
	s := &c.Settings
	switch key {
	case "base_host":
		s.BaseHost = value
	case "download_uri":
		s.DownloadURI = value
	case "catalog_uri":
		s.CatalogURI = value
	case "staging_dir":
		s.StagingDir = value
	case "user_agent":
		s.UserAgent = value
	case "transport":
		s.Transport = value
	case "checksum":
		s.Checksum = value
	case "log_level":
		s.LogLevel = value
	case "post_download_hook":
		s.Hooks.PostDownload = value
	case "offline", "validate", "validate_device":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		switch key {
		case "offline":
			s.Offline = b
		case "validate":
			s.Validate = boolPtr(b)
		default:
			s.ValidateDevice = boolPtr(b)
		}
	case "http_timeout", "lock_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		if key == "http_timeout" {
			s.HTTPTimeout = d
		} else {
			s.LockTimeout = d
		}
	case "max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		s.MaxConcurrent = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns the value of key as a string.
func (c *Config) GetValue(key string) (string, error) {
	if key == "post_download_hook" {
		return c.Settings.Hooks.PostDownload, nil
	}
	v, ok := c.ToMap()[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return v, nil
}

// ToMap flattens the settings into yaml key and string value pairs.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "staging_dir,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]
		result[yamlKey] = formatValue(settingsValue.Field(i))
	}

	return result
}

func formatValue(v reflect.Value) string {
	if d, ok := v.Interface().(time.Duration); ok {
		return d.String()
	}
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Pointer:
		if v.IsNil() {
			return ""
		}
		return formatValue(v.Elem())
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, ",")
	case reflect.String:
		return v.String()
	case reflect.Struct:
		return fmt.Sprintf("%+v", v.Interface())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
