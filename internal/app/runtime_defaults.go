package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/pkg/crypto"
)

const (
	jwtSecretBytes = 48
	fallbackLocale = "en-US"
)

// ApplyRuntimeDefaults fills the settings a deployment may leave blank and normalises
// the profile options. The returned map names the secrets that were generated so the
// caller can log them without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)
	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	locale, err := canonicalLocale(cfg.Profile.DefaultLocale)
	if err != nil {
		return nil, err
	}
	cfg.Profile.DefaultLocale = locale

	format, err := elementsFormat(cfg.Profile.ElementsFile, cfg.Profile.ElementsFormat)
	if err != nil {
		return nil, err
	}
	cfg.Profile.ElementsFormat = string(format)

	return generated, nil
}

func canonicalLocale(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallbackLocale, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("profile.default_locale %q: %w", value, err)
	}
	return tag.String(), nil
}

// elementsFormat resolves "auto" from the extension of the elements file, since
// content sniffing never picks YAML.
func elementsFormat(file, value string) (fields.Format, error) {
	format, err := fields.ParseFormat(value)
	if err != nil {
		return "", fmt.Errorf("profile.elements_format: %w", err)
	}
	if format != fields.FormatAuto || file == "" {
		return format, nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
	if byExt, err := fields.ParseFormat(ext); err == nil {
		return byExt, nil
	}
	return fields.FormatAuto, nil
}
