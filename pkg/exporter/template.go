package exporter

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
)

//go:embed template.mis
var defaultTemplate string

// Template placeholders, written as ${Name}.
const (
	KeyGenDate                  = "GenDate"
	KeyLowBatteryState          = "LowBatteryState"
	KeyEmergencyRendezvousPoint = "EmergencyRendezvousPoint"
	KeyEmergencyEnd             = "EmergencyEnd"
	KeyAutonomyArea             = "AutonomyArea"
	KeyExplorationArea          = "ExplorationArea"
	KeySafeAltitude             = "SafeAltitude"
	KeySystemPayload            = "SystemPayload"
	KeySwapPayload              = "SwapPayload"
	KeyBody                     = "Body"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// DefaultTemplate returns the built-in document template.
func DefaultTemplate() string {
	return defaultTemplate
}

// LoadTemplate reads a template file. An empty path selects the built-in one.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// Substitute replaces every ${Name} placeholder in tpl by its value. Names
// without a value are replaced by the empty string. Values are inserted
// literally and never rescanned.
func Substitute(tpl string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		return values[m[2:len(m)-1]]
	})
}

// Placeholders lists the placeholder names used in tpl, in order of first
// appearance.
func Placeholders(tpl string) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(tpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ret = append(ret, m[1])
		}
	}
	return ret
}
