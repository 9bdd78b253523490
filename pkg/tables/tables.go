// Package tables holds the immutable lookup tables used to translate payload
// settings: active-keyword aliases, boolean replacement pairs and the
// vehicle-model to system-payload registry.
package tables

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

//go:embed resources/*.txt
var resources embed.FS

const (
	activeFile    = "resources/payload-active-replacement.txt"
	booleanFile   = "resources/payload-boolean-replacement.txt"
	modelsFile    = "resources/models-payloads.txt"
	defaultActive = "ACTIVE"
)

// BoolPair is the textual replacement of a boolean parameter value.
type BoolPair struct {
	False string
	True  string
}

// Sources points at resource files overriding the embedded defaults.
// An empty path selects the embedded table.
type Sources struct {
	ActiveReplacement  string
	BooleanReplacement string
	ModelPayloads      string
}

// Tables is safe for concurrent use; it is never mutated after construction.
type Tables struct {
	active   map[string]string
	booleans map[string]BoolPair
	models   map[string][]string
	prefixes []string // model keys, longest first
}

// New builds tables from already parsed maps.
func New(active map[string]string, booleans map[string]BoolPair, models map[string][]string) *Tables {
	t := &Tables{
		active:   active,
		booleans: booleans,
		models:   models,
	}
	if t.active == nil {
		t.active = map[string]string{}
	}
	if t.booleans == nil {
		t.booleans = map[string]BoolPair{}
	}
	if t.models == nil {
		t.models = map[string][]string{}
	}
	for k := range t.models {
		t.prefixes = append(t.prefixes, k)
	}
	sort.Slice(t.prefixes, func(i, j int) bool {
		if len(t.prefixes[i]) != len(t.prefixes[j]) {
			return len(t.prefixes[i]) > len(t.prefixes[j])
		}
		return t.prefixes[i] < t.prefixes[j]
	})
	return t
}

// Load reads the three tables. A table that fails to load is logged and left
// empty; loading never fails as a whole.
func Load(src Sources) *Tables {
	var active map[string]string
	if err := readTable(src.ActiveReplacement, activeFile, func(r io.Reader) (err error) {
		active, err = ParseActive(r)
		return err
	}); err != nil {
		slog.Warn("Active replacement table not loaded", "error", err)
	}

	var booleans map[string]BoolPair
	if err := readTable(src.BooleanReplacement, booleanFile, func(r io.Reader) (err error) {
		booleans, err = ParseBooleans(r)
		return err
	}); err != nil {
		slog.Warn("Boolean replacement table not loaded", "error", err)
	}

	var models map[string][]string
	if err := readTable(src.ModelPayloads, modelsFile, func(r io.Reader) (err error) {
		models, err = ParseModels(r)
		return err
	}); err != nil {
		slog.Warn("Model payloads table not loaded", "error", err)
	}

	t := New(active, booleans, models)
	slog.Debug("Lookup tables loaded",
		"active", len(t.active),
		"booleans", len(t.booleans),
		"models", len(t.models))
	return t
}

func readTable(path, embedded string, parse func(io.Reader) error) error {
	var rc io.ReadCloser
	var err error
	if path == "" {
		rc, err = resources.Open(embedded)
	} else {
		rc, err = os.Open(path)
	}
	if err != nil {
		return fmt.Errorf("failed to open table: %w", err)
	}
	defer rc.Close()
	return parse(rc)
}

// eachRecord calls fn with the whitespace separated fields of every
// non-comment line holding at least minFields fields.
func eachRecord(r io.Reader, minFields int, fn func(fields []string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < minFields {
			continue
		}
		fn(fields)
	}
	return scanner.Err()
}

// ParseActive parses "<payload> <keyword>" lines.
func ParseActive(r io.Reader) (map[string]string, error) {
	ret := make(map[string]string)
	err := eachRecord(r, 2, func(f []string) {
		ret[f[0]] = f[1]
	})
	return ret, err
}

// ParseBooleans parses "<PARAM> <false-text> <true-text>" lines.
func ParseBooleans(r io.Reader) (map[string]BoolPair, error) {
	ret := make(map[string]BoolPair)
	err := eachRecord(r, 3, func(f []string) {
		ret[f[0]] = BoolPair{False: f[1], True: f[2]}
	})
	return ret, err
}

// ParseModels parses "<model> <payload>..." lines.
func ParseModels(r io.Reader) (map[string][]string, error) {
	ret := make(map[string][]string)
	err := eachRecord(r, 2, func(f []string) {
		ret[f[0]] = append([]string(nil), f[1:]...)
	})
	return ret, err
}

// ActiveKeyword returns the keyword replacing "Active" for the payload.
func (t *Tables) ActiveKeyword(payload string) string {
	if kw, ok := t.active[payload]; ok {
		return kw
	}
	return defaultActive
}

// Boolean returns the replacement pair registered for a canonical parameter name.
func (t *Tables) Boolean(name string) (BoolPair, bool) {
	p, ok := t.booleans[name]
	return p, ok
}

// IsSystemPayload reports whether payload is permanently installed on the
// vehicle. The vehicle is matched against the longest registered model
// prefix; unregistered vehicles have no system payloads.
func (t *Tables) IsSystemPayload(vehicle, payload string) bool {
	payload = strings.TrimSpace(payload)
	for _, model := range t.prefixes {
		if !strings.HasPrefix(vehicle, model) {
			continue
		}
		for _, p := range t.models[model] {
			if p == payload {
				return true
			}
		}
		return false
	}
	return false
}
