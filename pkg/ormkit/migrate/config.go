package migrate

import (
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/alexogeny/ormkit/internal/platform/apperr"
)

// Config is the migration engine's INI-shaped configuration (spec.md
// §6: "Migration configuration file", section [alembic]).
type Config struct {
	// ScriptLocation is the migrations directory, resolved relative to
	// the config file's own directory when given as a relative path.
	ScriptLocation string
	// DatabaseURL is used by the CLI when no --url flag is given.
	DatabaseURL string
	// VersionTable overrides the default "alembic_version" name.
	VersionTable string
	// FileTemplate controls generated filenames; "%%" escapes a
	// literal "%".
	FileTemplate string
	// TruncateSlugLength bounds the slug portion of a generated
	// filename.
	TruncateSlugLength int
	Timezone           string

	// Unknown carries every key this loader does not recognize,
	// preserved so a round-trip write does not silently drop operator
	// configuration (§6: "tolerates and preserves unknown keys").
	Unknown map[string]string
}

const (
	defaultFileTemplate       = "%(year)d%(month).2d%(day).2d_%(hour).2d%(minute).2d_%(slug)s"
	defaultTruncateSlugLength = 40
)

// LoadConfig reads an INI-shaped migration config file from path. Only
// the "[alembic]" section is consulted; every other section is
// ignored. Grounded on gopkg.in/ini.v1, present in this pack's
// dependency closure (xaas-cloud-genai-toolbox/go.mod) as the
// ecosystem's standard INI parser.
func LoadConfig(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, apperr.Configuration("failed to read migration config file " + path + ": " + err.Error())
	}

	sec := f.Section("alembic")
	cfg := &Config{
		FileTemplate:       defaultFileTemplate,
		TruncateSlugLength: defaultTruncateSlugLength,
		Unknown:            map[string]string{},
	}

	known := map[string]*string{
		"script_location": &cfg.ScriptLocation,
		"sqlalchemy.url":  &cfg.DatabaseURL,
		"version_table":   &cfg.VersionTable,
		"file_template":   &cfg.FileTemplate,
		"timezone":        &cfg.Timezone,
	}

	for _, key := range sec.Keys() {
		name := key.Name()
		switch name {
		case "truncate_slug_length":
			n, convErr := strconv.Atoi(key.Value())
			if convErr != nil {
				return nil, apperr.Configuration("migration config: truncate_slug_length must be an integer: " + key.Value())
			}
			cfg.TruncateSlugLength = n
		default:
			if dst, ok := known[name]; ok {
				*dst = key.Value()
			} else {
				cfg.Unknown[name] = key.Value()
			}
		}
	}

	if cfg.ScriptLocation == "" {
		return nil, apperr.Configuration("migration config: script_location is required")
	}
	if !filepath.IsAbs(cfg.ScriptLocation) {
		cfg.ScriptLocation = filepath.Join(filepath.Dir(path), cfg.ScriptLocation)
	}
	if cfg.VersionTable == "" {
		cfg.VersionTable = "alembic_version"
	}

	return cfg, nil
}

// RenderFileName produces a migration filename from the config's
// FileTemplate, substituting the %(name)d/%(name)s-style placeholders
// alembic itself uses. Only the placeholders this engine's fields can
// fill are substituted; "%%" is unescaped to a literal "%" first, so
// "%%(year)d" and "%(year)d" render the same.
func (c *Config) RenderFileName(revision, slug string, year, month, day, hour, minute int) string {
	slug = truncateSlug(slug, c.TruncateSlugLength)
	repl := strings.NewReplacer(
		"%(year)d", strconv.Itoa(year),
		"%(month).2d", pad2(month),
		"%(day).2d", pad2(day),
		"%(hour).2d", pad2(hour),
		"%(minute).2d", pad2(minute),
		"%(slug)s", slug,
		"%(rev)s", revision,
	)
	return repl.Replace(strings.ReplaceAll(c.FileTemplate, "%%", "%"))
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func truncateSlug(slug string, max int) string {
	if max <= 0 || len(slug) <= max {
		return slug
	}
	return slug[:max]
}
