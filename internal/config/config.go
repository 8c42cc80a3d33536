// Package config loads assethook settings from an INI file.
//
//	[hook]
//	db      = .assethook.db
//	scripts =                 ; empty uses the embedded scripts
//	sniff   = true
//
//	[bootstrap]
//	search_root = Assets
//	marker      = Live2D
//	gating      = directory   ; or file
//
//	[projects]
//	dir            = .
//	markers        = PropertyGroup, $(Configuration)|$(Platform)
//	flag           = AllowUnsafeBlocks
//	value          = true
//	pattern        = *.csproj
//	exclude_suffix = Editor.csproj
package config

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/jward/assethook/internal/bootstrap"
	"github.com/jward/assethook/internal/descriptor"
)

// DefaultFile is the config file looked for in the working directory.
const DefaultFile = "assethook.ini"

// Config holds every setting the CLI and Hook need.
type Config struct {
	DBPath     string
	ScriptsDir string
	Sniff      bool

	SearchRoot string
	Marker     string
	Gating     bootstrap.Gating

	ProjectDir string
	Rule       descriptor.Rule
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DBPath:     ".assethook.db",
		Sniff:      true,
		SearchRoot: "Assets",
		Marker:     bootstrap.DefaultMarker,
		Gating:     bootstrap.GateDirectory,
		ProjectDir: ".",
		Rule:       descriptor.DefaultRule(),
	}
}

// Load reads path over the defaults. A missing file is an error.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return fromFile(f)
}

// LoadIfExists is Load, except that a missing file yields the defaults.
func LoadIfExists(path string) (*Config, error) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (*Config, error) {
	c := Default()

	hook := f.Section("hook")
	c.DBPath = hook.Key("db").MustString(c.DBPath)
	c.ScriptsDir = hook.Key("scripts").MustString(c.ScriptsDir)
	c.Sniff = hook.Key("sniff").MustBool(c.Sniff)

	boot := f.Section("bootstrap")
	c.SearchRoot = boot.Key("search_root").MustString(c.SearchRoot)
	c.Marker = boot.Key("marker").MustString(c.Marker)
	gating, err := bootstrap.ParseGating(boot.Key("gating").String())
	if err != nil {
		return nil, fmt.Errorf("config [bootstrap] gating: %w", err)
	}
	c.Gating = gating

	proj := f.Section("projects")
	c.ProjectDir = proj.Key("dir").MustString(c.ProjectDir)
	if proj.HasKey("markers") {
		c.Rule.Markers = proj.Key("markers").Strings(",")
	}
	c.Rule.Flag = proj.Key("flag").MustString(c.Rule.Flag)
	c.Rule.Value = proj.Key("value").MustString(c.Rule.Value)
	c.Rule.Pattern = proj.Key("pattern").MustString(c.Rule.Pattern)
	if proj.HasKey("exclude_suffix") {
		c.Rule.ExcludeSuffix = proj.Key("exclude_suffix").String()
	}
	if err := c.Rule.Validate(); err != nil {
		return nil, fmt.Errorf("config [projects]: %w", err)
	}
	return c, nil
}

// WriteTo writes c as an INI document that Load reads back unchanged.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	f := ini.Empty()

	hook := f.Section("hook")
	hook.Key("db").SetValue(c.DBPath)
	hook.Key("scripts").SetValue(c.ScriptsDir)
	hook.Key("sniff").SetValue(fmt.Sprint(c.Sniff))

	boot := f.Section("bootstrap")
	boot.Key("search_root").SetValue(c.SearchRoot)
	boot.Key("marker").SetValue(c.Marker)
	boot.Key("gating").SetValue(c.Gating.String())

	proj := f.Section("projects")
	proj.Key("dir").SetValue(c.ProjectDir)
	proj.Key("markers").SetValue(strings.Join(c.Rule.Markers, ", "))
	proj.Key("flag").SetValue(c.Rule.Flag)
	proj.Key("value").SetValue(c.Rule.Value)
	proj.Key("pattern").SetValue(c.Rule.Pattern)
	proj.Key("exclude_suffix").SetValue(c.Rule.ExcludeSuffix)

	return f.WriteTo(w)
}
