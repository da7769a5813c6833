package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pstuifzand/tui-columns/internal/columns"
	"github.com/pstuifzand/tui-columns/internal/elastic"
	"github.com/pstuifzand/tui-columns/internal/numeric"
	"github.com/pstuifzand/tui-columns/internal/rect"
	"github.com/pstuifzand/tui-columns/internal/search"
	"github.com/pstuifzand/tui-columns/internal/timestamps"
)

// Config holds application configuration
type Config struct {
	Theme      string            `toml:"theme"`
	Elastic    ElasticConfig     `toml:"elastic"`
	Profiles   []ProfileConfig   `toml:"profiles"`
	Extensions map[string]string `toml:"extensions"`
	Numeric    NumericConfig     `toml:"numeric"`
	Selection  SelectionConfig   `toml:"selection"`
	Search     SearchConfig      `toml:"search"`
	Sort       SortConfig        `toml:"sort"`
	Timestamps TimestampsConfig  `toml:"timestamps"`
	Calculate  CalculateConfig   `toml:"calculate"`
	Accumulate AccumulateConfig  `toml:"accumulate"`
	Settings   map[string]string `toml:"settings"`

	// Session settings (not persisted to TOML, overrides persisted settings)
	sessionSettings map[string]string
}

// ElasticConfig is the [elastic] section.
type ElasticConfig struct {
	Enabled          bool `toml:"enabled"`
	DisableOverSize  int  `toml:"disable_over_size"`
	DisableOverLines int  `toml:"disable_over_lines"`
}

// ProfileConfig is one [[profiles]] entry.
type ProfileConfig struct {
	Name                       string `toml:"name"`
	LeadingTabsIndent          bool   `toml:"leading_tabs_indent"`
	LineUpAll                  bool   `toml:"line_up_all"`
	TreatEOLAsTab              bool   `toml:"treat_eol_as_tab"`
	OverrideTabSize            bool   `toml:"override_tab_size"`
	MinimumOrLeadingTabSize    int    `toml:"minimum_or_leading_tab_size"`
	MinimumSpaceBetweenColumns int    `toml:"minimum_space_between_columns"`
	Monospace                  string `toml:"monospace"`
}

// NumericConfig is the [numeric] section.
type NumericConfig struct {
	DecimalComma    bool `toml:"decimal_comma"`
	TimeScalarUnit  int  `toml:"time_scalar_unit"`
	TimePartialRule int  `toml:"time_partial_rule"`
}

// SelectionConfig is the [selection] section.
type SelectionConfig struct {
	ExtendSingleLine bool   `toml:"extend_single_line"`
	ExtendFullLines  bool   `toml:"extend_full_lines"`
	ExtendZeroWidth  bool   `toml:"extend_zero_width"`
	StreamPolicy     string `toml:"stream_policy"`
}

// SearchConfig is the [search] section.
type SearchConfig struct {
	IndicatorColor string `toml:"indicator_color"`
	IndicatorAlpha int    `toml:"indicator_alpha"`
	AutoClear      bool   `toml:"auto_clear"`
	MatchCase      bool   `toml:"match_case"`
	WholeWord      bool   `toml:"whole_word"`
}

// SortConfig is the [sort] section.
type SortConfig struct {
	Locale           string `toml:"locale"`
	CaseSensitive    bool   `toml:"case_sensitive"`
	IgnoreDiacritics bool   `toml:"ignore_diacritics"`
	IgnoreSymbols    bool   `toml:"ignore_symbols"`
	DigitsAsNumbers  bool   `toml:"digits_as_numbers"`
}

// TimestampsConfig is the [timestamps] section.
type TimestampsConfig struct {
	DateFormat   string            `toml:"date_format"`
	DatePriority string            `toml:"date_priority"`
	CounterType  string            `toml:"counter_type"`
	Patterns     map[string]string `toml:"patterns"`
}

// CalculateConfig is the [calculate] section.
type CalculateConfig struct {
	DecimalPlaces int    `toml:"decimal_places"`
	DecimalsFixed bool   `toml:"decimals_fixed"`
	Thousands     string `toml:"thousands"`
	Aligned       bool   `toml:"aligned"`
	Tabbed        bool   `toml:"tabbed"`
}

// AccumulateConfig is the [accumulate] section.
type AccumulateConfig struct {
	Thousands string `toml:"thousands"`
	Write     bool   `toml:"write"`
}

// Load loads the config file from the standard location
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return defaultConfig(), nil // Return default if can't find config path
	}

	return LoadFromFile(configPath)
}

// LoadFromFile loads config from a specific file
func LoadFromFile(filePath string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decoding over the defaults keeps every key the file leaves out.
	config := defaultConfig()
	err = toml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Theme == "" {
		config.Theme = "tokyo-night"
	}
	if config.Settings == nil {
		config.Settings = make(map[string]string)
	}
	config.sessionSettings = make(map[string]string)

	return config, nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	sel := elastic.DefaultSelector()
	calc := columns.DefaultCalcSpec()
	return &Config{
		Theme: "tokyo-night",
		Elastic: ElasticConfig{
			Enabled:          sel.Enabled,
			DisableOverSize:  sel.DisableOverSize,
			DisableOverLines: sel.DisableOverLines,
		},
		Extensions: sel.Extensions,
		Numeric: NumericConfig{
			TimeScalarUnit:  numeric.Seconds,
			TimePartialRule: 3,
		},
		Selection: SelectionConfig{
			ExtendSingleLine: true,
			ExtendFullLines:  true,
			ExtendZeroWidth:  true,
			StreamPolicy:     rect.StreamNone.String(),
		},
		Search: SearchConfig{
			IndicatorColor: "#e0af68",
			IndicatorAlpha: 96,
			AutoClear:      true,
		},
		Timestamps: TimestampsConfig{
			DatePriority: timestamps.YMD.String(),
			CounterType:  timestamps.Unix.String(),
		},
		Calculate: CalculateConfig{
			DecimalPlaces: calc.DecimalPlaces,
			Aligned:       calc.Aligned,
			Tabbed:        calc.Tabbed,
		},
		Accumulate:      AccumulateConfig{Write: true},
		Settings:        make(map[string]string),
		sessionSettings: make(map[string]string),
	}
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(home, ".config", "tui-columns")
	return configDir, nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	return os.MkdirAll(configDir, 0755)
}

// Keys lists the settings that override a typed configuration value. Any
// other key is stored as a free setting.
var Keys = []string{
	"elastic.enabled",
	"numeric.decimal_comma",
	"numeric.time_scalar_unit",
	"numeric.time_partial_rule",
	"selection.extend_single_line",
	"selection.extend_full_lines",
	"selection.extend_zero_width",
	"selection.stream_policy",
	"search.match_case",
	"search.whole_word",
	"search.auto_clear",
	"sort.locale",
	"sort.case_sensitive",
	"sort.ignore_diacritics",
	"sort.ignore_symbols",
	"sort.digits_as_numbers",
	"timestamps.date_format",
	"timestamps.date_priority",
	"timestamps.counter_type",
	"timestamps.pattern",
	"calculate.decimal_places",
	"calculate.decimals_fixed",
	"calculate.thousands",
	"accumulate.thousands",
	"accumulate.write",
}

// Set sets a session configuration value. Values for the typed keys are
// checked before they are stored.
func (c *Config) Set(key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	if c.sessionSettings == nil {
		c.sessionSettings = make(map[string]string)
	}
	c.sessionSettings[key] = value
	return nil
}

func validate(key, value string) error {
	var err error
	switch key {
	case "numeric.time_scalar_unit", "numeric.time_partial_rule", "calculate.decimal_places":
		_, err = strconv.Atoi(value)
	case "selection.stream_policy":
		_, err = rect.ParseStreamPolicy(value)
	case "timestamps.date_priority":
		_, err = timestamps.ParseDatePriority(value)
	case "timestamps.counter_type":
		_, err = timestamps.ParseCounter(value)
	case "timestamps.pattern", "timestamps.date_format", "sort.locale",
		"calculate.thousands", "accumulate.thousands":
	default:
		if slices.Contains(Keys, key) {
			_, err = strconv.ParseBool(value)
		}
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return nil
}

// Get retrieves a configuration value, checking session settings first (which override persisted settings)
// Returns empty string if not found in either source
func (c *Config) Get(key string) string {
	if c.sessionSettings != nil {
		if val, ok := c.sessionSettings[key]; ok {
			return val
		}
	}

	if c.Settings != nil {
		if val, ok := c.Settings[key]; ok {
			return val
		}
	}

	return ""
}

// GetAll returns all configuration values (both persisted and session)
// Session settings override persisted settings with the same key
func (c *Config) GetAll() map[string]string {
	result := make(map[string]string)

	for k, v := range c.Settings {
		result[k] = v
	}
	for k, v := range c.sessionSettings {
		result[k] = v
	}

	return result
}

func (c *Config) boolean(key string, def bool) bool {
	if v, err := strconv.ParseBool(c.Get(key)); err == nil {
		return v
	}
	return def
}

func (c *Config) integer(key string, def int) int {
	if v, err := strconv.Atoi(c.Get(key)); err == nil {
		return v
	}
	return def
}

func (c *Config) text(key, def string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return def
}

// Selector returns the elastic profile selector with the configured
// profiles and extension map.
func (c *Config) Selector() elastic.Selector {
	sel := elastic.DefaultSelector()
	sel.Enabled = c.boolean("elastic.enabled", c.Elastic.Enabled)
	sel.DisableOverSize = c.Elastic.DisableOverSize
	sel.DisableOverLines = c.Elastic.DisableOverLines
	if len(c.Extensions) > 0 {
		sel.Extensions = c.Extensions
	}
	if len(c.Profiles) > 0 {
		sel.Profiles = make(map[string]elastic.Profile, len(c.Profiles))
		for _, p := range c.Profiles {
			sel.Profiles[p.Name] = elastic.Profile{
				Name:                       p.Name,
				LeadingTabsIndent:          p.LeadingTabsIndent,
				LineUpAll:                  p.LineUpAll,
				TreatEOLAsTab:              p.TreatEOLAsTab,
				OverrideTabSize:            p.OverrideTabSize,
				MinimumOrLeadingTabSize:    p.MinimumOrLeadingTabSize,
				MinimumSpaceBetweenColumns: p.MinimumSpaceBetweenColumns,
				Monospace:                  elastic.ParseMonospace(p.Monospace),
			}
		}
	}
	return sel
}

// NumericSettings returns how numbers and times are read.
func (c *Config) NumericSettings() numeric.Settings {
	st := numeric.DefaultSettings()
	st.DecimalComma = c.boolean("numeric.decimal_comma", c.Numeric.DecimalComma)
	st.TimeScalarUnit = c.integer("numeric.time_scalar_unit", c.Numeric.TimeScalarUnit)
	st.TimePartialRule = c.integer("numeric.time_partial_rule", c.Numeric.TimePartialRule)
	return st
}

// Policy returns how selections are turned into rectangles.
func (c *Config) Policy() rect.Policy {
	stream, err := rect.ParseStreamPolicy(c.text("selection.stream_policy", c.Selection.StreamPolicy))
	if err != nil {
		stream = rect.StreamNone
	}
	return rect.Policy{
		ExtendSingleLine: c.boolean("selection.extend_single_line", c.Selection.ExtendSingleLine),
		ExtendFullLines:  c.boolean("selection.extend_full_lines", c.Selection.ExtendFullLines),
		ExtendZeroWidth:  c.boolean("selection.extend_zero_width", c.Selection.ExtendZeroWidth),
		Stream:           stream,
	}
}

// SearchOptions returns the default search options for mode.
func (c *Config) SearchOptions(mode search.Mode) search.Options {
	return search.Options{
		Mode:      mode,
		MatchCase: c.boolean("search.match_case", c.Search.MatchCase),
		WholeWord: c.boolean("search.whole_word", c.Search.WholeWord),
		AutoClear: c.boolean("search.auto_clear", c.Search.AutoClear),
	}
}

// LocaleOptions returns the locale sort options.
func (c *Config) LocaleOptions() columns.LocaleOptions {
	return columns.LocaleOptions{
		Tag:              c.text("sort.locale", c.Sort.Locale),
		CaseSensitive:    c.boolean("sort.case_sensitive", c.Sort.CaseSensitive),
		IgnoreDiacritics: c.boolean("sort.ignore_diacritics", c.Sort.IgnoreDiacritics),
		IgnoreSymbols:    c.boolean("sort.ignore_symbols", c.Sort.IgnoreSymbols),
		DigitsAsNumbers:  c.boolean("sort.digits_as_numbers", c.Sort.DigitsAsNumbers),
	}
}

// TimestampSpec returns the conversion settings. A pattern setting may
// name an entry of [timestamps.patterns] or be a pattern itself.
func (c *Config) TimestampSpec() timestamps.Spec {
	spec := timestamps.DefaultSpec()
	if p, err := timestamps.ParseDatePriority(c.text("timestamps.date_priority", c.Timestamps.DatePriority)); err == nil {
		spec.Priority = p
	}
	if counter, err := timestamps.ParseCounter(c.text("timestamps.counter_type", c.Timestamps.CounterType)); err == nil {
		spec.From, spec.To = counter, counter
	}
	spec.Picture = c.text("timestamps.date_format", c.Timestamps.DateFormat)
	if pattern := c.Get("timestamps.pattern"); pattern != "" {
		if named, ok := c.Timestamps.Patterns[pattern]; ok {
			pattern = named
		}
		spec.Pattern = pattern
	}
	return spec
}

// CalcSpec returns the calculate defaults for formula.
func (c *Config) CalcSpec(formula string) columns.CalcSpec {
	spec := columns.DefaultCalcSpec()
	spec.Formula = formula
	spec.DecimalPlaces = c.integer("calculate.decimal_places", c.Calculate.DecimalPlaces)
	spec.DecimalsFixed = c.boolean("calculate.decimals_fixed", c.Calculate.DecimalsFixed)
	spec.Thousands = c.text("calculate.thousands", c.Calculate.Thousands)
	spec.Aligned = c.Calculate.Aligned
	spec.Tabbed = c.Calculate.Tabbed
	return spec
}

// AccumulateSpec returns the add and average defaults.
func (c *Config) AccumulateSpec(mean bool) columns.AccumulateSpec {
	return columns.AccumulateSpec{
		Mean:      mean,
		Thousands: c.text("accumulate.thousands", c.Accumulate.Thousands),
		Write:     c.boolean("accumulate.write", c.Accumulate.Write),
	}
}

// Describe returns key=value lines for every setting in effect, sorted.
func (c *Config) Describe() string {
	all := c.GetAll()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, all[k])
	}
	return b.String()
}

// Save persists the configuration to the TOML file
// Note: This only persists the Settings map, not session settings
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
