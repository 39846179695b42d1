package catalog

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OptionType is the kind of value an AI option accepts.
type OptionType string

const (
	OptionBool    OptionType = "bool"
	OptionNumber  OptionType = "number"
	OptionString  OptionType = "string"
	OptionList    OptionType = "list"
	OptionSection OptionType = "section"
)

// Option is one entry of an AI's options schema.
type Option struct {
	Key         string       `yaml:"key" json:"key"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"desc,omitempty" json:"description,omitempty"`
	Type        OptionType   `yaml:"type" json:"type"`
	Section     string       `yaml:"section,omitempty" json:"section,omitempty"`
	Default     string       `yaml:"default,omitempty" json:"default,omitempty"`
	Min         *float64     `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64     `yaml:"max,omitempty" json:"max,omitempty"`
	Step        *float64     `yaml:"step,omitempty" json:"step,omitempty"`
	MaxLen      int          `yaml:"maxlen,omitempty" json:"max_len,omitempty"`
	Items       []OptionItem `yaml:"items,omitempty" json:"items,omitempty"`
}

// OptionItem is one allowed value of a list option.
type OptionItem struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"desc,omitempty" json:"description,omitempty"`
}

// OptionsSchema is the ordered list of options an AI declares.
type OptionsSchema struct {
	Options []Option `yaml:"options" json:"options"`
}

// LoadOptions reads and validates an options file.
func LoadOptions(path string) (*OptionsSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}

	var schema OptionsSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &schema, nil
}

// Validate checks the schema itself: keys unique and non-empty, known types,
// defaults inside their own constraints.
func (s *OptionsSchema) Validate() error {
	seen := make(map[string]bool)
	for i := range s.Options {
		o := &s.Options[i]
		if o.Key == "" {
			return fmt.Errorf("option %d: key is required", i)
		}
		lower := strings.ToLower(o.Key)
		if seen[lower] {
			return fmt.Errorf("duplicate option key '%s'", o.Key)
		}
		seen[lower] = true

		switch o.Type {
		case OptionBool, OptionNumber, OptionString, OptionList, OptionSection:
		default:
			return fmt.Errorf("option '%s': invalid type: %s (must be 'bool', 'number', 'string', 'list' or 'section')", o.Key, o.Type)
		}

		if o.Type == OptionList && len(o.Items) == 0 {
			return fmt.Errorf("option '%s': list option needs at least one item", o.Key)
		}
		if o.Type == OptionNumber && o.Min != nil && o.Max != nil && *o.Min > *o.Max {
			return fmt.Errorf("option '%s': min %v is greater than max %v", o.Key, *o.Min, *o.Max)
		}
		if o.Default != "" && o.Type != OptionSection {
			if err := o.check(o.Default); err != nil {
				return fmt.Errorf("option '%s': invalid default: %w", o.Key, err)
			}
		}
	}
	return nil
}

// Option returns the option with the given key (case-insensitive).
func (s *OptionsSchema) Option(key string) (*Option, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Options {
		if strings.EqualFold(s.Options[i].Key, key) {
			return &s.Options[i], true
		}
	}
	return nil, false
}

// Defaults returns the default value of every non-section option.
func (s *OptionsSchema) Defaults() map[string]string {
	defaults := make(map[string]string)
	if s == nil {
		return defaults
	}
	for _, o := range s.Options {
		if o.Type == OptionSection {
			continue
		}
		defaults[strings.ToLower(o.Key)] = o.Default
	}
	return defaults
}

// Resolve merges values over the defaults and validates each entry.
// Keys are matched case-insensitively and returned in lower case.
func (s *OptionsSchema) Resolve(values map[string]string) (map[string]string, error) {
	resolved := s.Defaults()
	for key, value := range values {
		opt, ok := s.Option(key)
		if !ok {
			return nil, fmt.Errorf("unknown option '%s'", key)
		}
		if opt.Type == OptionSection {
			return nil, fmt.Errorf("option '%s' is a section and takes no value", key)
		}
		if err := opt.check(value); err != nil {
			return nil, fmt.Errorf("option '%s': %w", key, err)
		}
		resolved[strings.ToLower(opt.Key)] = value
	}
	return resolved, nil
}

func (o *Option) check(value string) error {
	switch o.Type {
	case OptionBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("'%s' is not a boolean", value)
		}
	case OptionNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("'%s' is not a number", value)
		}
		if o.Min != nil && n < *o.Min {
			return fmt.Errorf("%v is below minimum %v", n, *o.Min)
		}
		if o.Max != nil && n > *o.Max {
			return fmt.Errorf("%v is above maximum %v", n, *o.Max)
		}
		if o.Step != nil && *o.Step > 0 {
			base := 0.0
			if o.Min != nil {
				base = *o.Min
			}
			steps := (n - base) / *o.Step
			if math.Abs(steps-math.Round(steps)) > 1e-6 {
				return fmt.Errorf("%v is not a multiple of step %v", n, *o.Step)
			}
		}
	case OptionString:
		if o.MaxLen > 0 && len(value) > o.MaxLen {
			return fmt.Errorf("value longer than %d characters", o.MaxLen)
		}
	case OptionList:
		for _, item := range o.Items {
			if strings.EqualFold(item.Key, value) {
				return nil
			}
		}
		return fmt.Errorf("'%s' is not one of the allowed values", value)
	}
	return nil
}
