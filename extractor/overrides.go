package extractor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/use-agent/propscrape/models"
)

// Overrides are extra candidates per source, tried before the built-in ones.
//
//	property24:
//	  title:
//	    - css: "h1.listing-title"
//	  images:
//	    - css: ".carousel img"
//	      attr: data-lazy
type Overrides map[models.ListingSource]Table

// LoadOverrides reads a YAML overrides file.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extractor: read overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes YAML overrides and rejects unknown sources,
// unknown fields and empty selectors.
func ParseOverrides(data []byte) (Overrides, error) {
	var o Overrides
	if err := yaml.UnmarshalStrict(data, &o); err != nil {
		return nil, fmt.Errorf("extractor: parse overrides: %w", err)
	}
	for src, table := range o {
		switch src {
		case models.SourceProperty24, models.SourcePrivateProperty, models.SourceRemax, models.SourceGeneric:
		default:
			return nil, fmt.Errorf("extractor: overrides: unknown source %q", src)
		}
		for field, cands := range table {
			if !knownFields[field] {
				return nil, fmt.Errorf("extractor: overrides: %s: unknown field %q", src, field)
			}
			for _, c := range cands {
				if c.CSS == "" {
					return nil, fmt.Errorf("extractor: overrides: %s.%s: empty selector", src, field)
				}
			}
		}
	}
	return o, nil
}
