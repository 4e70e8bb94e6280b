package risk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Industry tier points. Unmatched industries land on the neutral tier.
const (
	TierFavorable  = 0.0
	TierStable     = 2.0
	TierNeutral    = 5.0
	TierElevated   = 12.0
	TierRestricted = 20.0
)

// IndustryRule maps a keyword to a tier score. Keywords are matched as
// case-insensitive substrings of the stated industry, in table order.
type IndustryRule struct {
	Keyword string  `yaml:"keyword" json:"keyword"`
	Points  float64 `yaml:"points" json:"points"`
}

// IndustryTable is the ordered favorability table.
type IndustryTable struct {
	Rules []IndustryRule `yaml:"rules" json:"rules"`
}

// DefaultIndustryTable returns the built-in five-tier table.
func DefaultIndustryTable() *IndustryTable {
	return &IndustryTable{Rules: []IndustryRule{
		// Favorable: essential services with steady card volume.
		{Keyword: "medical", Points: TierFavorable},
		{Keyword: "dental", Points: TierFavorable},
		{Keyword: "healthcare", Points: TierFavorable},
		{Keyword: "pharmacy", Points: TierFavorable},
		{Keyword: "veterinary", Points: TierFavorable},

		// Stable.
		{Keyword: "grocery", Points: TierStable},
		{Keyword: "auto repair", Points: TierStable},
		{Keyword: "logistics", Points: TierStable},
		{Keyword: "manufacturing", Points: TierStable},
		{Keyword: "professional services", Points: TierStable},
		{Keyword: "accounting", Points: TierStable},

		// Neutral.
		{Keyword: "retail", Points: TierNeutral},
		{Keyword: "salon", Points: TierNeutral},
		{Keyword: "fitness", Points: TierNeutral},
		{Keyword: "landscaping", Points: TierNeutral},

		// Elevated: thin margins or seasonal revenue.
		{Keyword: "restaurant", Points: TierElevated},
		{Keyword: "food service", Points: TierElevated},
		{Keyword: "bar", Points: TierElevated},
		{Keyword: "hospitality", Points: TierElevated},
		{Keyword: "construction", Points: TierElevated},
		{Keyword: "trucking", Points: TierElevated},
		{Keyword: "travel", Points: TierElevated},

		// Restricted.
		{Keyword: "gambling", Points: TierRestricted},
		{Keyword: "casino", Points: TierRestricted},
		{Keyword: "cannabis", Points: TierRestricted},
		{Keyword: "crypto", Points: TierRestricted},
		{Keyword: "nightclub", Points: TierRestricted},
		{Keyword: "pawn", Points: TierRestricted},
	}}
}

// Validate checks the table for empty keywords and out-of-cap points.
func (t *IndustryTable) Validate() error {
	if len(t.Rules) == 0 {
		return fmt.Errorf("industry table has no rules")
	}
	for i, rule := range t.Rules {
		if strings.TrimSpace(rule.Keyword) == "" {
			return fmt.Errorf("industry rule %d has an empty keyword", i)
		}
		if rule.Points < 0 || rule.Points > capIndustry {
			return fmt.Errorf("industry rule %d points %.1f outside [0, %.0f]",
				i, rule.Points, capIndustry)
		}
	}
	return nil
}

// Score returns the tier points for the stated industry. Unmatched or
// empty industries score the neutral tier.
func (t *IndustryTable) Score(industry string) float64 {
	lower := strings.ToLower(strings.TrimSpace(industry))
	if lower == "" {
		return TierNeutral
	}
	for _, rule := range t.Rules {
		if strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			return rule.Points
		}
	}
	return TierNeutral
}

// industryFile is the on-disk shape of an industry override file. It
// shares the file format of the ledger table overrides; this loader
// reads only the industry section.
type industryFile struct {
	Industry *IndustryTable `yaml:"industry"`
}

// LoadIndustryTable reads an industry favorability override from a YAML
// file, falling back to the defaults when the file has no industry
// section.
func LoadIndustryTable(path string) (*IndustryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table file: %w", err)
	}

	var file industryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing table file %s: %w", path, err)
	}

	if file.Industry == nil {
		return DefaultIndustryTable(), nil
	}
	if err := file.Industry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid industry table in %s: %w", path, err)
	}
	return file.Industry, nil
}
