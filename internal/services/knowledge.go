package services

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

//go:embed knowledge_base.json
var defaultKnowledgeBase []byte

// Section names of the project knowledge base.
const (
	SectionProjectInfo        = "project_info"
	SectionUnitConfigurations = "unit_configurations"
	SectionPricing            = "pricing"
	Section3BHKPlan           = "3bhk_unit_plan"
	Section4BHKPlan           = "4bhk_unit_plan"
	SectionGroundFloorPlan    = "ground_floor_plan"
	SectionAmenities          = "amenities"
	SectionLocation           = "location_details"
	SectionPossession         = "possession_details"
	SectionDeveloper          = "developer_portfolio"
)

type topicRule struct {
	keywords []string
	sections []string
}

var topicRules = []topicRule{
	{
		keywords: []string{"price", "cost", "bhk", "bedroom", "size", "sqft", "configuration", "apartment"},
		sections: []string{SectionUnitConfigurations, SectionPricing},
	},
	{
		keywords: []string{"kitchen", "room", "bedroom", "living", "dining", "bathroom", "toilet", "balcony"},
		sections: []string{Section3BHKPlan, Section4BHKPlan},
	},
	{
		keywords: []string{"ground", "ground floor", "floor plan", "groundfloor", "ground-floor"},
		sections: []string{SectionGroundFloorPlan},
	},
	{
		keywords: []string{"amenity", "amenities", "facility", "gym", "pool", "park", "club"},
		sections: []string{SectionAmenities},
	},
	{
		keywords: []string{"location", "address", "connectivity", "metro", "nearby", "landmark"},
		sections: []string{SectionLocation},
	},
	{
		keywords: []string{"possession", "ready", "completion", "timeline", "delivery"},
		sections: []string{SectionPossession},
	},
	{
		keywords: []string{"developer", "shatranj", "aarat", "group", "company", "builder"},
		sections: []string{SectionDeveloper},
	},
}

// Added when a question selects too little context.
var backfillSections = []string{
	SectionUnitConfigurations,
	SectionPricing,
	Section3BHKPlan,
	Section4BHKPlan,
	SectionAmenities,
	SectionLocation,
}

const minSelectedSections = 3

// Section is one named block of the knowledge base.
type Section struct {
	Name string
	Data json.RawMessage
}

// Sections is an ordered selection of the knowledge base.
type Sections []Section

// Names lists the selected section names in order.
func (s Sections) Names() []string {
	names := make([]string, len(s))
	for i, sec := range s {
		names[i] = sec.Name
	}
	return names
}

// Has reports whether name was selected.
func (s Sections) Has(name string) bool {
	for _, sec := range s {
		if sec.Name == name {
			return true
		}
	}
	return false
}

// MarshalIndent renders the selection as an indented JSON object, keeping order.
func (s Sections) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sec.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(sec.Data)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent knowledge sections: %w", err)
	}
	return out.Bytes(), nil
}

// KnowledgeBase is the localized project FAQ document.
type KnowledgeBase struct {
	languages map[models.Language]map[string]json.RawMessage
}

// LoadKnowledgeBase reads the FAQ document from path, or the embedded copy when path is empty.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data := defaultKnowledgeBase
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge base: %w", err)
		}
		data = raw
	}
	return ParseKnowledgeBase(data)
}

// ParseKnowledgeBase decodes a {language: {section: any}} document.
func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var languages map[models.Language]map[string]json.RawMessage
	if err := json.Unmarshal(data, &languages); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	return &KnowledgeBase{languages: languages}, nil
}

// Languages returns the number of language branches.
func (kb *KnowledgeBase) Languages() int {
	return len(kb.languages)
}

// Select narrows the knowledge base to the sections relevant to question.
// The language branch falls back to English when absent.
func (kb *KnowledgeBase) Select(question string, lang models.Language) Sections {
	branch, ok := kb.languages[lang]
	if !ok {
		branch = kb.languages[models.LanguageEnglish]
	}

	var selected Sections
	seen := make(map[string]bool)
	add := func(name string) {
		if seen[name] {
			return
		}
		data, ok := branch[name]
		if !ok {
			return
		}
		seen[name] = true
		selected = append(selected, Section{Name: name, Data: data})
	}

	add(SectionProjectInfo)

	q := strings.ToLower(question)
	for _, rule := range topicRules {
		if containsAny(q, rule.keywords) {
			for _, name := range rule.sections {
				add(name)
			}
		}
	}

	if len(selected) < minSelectedSections {
		for _, name := range backfillSections {
			add(name)
		}
	}
	return selected
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
