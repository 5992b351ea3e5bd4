package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

func loadTestKB(t *testing.T) *KnowledgeBase {
	t.Helper()
	kb, err := LoadKnowledgeBase("")
	require.NoError(t, err)
	return kb
}

func TestSelectAlwaysIncludesProjectInfo(t *testing.T) {
	kb := loadTestKB(t)
	sections := kb.Select("where is the gym?", models.LanguageEnglish)
	require.NotEmpty(t, sections)
	assert.Equal(t, SectionProjectInfo, sections[0].Name)
}

func TestSelectTopicKeywords(t *testing.T) {
	kb := loadTestKB(t)

	tests := []struct {
		question string
		want     []string
	}{
		{"what is the cost of 3 bhk", []string{SectionUnitConfigurations, SectionPricing}},
		{"how big is the kitchen", []string{Section3BHKPlan, Section4BHKPlan}},
		{"when is possession and who is the builder", []string{SectionPossession, SectionDeveloper}},
		{"is there a metro nearby and a pool", []string{SectionAmenities, SectionLocation}},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			sections := kb.Select(tt.question, models.LanguageEnglish)
			for _, name := range tt.want {
				assert.True(t, sections.Has(name), "expected %s in %v", name, sections.Names())
			}
		})
	}
}

func TestSelectBackfillsSparseQuestions(t *testing.T) {
	kb := loadTestKB(t)
	sections := kb.Select("Tell me about pricing", models.LanguageEnglish)

	assert.Equal(t, []string{
		SectionProjectInfo,
		SectionUnitConfigurations,
		SectionPricing,
		Section3BHKPlan,
		Section4BHKPlan,
		SectionAmenities,
		SectionLocation,
	}, sections.Names())
}

func TestSelectDoesNotBackfillRichQuestions(t *testing.T) {
	kb := loadTestKB(t)
	sections := kb.Select("price of a flat and the possession timeline", models.LanguageEnglish)
	assert.Equal(t, []string{
		SectionProjectInfo,
		SectionUnitConfigurations,
		SectionPricing,
		SectionPossession,
	}, sections.Names())
}

func TestSelectFallsBackToEnglish(t *testing.T) {
	kb := loadTestKB(t)
	sections := kb.Select("gym", models.LanguageGujarati)
	require.NotEmpty(t, sections)
	assert.Contains(t, string(sections[0].Data), "Brookstone")
}

func TestSelectUsesLanguageBranch(t *testing.T) {
	kb := loadTestKB(t)
	sections := kb.Select("price", models.LanguageHindi)
	require.NotEmpty(t, sections)
	assert.Contains(t, string(sections[0].Data), "ब्रुकस्टोन")
}

func TestSelectSkipsMissingSections(t *testing.T) {
	kb, err := ParseKnowledgeBase([]byte(`{"english":{"project_info":{"name":"X"},"pricing":{"a":1}}}`))
	require.NoError(t, err)

	sections := kb.Select("nothing relevant", models.LanguageEnglish)
	assert.Equal(t, []string{SectionProjectInfo, SectionPricing}, sections.Names())
}

func TestMarshalIndentKeepsOrder(t *testing.T) {
	s := Sections{
		{Name: "zeta", Data: []byte(`{"a":1}`)},
		{Name: "alpha", Data: []byte(`[1,2]`)},
	}
	out, err := s.MarshalIndent()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"zeta\": {\n    \"a\": 1\n  },\n  \"alpha\": [\n    1,\n    2\n  ]\n}", string(out))
}

func TestLoadKnowledgeBaseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"english":{"project_info":"p"}}`), 0o600))

	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	assert.Equal(t, 1, kb.Languages())

	_, err = LoadKnowledgeBase(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = ParseKnowledgeBase([]byte(`not json`))
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	builder := NewPromptBuilder(loadTestKB(t), "+91 1234567890")
	session := &models.Session{}
	session.AddTurn("first", true)
	session.AddTurn("reply one", false)
	session.AddTurn("second", true)
	session.AddTurn("reply two", false)
	session.AddTurn("Tell me about pricing", true)

	prompt, err := builder.Build("Tell me about pricing", models.LanguageEnglish, session.RecentHistory(historyWindow))
	require.NoError(t, err)

	assert.Contains(t, prompt, `"pricing"`)
	assert.Contains(t, prompt, `"unit_configurations"`)
	assert.Contains(t, prompt, "USER QUESTION: Tell me about pricing")
	assert.Contains(t, prompt, "RECENT CONVERSATION:\nBot: reply one\nUser: second\nBot: reply two\nUser: Tell me about pricing\n")
	assert.NotContains(t, prompt, "User: first")
	assert.Contains(t, prompt, "ONLY provide phone number +91 1234567890")
}

func TestBuildPromptWithoutHistory(t *testing.T) {
	builder := NewPromptBuilder(loadTestKB(t), "+91 1")
	prompt, err := builder.Build("amenities?", models.LanguageEnglish, nil)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "RECENT CONVERSATION:\n")
	assert.Contains(t, prompt, "PROJECT DATA:\n")
	assert.Regexp(t, `(?s)PROJECT DATA:\n\{.*\}\n\nUSER QUESTION: amenities\?`, prompt)
}
