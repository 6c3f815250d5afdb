package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredSkillsFlattensCategoriesAlphabetically(t *testing.T) {
	req := JobRequirements{
		Skills: map[string][]string{
			"web_technologies":      {"react"},
			"databases":             {"postgresql", "redis"},
			"programming_languages": {"python", "go"},
		},
	}

	assert.Equal(t, []string{"postgresql", "redis", "python", "go", "react"}, req.RequiredSkills())
}

func TestRequiredSkillsEmpty(t *testing.T) {
	assert.Nil(t, JobRequirements{}.RequiredSkills())
}
