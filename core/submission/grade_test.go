package submission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chendurkumaran/eduresource/core/submission"
)

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "A+"},
		{97, "A+"},
		{96.999, "A"},
		{93, "A"},
		{92.9, "A-"},
		{90, "A-"},
		{89.99, "B+"},
		{87, "B+"},
		{83, "B"},
		{80, "B-"},
		{77, "C+"},
		{73, "C"},
		{70, "C-"},
		{67, "D+"},
		{66.999, "D"},
		{60, "D"},
		{59.999, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, submission.LetterGrade(tt.pct), "LetterGrade(%v)", tt.pct)
	}
}

func TestPercentage(t *testing.T) {
	assert.InDelta(t, 85, submission.Percentage(85, 100), 1e-9)
	assert.InDelta(t, 50, submission.Percentage(10, 20), 1e-9)
	assert.InDelta(t, 100, submission.Percentage(20, 20), 1e-9)
	assert.Zero(t, submission.Percentage(10, 0))
}
