package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"loanscore/internal/loan"
	"loanscore/internal/server"
)

func TestProbabilityBar(t *testing.T) {
	tests := []struct {
		name     string
		pApprove float64
		want     int
	}{
		{"all approve", 1, barWidth},
		{"all reject", 0, 0},
		{"quarter", 0.25, 10},
		{"rounds", 0.51, 20},
		{"out of range", 1.5, barWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := probabilityBar(tt.pApprove)
			assert.Equal(t, tt.want, strings.Count(bar, "█"))
			assert.Equal(t, barWidth-tt.want, strings.Count(bar, "░"))
		})
	}
}

func TestRenderPrediction(t *testing.T) {
	out := renderPrediction(0, server.Prediction{
		Label:                loan.Approved,
		ApprovalProbability:  0.875,
		RejectionProbability: 0.125,
	})
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Approved")
	assert.Contains(t, out, "87.50%")
	assert.Contains(t, out, "12.50%")

	out = renderPrediction(2, server.Prediction{Label: loan.Rejected, ApprovalProbability: 0.01, RejectionProbability: 0.99})
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "Rejected")
	assert.Contains(t, out, "99.00%")
}

func TestRenderPredictions(t *testing.T) {
	var buf bytes.Buffer
	renderPredictions(&buf, "Loan decision", []server.Prediction{
		{Label: loan.Approved, ApprovalProbability: 0.9, RejectionProbability: 0.1},
		{Label: loan.Rejected, ApprovalProbability: 0.2, RejectionProbability: 0.8},
	})
	out := buf.String()
	assert.Contains(t, out, "Loan decision")
	assert.Equal(t, 1, strings.Count(out, "Approved"))
	assert.Equal(t, 1, strings.Count(out, "Rejected"))
}
