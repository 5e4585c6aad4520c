package main

import (
	"strings"
	"testing"

	"castos/internal/casting"
)

func TestRenderSelectionsTotalsSalaryInFooter(t *testing.T) {
	out := renderSelections("Bollywood", []casting.Selection{
		{Role: "Rhea", ActorName: "Ada Stone", Salary: 150000, BoxOffice: 9e7, Rating: 7.8, Risk: 0.2},
		casting.PlaceholderSelection("Tobin"),
	})
	requireContains(t, out, "Ada Stone")
	requireContains(t, out, casting.NoCandidateName)
	requireContains(t, out, "Total")
	requireContains(t, out, "₹150,000")

	lines := strings.Split(out, "\n")
	var totalLine string
	for _, line := range lines {
		if strings.Contains(line, "Total") {
			totalLine = line
		}
	}
	if totalLine == "" || strings.Index(totalLine, "Total") > strings.Index(totalLine, "₹150,000") {
		t.Fatalf("footer should lead with the total label:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(statsColumns, [][]string{{"pending"}}, nil)
	requireContains(t, out, "pending")
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("no columns should render nothing")
	}
}
