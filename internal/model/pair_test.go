package model

import "testing"

func TestParseSummarySet(t *testing.T) {
	cases := []struct {
		name     string
		summary  string
		question string
	}{
		{"sum3_ques2", "sum3", "ques2"},
		{"sum1_ques1_25", "sum1", "ques1_25"},
		{"plain", "plain", ""},
	}

	for _, tc := range cases {
		ss := ParseSummarySet(tc.name)
		if ss.Summary != tc.summary || ss.Question != tc.question {
			t.Errorf("ParseSummarySet(%q) = (%q, %q), expected (%q, %q)",
				tc.name, ss.Summary, ss.Question, tc.summary, tc.question)
		}
	}
}

func TestSummarySets_CoverAllDatasets(t *testing.T) {
	sets := SummarySets()
	for _, d := range Datasets() {
		if len(sets[d.Key]) == 0 {
			t.Errorf("Dataset %s has no configured summary sets", d.Key)
		}
	}
}

func TestDatasetByKey(t *testing.T) {
	d, ok := DatasetByKey("Inc500Charts")
	if !ok {
		t.Fatal("Expected Inc500Charts to be a known dataset")
	}
	if d.DisplayName != "Inc5000 Company List 2014" {
		t.Errorf("Unexpected display name %q", d.DisplayName)
	}

	if _, ok := DatasetByKey("nope"); ok {
		t.Error("Expected unknown dataset to not resolve")
	}
}

func TestPairID(t *testing.T) {
	id := PairID("Inc500Charts", "sum3_ques2", "pair1")
	if id != "Inc500Charts_sum3_ques2_pair1" {
		t.Errorf("Unexpected pair ID %q", id)
	}
}
