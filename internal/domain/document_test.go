package domain

import "testing"

func TestDocumentYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2021", 2021},
		{"2019 Mar 14", 2019},
		{"1998-07", 1998},
		{"", 0},
		{"unknown", 0},
		{"n/a 2020", 0},
	}
	for _, tt := range tests {
		d := Document{PublicationDate: tt.date}
		if got := d.Year(); got != tt.want {
			t.Errorf("Year(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestDocumentConsensus(t *testing.T) {
	tests := []struct {
		name string
		a    *Agreeableness
		want Consensus
	}{
		{"nil", nil, ConsensusNeutral},
		{"agree wins", &Agreeableness{Agree: 0.7, Disagree: 0.2, Neutral: 0.1}, ConsensusAgree},
		{"disagree wins", &Agreeableness{Agree: 0.2, Disagree: 0.6, Neutral: 0.2}, ConsensusDisagree},
		{"neutral dominates", &Agreeableness{Agree: 0.3, Disagree: 0.2, Neutral: 0.5}, ConsensusNeutral},
		{"tie", &Agreeableness{Agree: 0.4, Disagree: 0.4, Neutral: 0.2}, ConsensusNeutral},
		{"zero stub", &Agreeableness{}, ConsensusNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DocumentConsensus(Document{Agreeableness: tt.a})
			if got != tt.want {
				t.Errorf("consensus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestViewStateToggle(t *testing.T) {
	s := DefaultViewState()
	if s.SortKey != SortSimilarity || s.SortOrder != SortDesc {
		t.Fatalf("default = %+v", s)
	}

	// re-selecting the active key flips direction
	s = s.Toggle(SortSimilarity)
	if s.SortKey != SortSimilarity || s.SortOrder != SortAsc {
		t.Errorf("after flip = %+v", s)
	}
	s = s.Toggle(SortSimilarity)
	if s.SortOrder != SortDesc {
		t.Errorf("double toggle must return to desc, got %s", s.SortOrder)
	}

	// switching keys activates the new key descending
	s = s.Toggle(SortYear)
	if s.SortKey != SortYear || s.SortOrder != SortDesc {
		t.Errorf("after switch = %+v", s)
	}
	s = s.Toggle(SortCitations)
	if s.SortKey != SortCitations || s.SortOrder != SortDesc {
		t.Errorf("after second switch = %+v", s)
	}
}
