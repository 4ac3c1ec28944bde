package domain

import "strconv"

// Document is a single retrieved paper. The PMID is the stable external
// identifier and the join key for every enrichment stage.
type Document struct {
	PMID            string           `json:"pmid"`
	Title           string           `json:"title"`
	Abstract        string           `json:"abstract"`
	PublicationDate string           `json:"publicationDate"`
	Similarity      float64          `json:"similarity,omitempty"`
	Citations       Citations        `json:"citations"`
	Agreeableness   *Agreeableness   `json:"agreeableness,omitempty"`
	RelevantSection *RelevantSection `json:"relevantSection,omitempty"`
}

// Citations holds the citation count known for a document.
type Citations struct {
	Total int `json:"total"`
}

// Agreeableness is a per-document {agree, disagree, neutral} score estimating
// whether the paper supports, contradicts, or is neutral toward the query.
type Agreeableness struct {
	Agree    float64 `json:"agree"`
	Disagree float64 `json:"disagree"`
	Neutral  float64 `json:"neutral"`
}

// RelevantSection is the sentence of a document most similar to the query.
type RelevantSection struct {
	MostRelevantSentence string  `json:"mostRelevantSentence"`
	SimilarityScore      float64 `json:"similarityScore"`
}

// Year parses the integer year prefix of PublicationDate.
// Unparsable or missing dates yield 0, which sorts to the extreme end.
func (d Document) Year() int {
	s := d.PublicationDate
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	y, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return y
}

// Consensus labels the majority vote of an agreeableness triple.
type Consensus string

const (
	ConsensusAgree    Consensus = "agree"
	ConsensusDisagree Consensus = "disagree"
	ConsensusNeutral  Consensus = "neutral"
)

// DocumentConsensus derives the consensus label for a document.
// Missing agreeableness counts as neutral.
func DocumentConsensus(d Document) Consensus {
	a := d.Agreeableness
	if a == nil {
		return ConsensusNeutral
	}
	if a.Neutral > a.Agree && a.Neutral > a.Disagree {
		return ConsensusNeutral
	}
	if a.Agree > a.Disagree {
		return ConsensusAgree
	}
	if a.Disagree > a.Agree {
		return ConsensusDisagree
	}
	return ConsensusNeutral
}
