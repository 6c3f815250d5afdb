package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

// SharedCompetency is a competency both candidates hold.
type SharedCompetency struct {
	Competency     string  `json:"competency"`
	ReferenceScore float64 `json:"reference_score"`
	CandidateScore float64 `json:"candidate_score"`
	AvgScore       float64 `json:"avg_score"`
}

// SimilarCandidate is one similarity hit against the reference candidate.
type SimilarCandidate struct {
	CandidateID        string             `json:"candidate_id"`
	CandidateName      string             `json:"candidate_name"`
	SimilarityScore    float64            `json:"similarity_score"`
	SharedCompetencies []SharedCompetency `json:"shared_competencies"`
}

// SimilarSet is the ranked similarity output for one reference candidate.
type SimilarSet struct {
	ReferenceID   string             `json:"reference_id"`
	Candidates    []SimilarCandidate `json:"similar_candidates"`
	TotalCompared int                `json:"total_compared"`
	MinSimilarity float64            `json:"min_similarity"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// Similar ranks pool candidates by cosine similarity of competency vectors
// against the reference. The reference itself is excluded, scores below
// minSimilarity are dropped, and ties keep input order.
func (e *Engine) Similar(reference models.Candidate, pool []models.Candidate, topK int, minSimilarity float64) SimilarSet {
	set := SimilarSet{
		ReferenceID:   reference.ID,
		Candidates:    []SimilarCandidate{},
		MinSimilarity: minSimilarity,
		GeneratedAt:   e.now(),
	}
	if topK <= 0 {
		return set
	}

	refVector := competencyVector(reference.Competencies)

	for _, candidate := range pool {
		if candidate.ID == reference.ID {
			continue
		}
		set.TotalCompared++

		vector := competencyVector(candidate.Competencies)
		score := round2(cosineSimilarity(refVector, vector))
		if score < minSimilarity {
			continue
		}

		set.Candidates = append(set.Candidates, SimilarCandidate{
			CandidateID:        candidate.ID,
			CandidateName:      candidate.FullName,
			SimilarityScore:    score,
			SharedCompetencies: sharedCompetencies(refVector, vector),
		})
	}

	sort.SliceStable(set.Candidates, func(i, j int) bool {
		return set.Candidates[i].SimilarityScore > set.Candidates[j].SimilarityScore
	})
	if len(set.Candidates) > topK {
		set.Candidates = set.Candidates[:topK]
	}
	return set
}

// cosineSimilarity computes cosine over the union of competency keys,
// treating absent keys as zero. Negative values clamp to 0.
func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}

	var dot, normA, normB float64
	for k := range keys {
		va := a[k]
		vb := b[k]
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity < 0 {
		return 0
	}
	return similarity
}

// sharedCompetencies lists up to 5 competencies both candidates hold,
// strongest combined scores first.
func sharedCompetencies(ref, other map[string]float64) []SharedCompetency {
	shared := []SharedCompetency{}
	for key, refScore := range ref {
		otherScore, ok := other[key]
		if !ok {
			continue
		}
		shared = append(shared, SharedCompetency{
			Competency:     key,
			ReferenceScore: round2(refScore),
			CandidateScore: round2(otherScore),
			AvgScore:       round2((refScore + otherScore) / 2),
		})
	}

	sort.SliceStable(shared, func(i, j int) bool {
		if shared[i].AvgScore != shared[j].AvgScore {
			return shared[i].AvgScore > shared[j].AvgScore
		}
		return shared[i].Competency < shared[j].Competency
	})
	if len(shared) > 5 {
		shared = shared[:5]
	}
	return shared
}
