package entity

import "math"

// IndexedVector is the unit owned by a vector index: the embedding plus an
// immutable snapshot of the chunk it was computed from.
type IndexedVector struct {
	Vector []float32
	Chunk  Chunk
}

// RetrievalResult carries a cosine distance in [0,2]; lower is closer.
type RetrievalResult struct {
	Chunk    Chunk
	Distance float64
}

func (r RetrievalResult) RelevanceScore() float64 {
	return RelevanceFromDistance(r.Distance)
}

// RelevanceFromDistance maps cosine distance to 1 - distance clamped to [0,1].
func RelevanceFromDistance(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

type Source struct {
	Id             int     `json:"id"`
	Filename       string  `json:"filename"`
	Filepath       string  `json:"filepath,omitempty"`
	ChunkIndex     int     `json:"chunk_index"`
	CaseName       string  `json:"case_name,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
	Location       string  `json:"source_location"`
}

func NewSource(id int, r RetrievalResult) Source {
	return Source{
		Id:             id,
		Filename:       r.Chunk.Filename,
		Filepath:       r.Chunk.Filepath,
		ChunkIndex:     r.Chunk.ChunkIndex,
		CaseName:       r.Chunk.Metadata.CaseName,
		RelevanceScore: r.RelevanceScore(),
		Location:       r.Chunk.Location(),
	}
}

type AnswerResult struct {
	SessionId  string
	Question   string
	Answer     string
	Sources    []Source
	Confidence float64
}
