package mapper

import (
	"encoding/json"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type LegalChunkMapper struct{}

func NewLegalChunkMapper() *LegalChunkMapper {
	return &LegalChunkMapper{}
}

func (m *LegalChunkMapper) ToModel(v entity.IndexedVector) *model.LegalChunk {
	c := v.Chunk
	return &model.LegalChunk{
		Filename:      c.Filename,
		ChunkIndex:    c.ChunkIndex,
		Filepath:      c.Filepath,
		SourceTag:     c.SourceTag,
		Year:          c.Year,
		Text:          c.Text,
		CaseName:      c.Metadata.CaseName,
		CaseNumber:    c.Metadata.CaseNumber,
		Court:         c.Metadata.Court,
		JudgmentDate:  c.Metadata.JudgmentDate,
		Judges:        toJSONList(c.Metadata.Judges),
		Citations:     toJSONList(c.Metadata.Citations),
		SubjectMatter: toJSONList(c.Metadata.SubjectMatter),
		Embedding:     pgvector.NewVector(v.Vector),
	}
}

func (m *LegalChunkMapper) ToModels(vectors []entity.IndexedVector) []*model.LegalChunk {
	models := make([]*model.LegalChunk, len(vectors))
	for i, v := range vectors {
		models[i] = m.ToModel(v)
	}
	return models
}

func (m *LegalChunkMapper) ToChunk(c *model.LegalChunk) entity.Chunk {
	return entity.Chunk{
		Text:       c.Text,
		Filename:   c.Filename,
		Filepath:   c.Filepath,
		SourceTag:  c.SourceTag,
		Year:       c.Year,
		ChunkIndex: c.ChunkIndex,
		Metadata: entity.Metadata{
			CaseName:      c.CaseName,
			CaseNumber:    c.CaseNumber,
			Court:         c.Court,
			JudgmentDate:  c.JudgmentDate,
			Judges:        fromJSONList(c.Judges),
			Citations:     fromJSONList(c.Citations),
			SubjectMatter: fromJSONList(c.SubjectMatter),
		},
	}
}

func (m *LegalChunkMapper) ToResults(hits []model.LegalChunkHit) []entity.RetrievalResult {
	results := make([]entity.RetrievalResult, len(hits))
	for i := range hits {
		results[i] = entity.RetrievalResult{
			Chunk:    m.ToChunk(&hits[i].LegalChunk),
			Distance: hits[i].Distance,
		}
	}
	return results
}

func toJSONList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func fromJSONList(raw datatypes.JSON) []string {
	var out []string
	if len(raw) == 0 {
		return []string{}
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
