package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// LegalChunk is one embedded slice of a judgment. The embedding column is
// untyped so the same table serves any embedding model; the repository
// enforces a single dimension per table.
type LegalChunk struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename      string          `gorm:"type:text;not null;uniqueIndex:idx_legal_chunks_location,priority:1"`
	ChunkIndex    int             `gorm:"not null;uniqueIndex:idx_legal_chunks_location,priority:2"`
	Filepath      string          `gorm:"type:text"`
	SourceTag     string          `gorm:"type:varchar(64)"`
	Year          int             `gorm:"default:0"`
	Text          string          `gorm:"type:text;not null"`
	CaseName      string          `gorm:"type:text"`
	CaseNumber    string          `gorm:"type:varchar(255)"`
	Court         string          `gorm:"type:varchar(255)"`
	JudgmentDate  string          `gorm:"type:varchar(64)"`
	Judges        datatypes.JSON  `gorm:"type:jsonb"`
	Citations     datatypes.JSON  `gorm:"type:jsonb"`
	SubjectMatter datatypes.JSON  `gorm:"type:jsonb"`
	Embedding     pgvector.Vector `gorm:"type:vector;not null"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
}

func (LegalChunk) TableName() string {
	return "legal_chunks"
}

// LegalChunkHit is a LegalChunk row scanned together with its query distance.
type LegalChunkHit struct {
	LegalChunk
	Distance float64
}
