package dto

import (
	"legal-rag-be/internal/entity"
)

type IngestDocumentRequest struct {
	Filename  string `json:"filename" validate:"required,max=255"`
	Filepath  string `json:"filepath,omitempty"`
	Text      string `json:"text" validate:"required"`
	SourceTag string `json:"source_tag,omitempty" validate:"max=64"`
	Year      int    `json:"year,omitempty" validate:"omitempty,min=1800,max=2100"`
}

func (r *IngestDocumentRequest) ToEntity() entity.Document {
	return entity.Document{
		Filename:  r.Filename,
		Filepath:  r.Filepath,
		RawText:   r.Text,
		SourceTag: r.SourceTag,
		Year:      r.Year,
	}
}

type IngestDocumentResponse struct {
	Filename    string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
}

type IngestBatchRequest struct {
	Documents []IngestDocumentRequest `json:"documents" validate:"required,min=1,max=100,dive"`
}

type IngestFailureResponse struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type IngestBatchResponse struct {
	Ingested map[string]int          `json:"ingested"`
	Failed   []IngestFailureResponse `json:"failed"`
}

func ToIngestBatchResponse(r entity.IngestReport) *IngestBatchResponse {
	res := &IngestBatchResponse{
		Ingested: r.Ingested,
		Failed:   make([]IngestFailureResponse, 0, len(r.Failed)),
	}
	for _, f := range r.Failed {
		res.Failed = append(res.Failed, IngestFailureResponse{Filename: f.Filename, Error: f.Err.Error()})
	}
	return res
}

// PublishIngestDocumentMessage is the payload queued for asynchronous ingestion.
type PublishIngestDocumentMessage struct {
	Filename  string `json:"filename"`
	Filepath  string `json:"filepath,omitempty"`
	Text      string `json:"text"`
	SourceTag string `json:"source_tag,omitempty"`
	Year      int    `json:"year,omitempty"`
}

type DocumentSummaryResponse struct {
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

type DeleteDocumentResponse struct {
	Filename      string `json:"filename"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

type CleanupRequest struct {
	ValidFilenames []string `json:"valid_filenames" validate:"required"`
}

type CleanupResponse struct {
	OrphanedFiles []string `json:"orphaned_files"`
	ChunksDeleted int      `json:"chunks_deleted"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
	TopK  int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}

type SearchResultResponse struct {
	Text           string          `json:"text"`
	Filename       string          `json:"filename"`
	Filepath       string          `json:"filepath,omitempty"`
	ChunkIndex     int             `json:"chunk_index"`
	SourceTag      string          `json:"source_tag,omitempty"`
	Year           int             `json:"year,omitempty"`
	Metadata       entity.Metadata `json:"metadata"`
	MetadataLine   string          `json:"metadata_display"`
	Distance       float64         `json:"distance"`
	RelevanceScore float64         `json:"relevance_score"`
	Location       string          `json:"source_location"`
}

type IndexStatsResponse struct {
	TotalDocuments int `json:"total_documents"`
	TotalChunks    int `json:"total_chunks"`
}
