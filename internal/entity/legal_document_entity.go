package entity

import "fmt"

const (
	DefaultSourceTag = "SCOB 2015"
	DefaultYear      = 2015
)

// Document is one ingested judgment. RawText is the plain text produced by an
// external PDF extractor and may contain "--- Page N ---" markers.
type Document struct {
	Filename  string
	Filepath  string
	RawText   string
	SourceTag string
	Year      int
}

type Metadata struct {
	CaseName      string   `json:"case_name,omitempty"`
	CaseNumber    string   `json:"case_number,omitempty"`
	Court         string   `json:"court,omitempty"`
	Judges        []string `json:"judges"`
	JudgmentDate  string   `json:"judgment_date,omitempty"`
	Citations     []string `json:"citations"`
	SubjectMatter []string `json:"subject_matter"`
}

func (m Metadata) IsEmpty() bool {
	return m.CaseName == "" &&
		m.CaseNumber == "" &&
		m.Court == "" &&
		m.JudgmentDate == "" &&
		len(m.Judges) == 0 &&
		len(m.Citations) == 0 &&
		len(m.SubjectMatter) == 0
}

// Clone returns a deep copy so index snapshots never share slices with callers.
func (m Metadata) Clone() Metadata {
	out := m
	out.Judges = append([]string(nil), m.Judges...)
	out.Citations = append([]string(nil), m.Citations...)
	out.SubjectMatter = append([]string(nil), m.SubjectMatter...)
	return out
}

type Chunk struct {
	Text       string
	Filename   string
	Filepath   string
	SourceTag  string
	Year       int
	ChunkIndex int
	Metadata   Metadata
}

func (c Chunk) Location() string {
	return CitationKey(c.Filename, c.ChunkIndex)
}

// CitationKey renders the stable provenance key "<filename>:chunk_<index>".
func CitationKey(filename string, chunkIndex int) string {
	return fmt.Sprintf("%s:chunk_%d", filename, chunkIndex)
}

type DocumentSummary struct {
	Filename   string
	ChunkCount int
}

type IndexStats struct {
	TotalDocuments int
	TotalChunks    int
}

type CleanupReport struct {
	OrphanedFiles []string
	ChunksDeleted int
}

type IngestFailure struct {
	Filename string
	Err      error
}

type IngestReport struct {
	Ingested map[string]int
	Failed   []IngestFailure
}
