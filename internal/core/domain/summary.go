package domain

// ProjectSummary holds aggregate counts for a project's knowledge base.
type ProjectSummary struct {
	ProjectID     string         `json:"project_id"`
	TotalFiles    int            `json:"total_files"`
	TotalChunks   int            `json:"total_chunks"`
	TotalVectors  int            `json:"total_vectors"`
	Kinds         map[string]int `json:"kinds"`
	TemplateFiles int            `json:"template_files"`
	DataFiles     int            `json:"data_files"`
}
