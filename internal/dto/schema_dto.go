package dto

type SchemaProblemDTO struct {
	Flow    string `json:"flow"`
	Order   string `json:"order,omitempty"`
	Qid     string `json:"qid,omitempty"`
	Message string `json:"message"`
}

type ReloadSchemaResponse struct {
	Applied       bool               `json:"applied"`
	SchemaVersion string             `json:"schema_version,omitempty"`
	Flows         []string           `json:"flows,omitempty"`
	Problems      []SchemaProblemDTO `json:"problems,omitempty"`
}

type FlowQuestionsResponse struct {
	Flow          string         `json:"flow"`
	SchemaVersion string         `json:"schema_version"`
	Questions     []QuestionView `json:"questions"`
}
