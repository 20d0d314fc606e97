// ABOUTME: Pipeline stage enumeration and its static display table
// ABOUTME: Stage order, labels, colors, and neighbour lookup
package models

// Stage is a deal's position in the pipeline.
type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiating Stage = "negotiating"
	StageContract    Stage = "contract"
	StageClosedWon   Stage = "closed_won"
	StageClosedLost  Stage = "closed_lost"
)

var stageOrder = []Stage{
	StageLead,
	StageQualified,
	StageProposal,
	StageNegotiating,
	StageContract,
	StageClosedWon,
	StageClosedLost,
}

// Stages returns the pipeline stages in order.
func Stages() []Stage {
	return append([]Stage(nil), stageOrder...)
}

// IsValid reports whether s is one of the seven pipeline stages.
func (s Stage) IsValid() bool {
	return s.Index() >= 0
}

// Index returns the position of s in the pipeline, or -1.
func (s Stage) Index() int {
	for i, v := range stageOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// Label returns the display name of the stage.
func (s Stage) Label() string {
	if cfg, ok := StageInfo(s); ok {
		return cfg.Name
	}
	return string(s)
}

// IsClosed reports whether the stage ends the pipeline.
func (s Stage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Next returns the following stage. closed_won and closed_lost have no next stage.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || s.IsClosed() {
		return s, false
	}
	return stageOrder[i+1], true
}

// Prev returns the preceding stage; closed_lost steps back to contract.
func (s Stage) Prev() (Stage, bool) {
	switch i := s.Index(); {
	case i <= 0:
		return s, false
	case s == StageClosedLost:
		return StageContract, true
	default:
		return stageOrder[i-1], true
	}
}

// StageConfig describes how a stage is presented.
type StageConfig struct {
	Stage       Stage  `json:"stage"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var pipelineStages = []StageConfig{
	{Stage: StageLead, Name: "Lead", Color: "gray", Description: "Initial contact or property identified", Icon: "user-plus"},
	{Stage: StageQualified, Name: "Qualified", Color: "blue", Description: "Seller motivated and property fits criteria", Icon: "check-circle"},
	{Stage: StageProposal, Name: "Proposal", Color: "indigo", Description: "LOI or offer sent to seller", Icon: "file-text"},
	{Stage: StageNegotiating, Name: "Negotiating", Color: "yellow", Description: "Terms under active negotiation", Icon: "message-square"},
	{Stage: StageContract, Name: "Under Contract", Color: "purple", Description: "Purchase agreement signed", Icon: "file-signature"},
	{Stage: StageClosedWon, Name: "Closed Won", Color: "green", Description: "Deal closed successfully", Icon: "trophy"},
	{Stage: StageClosedLost, Name: "Closed Lost", Color: "red", Description: "Deal did not close", Icon: "x-circle"},
}

// PipelineStages returns the static stage table in pipeline order.
func PipelineStages() []StageConfig {
	return append([]StageConfig(nil), pipelineStages...)
}

// StageInfo looks up the display config for a stage.
func StageInfo(s Stage) (StageConfig, bool) {
	for _, cfg := range pipelineStages {
		if cfg.Stage == s {
			return cfg, true
		}
	}
	return StageConfig{}, false
}
