package linkage

type FixKind string

const (
	// FixStudentBackRef sets the student's candidate reference.
	FixStudentBackRef FixKind = "student_back_reference"
	// FixCandidateBackRef sets the candidate's student reference.
	FixCandidateBackRef FixKind = "candidate_back_reference"
	// FixMatch links an enrolled candidate and a student on both sides.
	FixMatch FixKind = "match"
)

type IssueKind string

const (
	IssueDangling  IssueKind = "dangling"
	IssueConflict  IssueKind = "conflict"
	IssueAmbiguous IssueKind = "ambiguous"
	IssueUnmatched IssueKind = "unmatched"
)

type Fix struct {
	Kind        FixKind `json:"kind"`
	CandidateID string  `json:"candidate_id"`
	StudentID   string  `json:"student_id"`
	Reason      string  `json:"reason,omitempty"`
}

// Issue is a problem the reconciliation reports but does not repair.
type Issue struct {
	Kind        IssueKind `json:"kind"`
	CandidateID string    `json:"candidate_id,omitempty"`
	StudentID   string    `json:"student_id,omitempty"`
	Detail      string    `json:"detail"`
}

type Plan struct {
	Candidates int     `json:"candidates"`
	Students   int     `json:"students"`
	Fixes      []Fix   `json:"fixes"`
	Issues     []Issue `json:"issues"`
}

func (p Plan) IsEmpty() bool { return len(p.Fixes) == 0 }

type Result struct {
	Applied int `json:"applied"` // fixes fully written
	Writes  int `json:"writes"`
	Failed  int `json:"failed"` // failed writes
}
