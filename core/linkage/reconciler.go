// Package linkage repairs the cross references between candidates and the students
// they were converted to.
package linkage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/student"
)

const DefaultNameSimilarity = 0.9

type (
	CandidateStore interface {
		QueryCandidates(ctx context.Context, filter candidate.QueryFilter, orderings ...core.DBOrdering) ([]candidate.Candidate, error)
		LinkStudent(ctx context.Context, id, studentID string) error
	}

	StudentStore interface {
		QueryStudents(ctx context.Context, filter student.QueryFilter, orderings ...core.DBOrdering) ([]student.Student, error)
		LinkCandidate(ctx context.Context, id, candidateID string) error
	}

	Options struct {
		// Pause between two writes, to stay under the store's write rate limits.
		Pause time.Duration
		// NameSimilarity is the minimum ratio for two names to be considered the same person.
		NameSimilarity float64
	}

	Reconciler struct {
		candidates CandidateStore
		students   StudentStore
		logger     core.Logger
		opts       Options
	}
)

func NewReconciler(candidates CandidateStore, students StudentStore, logger core.Logger, opts Options) *Reconciler {
	if opts.NameSimilarity <= 0 || opts.NameSimilarity > 1 {
		opts.NameSimilarity = DefaultNameSimilarity
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	return &Reconciler{
		candidates: candidates,
		students:   students,
		logger:     logger,
		opts:       opts,
	}
}

// Plan reads both collections and computes the missing references.
// It writes nothing.
func (r *Reconciler) Plan(ctx context.Context) (Plan, error) {
	cands, err := r.candidates.QueryCandidates(ctx, candidate.QueryFilter{})
	if err != nil {
		return Plan{}, errors.Wrap(err, "loading candidates")
	}
	stds, err := r.students.QueryStudents(ctx, student.QueryFilter{})
	if err != nil {
		return Plan{}, errors.Wrap(err, "loading students")
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].ID < cands[j].ID })
	sort.Slice(stds, func(i, j int) bool { return stds[i].ID < stds[j].ID })

	plan := Plan{Candidates: len(cands), Students: len(stds)}
	candByID := make(map[string]candidate.Candidate, len(cands))
	for _, c := range cands {
		candByID[c.ID] = c
	}
	stdByID := make(map[string]student.Student, len(stds))
	for _, s := range stds {
		stdByID[s.ID] = s
	}

	// records that take part in a link, on either side
	linkedCands := make(map[string]bool)
	linkedStds := make(map[string]bool)

	for _, c := range cands {
		if !c.IsConverted() {
			continue
		}
		linkedCands[c.ID] = true
		linkedStds[c.StudentID.String] = true
		std, ok := stdByID[c.StudentID.String]
		switch {
		case !ok:
			plan.Issues = append(plan.Issues, Issue{
				Kind: IssueDangling, CandidateID: c.ID, StudentID: c.StudentID.String,
				Detail: "candidate references a missing student",
			})
		case !std.HasCandidate():
			plan.Fixes = append(plan.Fixes, Fix{Kind: FixStudentBackRef, CandidateID: c.ID, StudentID: std.ID})
		case std.CandidateID.String != c.ID:
			plan.Issues = append(plan.Issues, Issue{
				Kind: IssueConflict, CandidateID: c.ID, StudentID: std.ID,
				Detail: fmt.Sprintf("student references candidate %s instead", std.CandidateID.String),
			})
		}
	}

	for _, s := range stds {
		if !s.HasCandidate() {
			continue
		}
		linkedStds[s.ID] = true
		linkedCands[s.CandidateID.String] = true
		cand, ok := candByID[s.CandidateID.String]
		switch {
		case !ok:
			plan.Issues = append(plan.Issues, Issue{
				Kind: IssueDangling, CandidateID: s.CandidateID.String, StudentID: s.ID,
				Detail: "student references a missing candidate",
			})
		case !cand.IsConverted():
			plan.Fixes = append(plan.Fixes, Fix{Kind: FixCandidateBackRef, CandidateID: cand.ID, StudentID: s.ID})
		case cand.StudentID.String != s.ID:
			plan.Issues = append(plan.Issues, Issue{
				Kind: IssueConflict, CandidateID: cand.ID, StudentID: s.ID,
				Detail: fmt.Sprintf("candidate references student %s instead", cand.StudentID.String),
			})
		}
	}

	var enrolled []candidate.Candidate
	for _, c := range cands {
		if c.Status == candidate.StatusEnrolled && !linkedCands[c.ID] {
			enrolled = append(enrolled, c)
		}
	}
	var unlinked []student.Student
	for _, s := range stds {
		if !linkedStds[s.ID] {
			unlinked = append(unlinked, s)
		}
	}
	fixes, issues := r.match(enrolled, unlinked)
	plan.Fixes = append(plan.Fixes, fixes...)
	plan.Issues = append(plan.Issues, issues...)
	return plan, nil
}

// match pairs enrolled candidates with unlinked students, by email first, then by name.
// Only one-to-one matches are kept.
func (r *Reconciler) match(cands []candidate.Candidate, stds []student.Student) ([]Fix, []Issue) {
	var (
		fixes   []Fix
		issues  []Issue
		claimed = make(map[string]bool) // student ids
		pending []candidate.Candidate
	)

	byEmail := make(map[string][]student.Student)
	candsByEmail := make(map[string]int)
	for _, s := range stds {
		if email := core.CleanString(s.Email, true); email != "" {
			byEmail[email] = append(byEmail[email], s)
		}
	}
	for _, c := range cands {
		if email := core.CleanString(c.Email, true); email != "" {
			candsByEmail[email]++
		}
	}

	for _, c := range cands {
		email := core.CleanString(c.Email, true)
		matches := byEmail[email]
		switch {
		case email == "" || len(matches) == 0:
			pending = append(pending, c)
		case len(matches) > 1 || candsByEmail[email] > 1:
			issues = append(issues, Issue{Kind: IssueAmbiguous, CandidateID: c.ID, Detail: "several records share the email " + email})
		default:
			claimed[matches[0].ID] = true
			fixes = append(fixes, Fix{Kind: FixMatch, CandidateID: c.ID, StudentID: matches[0].ID, Reason: "same email"})
		}
	}

	// name matching only considers students that were not matched by email
	var free []student.Student
	for _, s := range stds {
		if !claimed[s.ID] {
			free = append(free, s)
		}
	}
	suitors := make(map[string][]string) // student id -> candidate ids
	best := make(map[string]student.Student)
	for _, c := range pending {
		var found []student.Student
		for _, s := range free {
			if nameSimilarity(c.Name, s.Name) >= r.opts.NameSimilarity {
				found = append(found, s)
			}
		}
		switch len(found) {
		case 0:
			issues = append(issues, Issue{Kind: IssueUnmatched, CandidateID: c.ID, Detail: "enrolled candidate without a student"})
		case 1:
			best[c.ID] = found[0]
			suitors[found[0].ID] = append(suitors[found[0].ID], c.ID)
		default:
			issues = append(issues, Issue{Kind: IssueAmbiguous, CandidateID: c.ID, Detail: fmt.Sprintf("%d students have a similar name", len(found))})
		}
	}
	for _, c := range pending {
		s, ok := best[c.ID]
		if !ok {
			continue
		}
		if len(suitors[s.ID]) > 1 {
			issues = append(issues, Issue{Kind: IssueAmbiguous, CandidateID: c.ID, StudentID: s.ID, Detail: "several candidates have a similar name"})
			continue
		}
		fixes = append(fixes, Fix{Kind: FixMatch, CandidateID: c.ID, StudentID: s.ID, Reason: "similar name"})
	}
	return fixes, issues
}

// nameSimilarity is the difflib ratio of the normalized names, between 0 and 1.
func nameSimilarity(a, b string) float64 {
	a = strings.Join(strings.Fields(strings.ToLower(a)), " ")
	b = strings.Join(strings.Fields(strings.ToLower(b)), " ")
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// Apply writes the fixes of plan one at a time, pausing between writes.
// Failed writes are logged and counted; only a cancelled ctx stops the run.
func (r *Reconciler) Apply(ctx context.Context, plan Plan) (Result, error) {
	var res Result
	first := true
	write := func(desc string, fn func() error) error {
		if !first {
			if err := r.pause(ctx); err != nil {
				return err
			}
		}
		first = false
		if err := fn(); err != nil {
			res.Failed++
			r.logger.Error("linking records: "+desc, err)
			return nil
		}
		res.Writes++
		return nil
	}

	for _, fix := range plan.Fixes {
		fix := fix
		failed := res.Failed
		if fix.Kind == FixStudentBackRef || fix.Kind == FixMatch {
			desc := fmt.Sprintf("student %s -> candidate %s", fix.StudentID, fix.CandidateID)
			if err := write(desc, func() error { return r.students.LinkCandidate(ctx, fix.StudentID, fix.CandidateID) }); err != nil {
				return res, err
			}
		}
		if fix.Kind == FixCandidateBackRef || fix.Kind == FixMatch {
			desc := fmt.Sprintf("candidate %s -> student %s", fix.CandidateID, fix.StudentID)
			if err := write(desc, func() error { return r.candidates.LinkStudent(ctx, fix.CandidateID, fix.StudentID) }); err != nil {
				return res, err
			}
		}
		if res.Failed == failed {
			res.Applied++
		}
	}
	r.logger.Info(fmt.Sprintf("linked records: %d fixes applied, %d writes failed", res.Applied, res.Failed))
	return res, nil
}

func (r *Reconciler) pause(ctx context.Context) error {
	if r.opts.Pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.opts.Pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
