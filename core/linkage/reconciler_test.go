package linkage_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/linkage"
	"github.com/trezcool/bolsa/core/student"
	logsvc "github.com/trezcool/bolsa/services/logger"
	inmemdb "github.com/trezcool/bolsa/storage/database/inmem"
	testutil "github.com/trezcool/bolsa/tests"
)

type fixture struct {
	cands candidate.Repository
	stds  student.Repository
}

func newFixture() fixture {
	db := inmemdb.Open()
	return fixture{cands: inmemdb.NewCandidateRepository(db), stds: inmemdb.NewStudentRepository(db)}
}

func (f fixture) reconciler(opts linkage.Options) *linkage.Reconciler {
	return linkage.NewReconciler(f.cands, f.stds, logsvc.NewMemoryLogger(), opts)
}

func TestReconciler_Plan(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// consistent pair: nothing to do
	okCand := testutil.CreateCandidate(t, f.cands, "Ana Mussa", "ana@example.com", candidate.StatusEnrolled, "")
	okStd := testutil.CreateStudent(t, f.stds, "Ana Mussa", "ana@example.com", student.CohortTuition, okCand.ID)
	require.NoError(t, f.cands.LinkStudent(ctx, okCand.ID, okStd.ID))

	// candidate -> student only
	std1 := testutil.CreateStudent(t, f.stds, "Bruno Cossa", "", student.CohortTuition, "")
	cand1 := testutil.CreateCandidate(t, f.cands, "Bruno Cossa", "", candidate.StatusEnrolled, std1.ID)

	// student -> candidate only
	cand2 := testutil.CreateCandidate(t, f.cands, "Carla Sitoe", "", candidate.StatusAccepted, "")
	std2 := testutil.CreateStudent(t, f.stds, "Carla Sitoe", "", student.CohortSponsorship, cand2.ID)

	// dangling references
	dangCand := testutil.CreateCandidate(t, f.cands, "Dario Nhaca", "", candidate.StatusEnrolled, "deleted-student")
	dangStd := testutil.CreateStudent(t, f.stds, "Eva Langa", "", student.CohortTuition, "deleted-candidate")

	// unlinked, matched by email then by name
	cand3 := testutil.CreateCandidate(t, f.cands, "Fatima Chauque", "FATIMA@example.com", candidate.StatusEnrolled, "")
	std3 := testutil.CreateStudent(t, f.stds, "Fátima C.", "fatima@example.com", student.CohortTuition, "")
	cand4 := testutil.CreateCandidate(t, f.cands, "Gildo  Mabunda", "", candidate.StatusEnrolled, "")
	std4 := testutil.CreateStudent(t, f.stds, "gildo mabunda", "other@example.com", student.CohortTuition, "")

	// enrolled without any student, and a not enrolled candidate that is left alone
	lonely := testutil.CreateCandidate(t, f.cands, "Helena Zunguze", "", candidate.StatusEnrolled, "")
	testutil.CreateCandidate(t, f.cands, "Ivo Macuacua", "", candidate.StatusPending, "")

	plan, err := f.reconciler(linkage.Options{}).Plan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, plan.Candidates)
	assert.Equal(t, 6, plan.Students)

	assert.ElementsMatch(t, []linkage.Fix{
		{Kind: linkage.FixStudentBackRef, CandidateID: cand1.ID, StudentID: std1.ID},
		{Kind: linkage.FixCandidateBackRef, CandidateID: cand2.ID, StudentID: std2.ID},
		{Kind: linkage.FixMatch, CandidateID: cand3.ID, StudentID: std3.ID, Reason: "same email"},
		{Kind: linkage.FixMatch, CandidateID: cand4.ID, StudentID: std4.ID, Reason: "similar name"},
	}, plan.Fixes)

	issues := make(map[string]linkage.IssueKind)
	for _, is := range plan.Issues {
		issues[is.CandidateID+"|"+is.StudentID] = is.Kind
	}
	assert.Len(t, issues, 3)
	assert.Equal(t, linkage.IssueDangling, issues[dangCand.ID+"|deleted-student"])
	assert.Equal(t, linkage.IssueDangling, issues["deleted-candidate|"+dangStd.ID])
	assert.Equal(t, linkage.IssueUnmatched, issues[lonely.ID+"|"])
}

func TestReconciler_Plan_ambiguous(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	cand := testutil.CreateCandidate(t, f.cands, "Maria Jose", "", candidate.StatusEnrolled, "")
	testutil.CreateStudent(t, f.stds, "Maria Jose", "", student.CohortTuition, "")
	testutil.CreateStudent(t, f.stds, "maria  jose", "", student.CohortTuition, "")

	shared := testutil.CreateCandidate(t, f.cands, "Nelson", "same@example.com", candidate.StatusEnrolled, "")
	testutil.CreateStudent(t, f.stds, "Nelson A", "same@example.com", student.CohortTuition, "")
	testutil.CreateStudent(t, f.stds, "Nelson B", "Same@example.com", student.CohortTuition, "")

	plan, err := f.reconciler(linkage.Options{}).Plan(ctx)
	require.NoError(t, err)
	assert.Empty(t, plan.Fixes)

	ambiguous := make(map[string]bool)
	for _, is := range plan.Issues {
		if is.Kind == linkage.IssueAmbiguous {
			ambiguous[is.CandidateID] = true
		}
	}
	assert.True(t, ambiguous[cand.ID])
	assert.True(t, ambiguous[shared.ID])
}

func TestReconciler_Apply(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	std1 := testutil.CreateStudent(t, f.stds, "Bruno Cossa", "", student.CohortTuition, "")
	cand1 := testutil.CreateCandidate(t, f.cands, "Bruno Cossa", "", candidate.StatusEnrolled, std1.ID)
	cand2 := testutil.CreateCandidate(t, f.cands, "Fatima Chauque", "fatima@example.com", candidate.StatusEnrolled, "")
	std2 := testutil.CreateStudent(t, f.stds, "Fatima", "fatima@example.com", student.CohortTuition, "")

	rec := f.reconciler(linkage.Options{Pause: time.Millisecond})
	plan, err := rec.Plan(ctx)
	require.NoError(t, err)
	require.Len(t, plan.Fixes, 2)

	res, err := rec.Apply(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, linkage.Result{Applied: 2, Writes: 3}, res)

	got1, _ := f.stds.GetStudentByID(ctx, std1.ID)
	assert.Equal(t, cand1.ID, got1.CandidateID.String)
	got2, _ := f.cands.GetCandidateByID(ctx, cand2.ID)
	assert.Equal(t, std2.ID, got2.StudentID.String)
	got3, _ := f.stds.GetStudentByID(ctx, std2.ID)
	assert.Equal(t, cand2.ID, got3.CandidateID.String)

	// a second run has nothing left to do
	plan, err = rec.Plan(ctx)
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())
	assert.Empty(t, plan.Issues)
}

type failingStudents struct {
	student.Repository
}

func (failingStudents) LinkCandidate(context.Context, string, string) error {
	return errors.New("write quota exceeded")
}

func TestReconciler_Apply_failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	logger := logsvc.NewMemoryLogger()
	rec := linkage.NewReconciler(f.cands, failingStudents{f.stds}, logger, linkage.Options{})

	plan := linkage.Plan{Fixes: []linkage.Fix{
		{Kind: linkage.FixStudentBackRef, CandidateID: "c1", StudentID: "s1"},
		{Kind: linkage.FixCandidateBackRef, CandidateID: "missing", StudentID: "s2"},
	}}
	res, err := rec.Apply(ctx, plan)
	require.NoError(t, err, "write failures do not abort the run")
	assert.Equal(t, linkage.Result{Failed: 2}, res)
	assert.True(t, logger.Contains("write quota exceeded"))
}

func TestReconciler_Apply_cancelled(t *testing.T) {
	f := newFixture()
	s1 := testutil.CreateStudent(t, f.stds, "A", "", student.CohortTuition, "")
	s2 := testutil.CreateStudent(t, f.stds, "B", "", student.CohortTuition, "")
	rec := f.reconciler(linkage.Options{Pause: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	res, err := rec.Apply(ctx, linkage.Plan{Fixes: []linkage.Fix{
		{Kind: linkage.FixStudentBackRef, CandidateID: "c1", StudentID: s1.ID},
		{Kind: linkage.FixStudentBackRef, CandidateID: "c2", StudentID: s2.ID},
	}})
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, res.Applied)
}
