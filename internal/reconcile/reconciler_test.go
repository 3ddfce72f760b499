package reconcile

import (
	"context"
	"testing"

	"github.com/RevCBH/veeamjob/internal/executor"
	"github.com/RevCBH/veeamjob/internal/jobspec"
	"github.com/RevCBH/veeamjob/internal/testutil"
	"github.com/RevCBH/veeamjob/internal/veeam"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	createArgs  = "job create fileLevel --name nightly --includeDirs /srv/data --repoName repo1"
	infoArgs    = "job info --name nightly"
	showArgs    = "schedule show --jobName nightly"
	existsLine  = "Job [nightly] already exists."
	createdLine = "Backup job has been created successfully."
	editedLine  = "Backup job has been modified successfully."
	schedLine   = "Schedule has been set successfully."
)

const liveInfo = `Job info:
  Name: nightly
  Repository name: repo1
  Include Directory: /srv/data
  Max points: 14
`

const liveWeekly = `Schedule for job [nightly]:
  Days: Monday, Friday
  At: 20:00
`

func strPtr(s string) *string { return &s }

func pointsPtr(n int) *jobspec.Points {
	p := jobspec.Points(n)
	return &p
}

func presentRequest() jobspec.Request {
	return jobspec.Request{
		Type:        jobspec.TypeJob,
		State:       jobspec.StatePresent,
		Name:        "nightly",
		RepoName:    "repo1",
		IncludeDirs: "/srv/data",
	}
}

func newReconciler(runner *testutil.StubRunner, opts ...Option) *Reconciler {
	return New(veeam.NewClient(runner, "", nil), opts...)
}

func TestReconcile_List(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubOK("job list", "Name  ID    Type    Repository\nnightly  {1}  Backup  repo1\nweekly  {2}  Backup  repo1\n\n")

	out, err := newReconciler(runner).Reconcile(context.Background(), jobspec.Request{Type: jobspec.TypeList})
	require.NoError(t, err)

	assert.Equal(t, []string{"nightly", "weekly"}, out.Jobs)
	assert.False(t, out.Changed)
	assert.Equal(t, []Action{ActionList}, out.Actions)
}

func TestReconcile_ListFailureIsFatal(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail("job list", 1, "Failed to connect to veeamservice.\nDetails follow.\n")

	_, err := newReconciler(runner).Reconcile(context.Background(), jobspec.Request{Type: jobspec.TypeList})
	require.Error(t, err)

	var fe *FailureError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ActionList, fe.Action)
	assert.Equal(t, "Failed to connect to veeamservice.\nDetails follow.\n", fe.Message)
	assert.True(t, errors.Is(err, veeam.ErrToolFailure))
}

func TestReconcile_CreateNewJob(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubOK(createArgs, createdLine+"\nJob ID: {1}\n")

	out, err := newReconciler(runner).Reconcile(context.Background(), presentRequest())
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, createdLine, out.Message)
	assert.Equal(t, StateExistsConverged, out.State)
	assert.Equal(t, []string{createArgs}, runner.Calls())
}

func TestReconcile_CreateGenericFailureIsFatal(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail(createArgs, 1, "Repository [repo1] not found.\n")

	out, err := newReconciler(runner).Reconcile(context.Background(), presentRequest())
	require.Error(t, err)

	var fe *FailureError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Repository [repo1] not found.", fe.Message)
	assert.False(t, out.Changed)
	assert.Equal(t, []string{createArgs}, runner.Calls(), "no further calls after a generic failure")
}

func TestReconcile_ExistingIdenticalJobIsNoop(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail(createArgs+" --maxPoints 14", 1, existsLine+"\n")
	runner.StubOK(infoArgs, liveInfo)
	runner.StubFail(showArgs, 1, "No schedule.\n")

	req := presentRequest()
	req.MaxPoints = pointsPtr(14)

	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Equal(t, existsLine, out.Message)
	assert.Equal(t, StateExistsConverged, out.State)
	assert.Empty(t, out.Diffs)
	assert.Equal(t, []Action{ActionCreate, ActionFetch}, out.Actions)
}

func TestReconcile_ComparisonIgnoresCaseAndSpaces(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail("job create fileLevel --name nightly --includeDirs /srv/data --repoName REPO1 --weekdays monday,friday --at 20:00", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubOK(showArgs, liveWeekly)

	req := presentRequest()
	req.RepoName = "REPO1"
	req.RunDays = strPtr("monday,friday")
	req.RunAt = strPtr("20:00")

	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Empty(t, out.Diffs)
}

func TestReconcile_RepoDiffIssuesEdit(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail("job create fileLevel --name nightly --includeDirs /srv/data --repoName repo2", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubOK(showArgs, liveWeekly)
	runner.StubOK("job edit fileLevel --includeDirs /srv/data --repoName repo2 for --name nightly", editedLine+"\n")

	req := presentRequest()
	req.RepoName = "repo2"

	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, editedLine, out.Message)
	assert.Equal(t, []Action{ActionCreate, ActionFetch, ActionEdit}, out.Actions)
	assert.Equal(t, []string{
		"job create fileLevel --name nightly --includeDirs /srv/data --repoName repo2",
		infoArgs,
		showArgs,
		"job edit fileLevel --includeDirs /srv/data --repoName repo2 for --name nightly",
	}, runner.Calls(), "schedule is unmanaged, no schedule call")
	assert.Equal(t, []Difference{{Key: jobspec.KeyRepoName, Live: "repo1", Desired: "repo2"}}, out.Diffs)
}

func TestReconcile_RunAtDiffIssuesScheduleSet(t *testing.T) {
	tests := []struct {
		name     string
		runDays  string
		wantArgs string
	}{
		{"weekdays", "Monday,Friday", "schedule set --jobName nightly --weekdays Monday,Friday --at 22:00"},
		{"daily", "All", "schedule set --jobName nightly --daily --at 22:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			liveSchedule := liveWeekly
			createSchedule := "--weekdays Monday,Friday"
			if tt.runDays == "All" {
				liveSchedule = "  Every day\n  At: 20:00\n"
				createSchedule = "--daily"
			}

			runner := testutil.NewStubRunner()
			runner.StubFail(createArgs+" "+createSchedule+" --at 22:00", 1, existsLine)
			runner.StubOK(infoArgs, liveInfo)
			runner.StubOK(showArgs, liveSchedule)
			runner.StubOK(tt.wantArgs, schedLine)

			req := presentRequest()
			req.RunDays = strPtr(tt.runDays)
			req.RunAt = strPtr("22:00")

			out, err := newReconciler(runner).Reconcile(context.Background(), req)
			require.NoError(t, err)

			assert.True(t, out.Changed)
			assert.Equal(t, schedLine, out.Message)
			assert.Equal(t, 1, runner.CallsFor(tt.wantArgs))
			assert.Len(t, runner.Calls(), 4, "create, info, show, schedule set")
			assert.Equal(t, []Difference{{Key: jobspec.KeyRunAt, Live: "20:00", Desired: "22:00"}}, out.Diffs)
		})
	}
}

func TestReconcile_FirstDivergenceCorrectsOneGroup(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail(createArgs+" --maxPoints 7 --weekdays Monday,Friday --at 22:00", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubOK(showArgs, liveWeekly)
	runner.StubOK("schedule set --jobName nightly --weekdays Monday,Friday --at 22:00", schedLine)

	req := presentRequest()
	req.MaxPoints = pointsPtr(7)
	req.RunDays = strPtr("Monday,Friday")
	req.RunAt = strPtr("22:00")

	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, StateExistsDivergent, out.State, "job attributes still differ")
	require.Len(t, out.Diffs, 2)
	assert.Equal(t, jobspec.KeyRunAt, out.Diffs[0].Key)
	assert.Equal(t, jobspec.KeyMaxPoints, out.Diffs[1].Key)
	assert.Equal(t, []Action{ActionCreate, ActionFetch, ActionSchedule}, out.Actions)
	assert.Equal(t, schedLine, out.Message)
	assert.Len(t, runner.Calls(), 4, "exactly one corrective call")
}

func TestReconcile_ScheduleCorrectedBeforeRepository(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail("job create fileLevel --name nightly --includeDirs /srv/data --repoName repo2 --weekdays Monday,Friday --at 22:00", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubOK(showArgs, liveWeekly)
	runner.StubOK("schedule set --jobName nightly --weekdays Monday,Friday --at 22:00", schedLine)

	req := presentRequest()
	req.RepoName = "repo2"
	req.RunDays = strPtr("Monday,Friday")
	req.RunAt = strPtr("22:00")

	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []Difference{
		{Key: jobspec.KeyRunAt, Live: "20:00", Desired: "22:00"},
		{Key: jobspec.KeyRepoName, Live: "repo1", Desired: "repo2"},
	}, out.Diffs)
	assert.Equal(t, 1, runner.CallsFor("schedule", "set", "--jobName", "nightly", "--weekdays", "Monday,Friday", "--at", "22:00"))
	assert.Equal(t, 0, runner.CallsFor("job", "edit", "fileLevel", "--includeDirs", "/srv/data", "--repoName", "repo2", "for", "--name", "nightly"))
}

func TestReconcile_ConvergeCorrectsEveryGroup(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail(createArgs+" --maxPoints 7 --weekdays Monday,Friday --at 22:00", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubOK(showArgs, liveWeekly)
	runner.StubOK("job edit fileLevel --includeDirs /srv/data --repoName repo1 --maxPoints 7 for --name nightly", editedLine)
	runner.StubOK("schedule set --jobName nightly --weekdays Monday,Friday --at 22:00", schedLine)

	req := presentRequest()
	req.MaxPoints = pointsPtr(7)
	req.RunDays = strPtr("Monday,Friday")
	req.RunAt = strPtr("22:00")

	out, err := newReconciler(runner, WithPolicy(PolicyConverge)).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, StateExistsConverged, out.State)
	assert.Equal(t, editedLine, out.Message)
	assert.Equal(t, []Action{ActionCreate, ActionFetch, ActionSchedule, ActionEdit}, out.Actions)
}

func TestReconcile_CorrectionFailureIsNotFatal(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail("job create fileLevel --name nightly --includeDirs /srv/data --repoName repo9", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubOK(showArgs, liveWeekly)
	runner.StubFail("job edit fileLevel --includeDirs /srv/data --repoName repo9 for --name nightly", 1, "Repository [repo9] not found.\n")

	req := presentRequest()
	req.RepoName = "repo9"

	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Equal(t, "Repository [repo9] not found.", out.Message)
	assert.Equal(t, StateExistsDivergent, out.State)
}

func TestReconcile_MissingLiveScheduleIsADifference(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail(createArgs+" --daily --at 01:00", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubFail(showArgs, 1, "No schedule.")
	runner.StubOK("schedule set --jobName nightly --daily --at 01:00", schedLine)

	req := presentRequest()
	req.RunDays = strPtr("All")
	req.RunAt = strPtr("01:00")

	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, out.Changed)
	require.Len(t, out.Diffs, 2)
	assert.Equal(t, jobspec.KeyRunDays, out.Diffs[0].Key)
	assert.Equal(t, "", out.Diffs[0].Live)
}

func TestReconcile_FetchFailureIsFatal(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail(createArgs, 1, existsLine)
	runner.StubFail(infoArgs, 1, "Access denied.")

	_, err := newReconciler(runner).Reconcile(context.Background(), presentRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, veeam.ErrToolFailure))
}

func TestReconcile_Idempotent(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubOK(createArgs, createdLine)
	runner.StubFail(createArgs, 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubFail(showArgs, 1, "No schedule.")

	rec := newReconciler(runner)

	first, err := rec.Reconcile(context.Background(), presentRequest())
	require.NoError(t, err)
	second, err := rec.Reconcile(context.Background(), presentRequest())
	require.NoError(t, err)

	assert.True(t, first.Changed)
	assert.False(t, second.Changed)
}

func TestReconcile_DeleteExisting(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubOK("job delete --name nightly", "Job has been deleted successfully.\n")

	req := jobspec.Request{Type: jobspec.TypeJob, State: jobspec.StateAbsent, Name: "nightly"}
	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, StateDeleted, out.State)
	assert.Equal(t, "Job has been deleted successfully.", out.Message)
}

func TestReconcile_DeleteMissingSurfacesToolMessage(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.StubFail("job delete --name nightly", 1, "Job [nightly] not found.\n")

	req := jobspec.Request{Type: jobspec.TypeJob, State: jobspec.StateAbsent, Name: "nightly"}
	out, err := newReconciler(runner).Reconcile(context.Background(), req)
	require.Error(t, err)

	var fe *FailureError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Job [nightly] not found.", fe.Message)
	assert.False(t, out.Changed)
}

func TestReconcile_RunnerErrorPropagates(t *testing.T) {
	runner := testutil.NewStubRunner()
	runner.Stub(createArgs, executor.Result{}, errors.New("exec: not found"))

	_, err := newReconciler(runner).Reconcile(context.Background(), presentRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReconcile_UnknownType(t *testing.T) {
	runner := testutil.NewStubRunner()

	_, err := newReconciler(runner).Reconcile(context.Background(), jobspec.Request{Type: "backup"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, jobspec.ErrInvalidRequest))
	assert.Empty(t, runner.Calls())
}

func TestReconcile_LogsCorrections(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	runner := testutil.NewStubRunner()
	runner.StubFail("job create fileLevel --name nightly --includeDirs /srv/data --repoName repo2", 1, existsLine)
	runner.StubOK(infoArgs, liveInfo)
	runner.StubOK(showArgs, liveWeekly)
	runner.StubOK("job edit fileLevel --includeDirs /srv/data --repoName repo2 for --name nightly", editedLine)

	req := presentRequest()
	req.RepoName = "repo2"

	_, err := newReconciler(runner, WithLogger(zap.New(core))).Reconcile(context.Background(), req)
	require.NoError(t, err)

	diffs := logs.FilterMessage("attribute differs").All()
	require.Len(t, diffs, 1)
	assert.Equal(t, "reponame", diffs[0].ContextMap()["key"])
	assert.Equal(t, 1, logs.FilterMessage("job corrected").Len())
}
