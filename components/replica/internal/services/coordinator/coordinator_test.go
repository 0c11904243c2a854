package coordinator

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	replicadom "github.com/thirdway-labs/modelctl/components/replica/internal/domain/replica"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLog is an in-memory replicadom.WriteLog for tests.
type fakeLog struct {
	records []mmodel.WriteLogRecord
}

func (f *fakeLog) Append(_ context.Context, rec mmodel.WriteLogRecord) (mmodel.WriteLogRecord, error) {
	rec.Seq = int64(len(f.records) + 1)
	f.records = append(f.records, rec)

	return rec, nil
}

func (f *fakeLog) Replay(_ context.Context) ([]mmodel.WriteLogRecord, error) {
	return f.records, nil
}

// fakeLease is a Lease that always grants the claim and reports Reachable
// as configured.
type fakeLease struct {
	reachable bool
}

func (l *fakeLease) Acquire(_ context.Context, _ string) (bool, error) { return true, nil }
func (l *fakeLease) Renew(_ context.Context, _ string) (bool, error)   { return true, nil }
func (l *fakeLease) Release(_ context.Context, _ string) error         { return nil }
func (l *fakeLease) Reachable(_ context.Context) bool                 { return l.reachable }

// fakeModelRepo implements just enough of catalogdomain.ModelRepository for
// Coordinator.Save to exercise against.
type fakeModelRepo struct {
	models map[uuid.UUID]*mmodel.Model
}

func newFakeModelRepo() *fakeModelRepo {
	return &fakeModelRepo{models: make(map[uuid.UUID]*mmodel.Model)}
}

func (r *fakeModelRepo) Create(_ context.Context, m *mmodel.Model) (*mmodel.Model, error) {
	id := uuid.New()
	m.ID = id.String()
	r.models[id] = m

	return m, nil
}

func (r *fakeModelRepo) Update(_ context.Context, id uuid.UUID, m *mmodel.Model) (*mmodel.Model, error) {
	r.models[id] = m
	return m, nil
}

func (r *fakeModelRepo) Find(_ context.Context, id uuid.UUID) (*mmodel.Model, error) {
	m, ok := r.models[id]
	if !ok {
		return nil, assert.AnError
	}

	return m, nil
}

func (r *fakeModelRepo) FindByOwnerAndName(_ context.Context, _ uuid.UUID, _ string) (*mmodel.Model, error) {
	return nil, assert.AnError
}

func (r *fakeModelRepo) ListVisible(_ context.Context, _ uuid.UUID, _ []uuid.UUID, _ mmodel.ModelFilter, _, _ int) ([]*mmodel.Model, error) {
	return nil, nil
}

func (r *fakeModelRepo) ListPublic(_ context.Context, _ mmodel.ModelFilter, _, _ int) ([]*mmodel.Model, error) {
	return nil, nil
}

func (r *fakeModelRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.models, id)
	return nil
}

func newTestCoordinator(mode Mode, reachable bool) (*Coordinator, *fakeLog) {
	log := &fakeLog{}

	return &Coordinator{
		DeploymentID: "dep-1",
		Mode:         mode,
		Snapshot:     replicadom.NewSnapshot(),
		Log:          log,
		Lease:        &fakeLease{reachable: reachable},
		ModelRepo:    newFakeModelRepo(),
	}, log
}

func TestInsert_DevelopmentModeAppliesSynchronouslyAndAccepts(t *testing.T) {
	c, log := newTestCoordinator(ModeDevelopment, true)

	accepted, err := c.Insert(context.Background(), "alice", InsertInput{SourceID: "doc-1", Text: "hello"}, nil)

	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Len(t, c.Snapshot.Documents(), 1)
	assert.Empty(t, log.records, "development mode must not touch the durable log")
}

func TestInsert_ProductionModeBuffersAndReturns202Equivalent(t *testing.T) {
	c, log := newTestCoordinator(ModeProduction, true)

	accepted, err := c.Insert(context.Background(), "alice", InsertInput{SourceID: "doc-1", Text: "hello"}, []byte(`{}`))

	require.NoError(t, err)
	assert.False(t, accepted, "production-mode writes are not yet visible to reads")
	assert.Empty(t, c.Snapshot.Documents(), "not applied until replay")
	require.Len(t, log.records, 1)
	assert.Equal(t, mmodel.WriteOpInsert, log.records[0].Op)
}

func TestAcceptWrite_ProductionModeRejectsWhenLeaseUnreachable(t *testing.T) {
	c, _ := newTestCoordinator(ModeProduction, false)

	_, err := c.Insert(context.Background(), "alice", InsertInput{SourceID: "doc-1", Text: "hello"}, nil)

	require.Error(t, err)
}

func TestReplay_AppliesOnlyNewRecordsEachCall(t *testing.T) {
	c, _ := newTestCoordinator(ModeProduction, true)
	ctx := context.Background()

	_, err := c.Insert(ctx, "alice", InsertInput{SourceID: "doc-1", Text: "hello"}, []byte(`{"sourceId":"doc-1","text":"hello"}`))
	require.NoError(t, err)

	require.NoError(t, c.Replay(ctx))
	assert.Len(t, c.Snapshot.Documents(), 1)

	// A second Replay with no new records must not double-apply or error.
	require.NoError(t, c.Replay(ctx))
	assert.Len(t, c.Snapshot.Documents(), 1)

	_, err = c.Insert(ctx, "alice", InsertInput{SourceID: "doc-2", Text: "world"}, []byte(`{"sourceId":"doc-2","text":"world"}`))
	require.NoError(t, err)
	require.NoError(t, c.Replay(ctx))
	assert.Len(t, c.Snapshot.Documents(), 2)
}

func TestSave_CreateAsNewParentsToSource(t *testing.T) {
	c, _ := newTestCoordinator(ModeDevelopment, true)
	ctx := context.Background()

	owner := uuid.New()
	source, err := c.ModelRepo.Create(ctx, &mmodel.Model{Name: "base", OwnerUserID: owner.String(), TrainState: mmodel.StateComplete})
	require.NoError(t, err)
	sourceID, err := uuid.Parse(source.ID)
	require.NoError(t, err)

	saved, err := c.Save(ctx, owner, sourceID, SaveInput{ModelName: "copy"})

	require.NoError(t, err)
	require.NotNil(t, saved.ParentModelID)
	assert.Equal(t, source.ID, *saved.ParentModelID)
	assert.Equal(t, "copy", saved.Name)
	assert.NotEqual(t, source.ID, saved.ID)
}

func TestSave_OverrideInPlaceReturnsSourceModel(t *testing.T) {
	c, _ := newTestCoordinator(ModeDevelopment, true)
	ctx := context.Background()

	owner := uuid.New()
	source, err := c.ModelRepo.Create(ctx, &mmodel.Model{Name: "base", OwnerUserID: owner.String(), TrainState: mmodel.StateComplete})
	require.NoError(t, err)
	sourceID, err := uuid.Parse(source.ID)
	require.NoError(t, err)

	saved, err := c.Save(ctx, owner, sourceID, SaveInput{Override: true})

	require.NoError(t, err)
	assert.Equal(t, source.ID, saved.ID)
}
