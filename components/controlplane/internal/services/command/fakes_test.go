package command

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// sha256Hex hashes raw the same way command.RequestPasswordReset/CompletePasswordReset do.
func sha256Hex(raw string) string {
	digest := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(digest[:])
}

// fakeUserRepo is an in-memory identitydomain.UserRepository for command tests.
type fakeUserRepo struct {
	byID    map[string]*mmodel.User
	created []*mmodel.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*mmodel.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *mmodel.User) (*mmodel.User, error) {
	u.ID = uuid.New().String()
	r.byID[u.ID] = u
	r.created = append(r.created, u)

	return u, nil
}

func (r *fakeUserRepo) Update(_ context.Context, id uuid.UUID, u *mmodel.User) (*mmodel.User, error) {
	u.ID = id.String()
	r.byID[u.ID] = u

	return u, nil
}

func (r *fakeUserRepo) Find(_ context.Context, id uuid.UUID) (*mmodel.User, error) {
	u, ok := r.byID[id.String()]
	if !ok {
		return nil, errNotFound{}
	}

	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*mmodel.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}

	return nil, errNotFound{}
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*mmodel.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}

	return nil, errNotFound{}
}

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

// fakeResetCodeRepo is an in-memory identitydomain.ResetCodeRepository.
type fakeResetCodeRepo struct {
	codes map[string]*mmodel.ResetCode
}

func newFakeResetCodeRepo() *fakeResetCodeRepo {
	return &fakeResetCodeRepo{codes: make(map[string]*mmodel.ResetCode)}
}

func (r *fakeResetCodeRepo) Put(_ context.Context, code *mmodel.ResetCode) error {
	r.codes[code.UserID] = code
	return nil
}

func (r *fakeResetCodeRepo) Find(_ context.Context, userID uuid.UUID) (*mmodel.ResetCode, error) {
	c, ok := r.codes[userID.String()]
	if !ok {
		return nil, nil
	}

	return c, nil
}

func (r *fakeResetCodeRepo) MarkUsed(_ context.Context, userID uuid.UUID) error {
	if c, ok := r.codes[userID.String()]; ok {
		c.Used = true
	}

	return nil
}

// fakeModelRepo is an in-memory catalogdomain.ModelRepository for command tests.
type fakeModelRepo struct {
	byID        map[string]*mmodel.Model
	byOwnerName map[string]*mmodel.Model
}

func newFakeModelRepo() *fakeModelRepo {
	return &fakeModelRepo{
		byID:        make(map[string]*mmodel.Model),
		byOwnerName: make(map[string]*mmodel.Model),
	}
}

func ownerNameKey(owner, name string) string { return owner + "/" + name }

func (r *fakeModelRepo) Create(_ context.Context, m *mmodel.Model) (*mmodel.Model, error) {
	key := ownerNameKey(m.OwnerUserID, m.Name)
	if _, exists := r.byOwnerName[key]; exists {
		return nil, errConflict{}
	}

	m.ID = uuid.New().String()
	r.byID[m.ID] = m
	r.byOwnerName[key] = m

	return m, nil
}

func (r *fakeModelRepo) Update(_ context.Context, id uuid.UUID, m *mmodel.Model) (*mmodel.Model, error) {
	m.ID = id.String()
	r.byID[m.ID] = m

	return m, nil
}

func (r *fakeModelRepo) Find(_ context.Context, id uuid.UUID) (*mmodel.Model, error) {
	m, ok := r.byID[id.String()]
	if !ok {
		return nil, errNotFound{}
	}

	return m, nil
}

func (r *fakeModelRepo) FindByOwnerAndName(_ context.Context, owner uuid.UUID, name string) (*mmodel.Model, error) {
	m, ok := r.byOwnerName[ownerNameKey(owner.String(), name)]
	if !ok {
		return nil, errNotFound{}
	}

	return m, nil
}

func (r *fakeModelRepo) ListVisible(_ context.Context, _ uuid.UUID, _ []uuid.UUID, _ mmodel.ModelFilter, _, _ int) ([]*mmodel.Model, error) {
	return nil, nil
}

func (r *fakeModelRepo) ListPublic(_ context.Context, _ mmodel.ModelFilter, _, _ int) ([]*mmodel.Model, error) {
	return nil, nil
}

func (r *fakeModelRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id.String())
	return nil
}

type errConflict struct{}

func (errConflict) Error() string { return "conflict" }

// fakeRabbitMQProducer is an in-memory rabbitmq.ProducerRepository for
// command tests: it records every published message instead of publishing.
type fakeRabbitMQProducer struct {
	published []publishedMessage
}

type publishedMessage struct {
	Exchange string
	Key      string
	Body     []byte
}

func newFakeRabbitMQProducer() *fakeRabbitMQProducer { return &fakeRabbitMQProducer{} }

func (p *fakeRabbitMQProducer) ProducerDefault(_ context.Context, exchange, key string, body []byte) error {
	p.published = append(p.published, publishedMessage{Exchange: exchange, Key: key, Body: body})
	return nil
}

// fakeTeamRepo is an in-memory identitydomain.TeamRepository for command tests.
type fakeTeamRepo struct {
	byID        map[string]*mmodel.Team
	memberships map[string]*mmodel.TeamMembership
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{byID: make(map[string]*mmodel.Team), memberships: make(map[string]*mmodel.TeamMembership)}
}

func membershipKey(teamID, userID string) string { return teamID + "/" + userID }

func (r *fakeTeamRepo) Create(_ context.Context, t *mmodel.Team) (*mmodel.Team, error) {
	t.ID = uuid.New().String()
	r.byID[t.ID] = t

	return t, nil
}

func (r *fakeTeamRepo) Find(_ context.Context, id uuid.UUID) (*mmodel.Team, error) {
	t, ok := r.byID[id.String()]
	if !ok {
		return nil, errNotFound{}
	}

	return t, nil
}

func (r *fakeTeamRepo) List(_ context.Context) ([]*mmodel.Team, error) {
	out := make([]*mmodel.Team, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}

	return out, nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id.String())
	return nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, m *mmodel.TeamMembership) error {
	r.memberships[membershipKey(m.TeamID, m.UserID)] = m
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID uuid.UUID) error {
	delete(r.memberships, membershipKey(teamID.String(), userID.String()))
	return nil
}

func (r *fakeTeamRepo) Membership(_ context.Context, teamID, userID uuid.UUID) (*mmodel.TeamMembership, error) {
	return r.memberships[membershipKey(teamID.String(), userID.String())], nil
}

func (r *fakeTeamRepo) ListTeamsForUser(_ context.Context, _ uuid.UUID) ([]*mmodel.Team, error) {
	return nil, nil
}

func (r *fakeTeamRepo) ListMembers(_ context.Context, teamID uuid.UUID) ([]*mmodel.TeamMembership, error) {
	var out []*mmodel.TeamMembership

	for _, m := range r.memberships {
		if m.TeamID == teamID.String() {
			out = append(out, m)
		}
	}

	return out, nil
}

// fakeDeploymentRepo is an in-memory deploymentdomain.Repository for command tests.
type fakeDeploymentRepo struct {
	byID          map[string]*mmodel.Deployment
	bySourceModel map[string][]*mmodel.Deployment
}

func newFakeDeploymentRepo() *fakeDeploymentRepo {
	return &fakeDeploymentRepo{byID: make(map[string]*mmodel.Deployment), bySourceModel: make(map[string][]*mmodel.Deployment)}
}

func (r *fakeDeploymentRepo) Create(_ context.Context, d *mmodel.Deployment) (*mmodel.Deployment, error) {
	d.ID = uuid.New().String()
	r.byID[d.ID] = d
	r.bySourceModel[d.SourceModelID] = append(r.bySourceModel[d.SourceModelID], d)

	return d, nil
}

func (r *fakeDeploymentRepo) Update(_ context.Context, id uuid.UUID, d *mmodel.Deployment) (*mmodel.Deployment, error) {
	d.ID = id.String()
	r.byID[d.ID] = d

	return d, nil
}

func (r *fakeDeploymentRepo) Find(_ context.Context, id uuid.UUID) (*mmodel.Deployment, error) {
	d, ok := r.byID[id.String()]
	if !ok {
		return nil, errNotFound{}
	}

	return d, nil
}

func (r *fakeDeploymentRepo) FindByOwnerAndName(_ context.Context, _ uuid.UUID, _ string) (*mmodel.Deployment, error) {
	return nil, nil
}

func (r *fakeDeploymentRepo) ListByOwner(_ context.Context, _ uuid.UUID, _, _ int) ([]*mmodel.Deployment, error) {
	return nil, nil
}

func (r *fakeDeploymentRepo) ListBySourceModel(_ context.Context, modelID uuid.UUID) ([]*mmodel.Deployment, error) {
	return r.bySourceModel[modelID.String()], nil
}

func (r *fakeDeploymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id.String())
	return nil
}

// fakeModelMetadataRepo is an in-memory catalogdomain.ModelMetadataRepository.
type fakeModelMetadataRepo struct {
	byModel map[string]*mmodel.ModelMetadata
}

func newFakeModelMetadataRepo() *fakeModelMetadataRepo {
	return &fakeModelMetadataRepo{byModel: make(map[string]*mmodel.ModelMetadata)}
}

func (r *fakeModelMetadataRepo) Upsert(_ context.Context, meta *mmodel.ModelMetadata) error {
	r.byModel[meta.ModelID] = meta
	return nil
}

func (r *fakeModelMetadataRepo) Find(_ context.Context, modelID uuid.UUID) (*mmodel.ModelMetadata, error) {
	meta, ok := r.byModel[modelID.String()]
	if !ok {
		return nil, errNotFound{}
	}

	return meta, nil
}

// fakeJobMessageRepo is an in-memory catalogdomain.JobMessageRepository.
type fakeJobMessageRepo struct {
	byModel map[string][]*mmodel.JobMessage
}

func newFakeJobMessageRepo() *fakeJobMessageRepo {
	return &fakeJobMessageRepo{byModel: make(map[string][]*mmodel.JobMessage)}
}

func (r *fakeJobMessageRepo) Append(_ context.Context, msg *mmodel.JobMessage) error {
	r.byModel[msg.ModelID] = append(r.byModel[msg.ModelID], msg)
	return nil
}

func (r *fakeJobMessageRepo) ListByModel(_ context.Context, modelID uuid.UUID, _, _ int) ([]*mmodel.JobMessage, error) {
	return r.byModel[modelID.String()], nil
}

// fakeModelPermissionRepo is an in-memory catalogdomain.ModelPermissionRepository.
type fakeModelPermissionRepo struct {
	byKey map[string]*mmodel.ModelPermission
}

func newFakeModelPermissionRepo() *fakeModelPermissionRepo {
	return &fakeModelPermissionRepo{byKey: make(map[string]*mmodel.ModelPermission)}
}

func modelPermKey(modelID, userID string) string { return modelID + "/" + userID }

func (r *fakeModelPermissionRepo) Upsert(_ context.Context, p *mmodel.ModelPermission) error {
	r.byKey[modelPermKey(p.ModelID, p.UserID)] = p
	return nil
}

func (r *fakeModelPermissionRepo) Find(_ context.Context, modelID, userID uuid.UUID) (*mmodel.ModelPermission, error) {
	return r.byKey[modelPermKey(modelID.String(), userID.String())], nil
}

func (r *fakeModelPermissionRepo) ListByModel(_ context.Context, modelID uuid.UUID) ([]*mmodel.ModelPermission, error) {
	var out []*mmodel.ModelPermission

	for _, p := range r.byKey {
		if p.ModelID == modelID.String() {
			out = append(out, p)
		}
	}

	return out, nil
}

// fakeModelDependencyRepo is an in-memory catalogdomain.ModelDependencyRepository.
type fakeModelDependencyRepo struct {
	edges map[string][]string
}

func newFakeModelDependencyRepo() *fakeModelDependencyRepo {
	return &fakeModelDependencyRepo{edges: make(map[string][]string)}
}

func (r *fakeModelDependencyRepo) Add(_ context.Context, modelID, dependsOnID uuid.UUID) error {
	r.edges[modelID.String()] = append(r.edges[modelID.String()], dependsOnID.String())
	return nil
}

func (r *fakeModelDependencyRepo) Descendants(_ context.Context, modelID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID

	for _, id := range r.edges[modelID.String()] {
		parsed, err := uuid.Parse(id)
		if err == nil {
			out = append(out, parsed)
		}
	}

	return out, nil
}

// fakeArtifactStore is an in-memory artifact.Store for command tests.
type fakeArtifactStore struct {
	reserved map[string]bool
	chunks   map[string]map[int][]byte
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{reserved: make(map[string]bool), chunks: make(map[string]map[int][]byte)}
}

func (s *fakeArtifactStore) Reserve(_ context.Context, modelID string) error {
	s.reserved[modelID] = true
	s.chunks[modelID] = make(map[int][]byte)

	return nil
}

func (s *fakeArtifactStore) PutChunk(_ context.Context, modelID string, chunkIndex int, r io.Reader) error {
	if !s.reserved[modelID] {
		return errNotFound{}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.chunks[modelID][chunkIndex] = data

	return nil
}

func (s *fakeArtifactStore) Commit(_ context.Context, modelID string, totalChunks int) error {
	for i := 1; i <= totalChunks; i++ {
		if _, ok := s.chunks[modelID][i]; !ok {
			return errNotFound{}
		}
	}

	return nil
}

func (s *fakeArtifactStore) PrepareDownload(_ context.Context, _ string, _ bool) error { return nil }

func (s *fakeArtifactStore) Stream(_ context.Context, _ string, _ bool) (io.ReadCloser, error) {
	return nil, errNotFound{}
}

func (s *fakeArtifactStore) Delete(_ context.Context, modelID string) error {
	delete(s.reserved, modelID)
	delete(s.chunks, modelID)

	return nil
}
