package query

import (
	"bytes"
	"context"
	"io"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// fakeModelRepo is an in-memory catalogdomain.ModelRepository for query
// tests. Unlike the command package's fake, not-found errors are returned
// as common.EntityNotFoundError, matching what the Postgres adapter wraps
// its sql.ErrNoRows into and what NameCheck matches against.
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

func modelNotFound() error {
	return common.EntityNotFoundError{
		EntityType: "Model",
		Title:      "Model Not Found",
		Code:       "MODEL-0001",
		Message:    "No model was found matching the provided ID.",
	}
}

func (r *fakeModelRepo) put(m *mmodel.Model) {
	r.byID[m.ID] = m
	r.byOwnerName[ownerNameKey(m.OwnerUserID, m.Name)] = m
}

func ownerNameKey(owner, name string) string { return owner + "/" + name }

func (r *fakeModelRepo) Create(_ context.Context, m *mmodel.Model) (*mmodel.Model, error) {
	m.ID = uuid.New().String()
	r.put(m)

	return m, nil
}

func (r *fakeModelRepo) Update(_ context.Context, id uuid.UUID, m *mmodel.Model) (*mmodel.Model, error) {
	m.ID = id.String()
	r.put(m)

	return m, nil
}

func (r *fakeModelRepo) Find(_ context.Context, id uuid.UUID) (*mmodel.Model, error) {
	m, ok := r.byID[id.String()]
	if !ok {
		return nil, modelNotFound()
	}

	return m, nil
}

func (r *fakeModelRepo) FindByOwnerAndName(_ context.Context, owner uuid.UUID, name string) (*mmodel.Model, error) {
	m, ok := r.byOwnerName[ownerNameKey(owner.String(), name)]
	if !ok {
		return nil, modelNotFound()
	}

	return m, nil
}

func (r *fakeModelRepo) ListVisible(_ context.Context, _ uuid.UUID, _ []uuid.UUID, _ mmodel.ModelFilter, _, _ int) ([]*mmodel.Model, error) {
	out := make([]*mmodel.Model, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}

	return out, nil
}

func (r *fakeModelRepo) ListPublic(_ context.Context, _ mmodel.ModelFilter, _, _ int) ([]*mmodel.Model, error) {
	out := make([]*mmodel.Model, 0, len(r.byID))

	for _, m := range r.byID {
		if m.Access == mmodel.AccessPublic {
			out = append(out, m)
		}
	}

	return out, nil
}

func (r *fakeModelRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id.String())
	return nil
}

// fakeModelPermissionRepo is an in-memory catalogdomain.ModelPermissionRepository.
// Find returns (nil, nil) on a miss, mirroring the Postgres adapter's
// sql.ErrNoRows-to-nil convention: an absent grant is not an error.
type fakeModelPermissionRepo struct {
	byKey map[string]*mmodel.ModelPermission
}

func newFakeModelPermissionRepo() *fakeModelPermissionRepo {
	return &fakeModelPermissionRepo{byKey: make(map[string]*mmodel.ModelPermission)}
}

func permKey(modelID, userID string) string { return modelID + "/" + userID }

func (r *fakeModelPermissionRepo) Upsert(_ context.Context, p *mmodel.ModelPermission) error {
	r.byKey[permKey(p.ModelID, p.UserID)] = p
	return nil
}

func (r *fakeModelPermissionRepo) Find(_ context.Context, modelID, userID uuid.UUID) (*mmodel.ModelPermission, error) {
	return r.byKey[permKey(modelID.String(), userID.String())], nil
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
		return &mmodel.ModelMetadata{ModelID: modelID.String()}, nil
	}

	return meta, nil
}

// fakeTeamRepo is an in-memory identitydomain.TeamRepository.
type fakeTeamRepo struct {
	memberships map[string]*mmodel.TeamMembership
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{memberships: make(map[string]*mmodel.TeamMembership)}
}

func (r *fakeTeamRepo) Create(_ context.Context, t *mmodel.Team) (*mmodel.Team, error) { return t, nil }
func (r *fakeTeamRepo) Find(_ context.Context, _ uuid.UUID) (*mmodel.Team, error)      { return nil, nil }
func (r *fakeTeamRepo) List(_ context.Context) ([]*mmodel.Team, error)                 { return nil, nil }
func (r *fakeTeamRepo) Delete(_ context.Context, _ uuid.UUID) error                    { return nil }

func (r *fakeTeamRepo) AddMember(_ context.Context, m *mmodel.TeamMembership) error {
	r.memberships[permKey(m.TeamID, m.UserID)] = m
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID uuid.UUID) error {
	delete(r.memberships, permKey(teamID.String(), userID.String()))
	return nil
}

func (r *fakeTeamRepo) Membership(_ context.Context, teamID, userID uuid.UUID) (*mmodel.TeamMembership, error) {
	return r.memberships[permKey(teamID.String(), userID.String())], nil
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

// fakeUserRepo is an in-memory identitydomain.UserRepository for query tests.
type fakeUserRepo struct {
	byID map[string]*mmodel.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*mmodel.User)}
}

func (r *fakeUserRepo) put(u *mmodel.User) { r.byID[u.ID] = u }

func (r *fakeUserRepo) Create(_ context.Context, u *mmodel.User) (*mmodel.User, error) {
	u.ID = uuid.New().String()
	r.byID[u.ID] = u

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
		return nil, common.EntityNotFoundError{EntityType: "User", Title: "User Not Found", Code: "USER-0001", Message: "no such user"}
	}

	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*mmodel.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}

	return nil, common.EntityNotFoundError{EntityType: "User", Title: "User Not Found", Code: "USER-0001", Message: "no such user"}
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*mmodel.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}

	return nil, common.EntityNotFoundError{EntityType: "User", Title: "User Not Found", Code: "USER-0001", Message: "no such user"}
}

// fakeDeploymentRepo is an in-memory deploymentdomain.Repository.
type fakeDeploymentRepo struct {
	byID map[string]*mmodel.Deployment
}

func newFakeDeploymentRepo() *fakeDeploymentRepo {
	return &fakeDeploymentRepo{byID: make(map[string]*mmodel.Deployment)}
}

func (r *fakeDeploymentRepo) put(d *mmodel.Deployment) { r.byID[d.ID] = d }

func (r *fakeDeploymentRepo) Create(_ context.Context, d *mmodel.Deployment) (*mmodel.Deployment, error) {
	d.ID = uuid.New().String()
	r.byID[d.ID] = d

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
		return nil, common.EntityNotFoundError{EntityType: "Deployment", Title: "Deployment Not Found", Code: "DEPLOY-0001", Message: "no such deployment"}
	}

	return d, nil
}

func (r *fakeDeploymentRepo) FindByOwnerAndName(_ context.Context, _ uuid.UUID, _ string) (*mmodel.Deployment, error) {
	return nil, nil
}

func (r *fakeDeploymentRepo) ListByOwner(_ context.Context, _ uuid.UUID, _, _ int) ([]*mmodel.Deployment, error) {
	return nil, nil
}

func (r *fakeDeploymentRepo) ListBySourceModel(_ context.Context, _ uuid.UUID) ([]*mmodel.Deployment, error) {
	return nil, nil
}

func (r *fakeDeploymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id.String())
	return nil
}

// fakeArtifactStore is an in-memory artifact.Store for query tests.
type fakeArtifactStore struct {
	prepared map[string]bool
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{prepared: make(map[string]bool)}
}

func (s *fakeArtifactStore) Reserve(_ context.Context, _ string) error { return nil }

func (s *fakeArtifactStore) PutChunk(_ context.Context, _ string, _ int, _ io.Reader) error {
	return nil
}

func (s *fakeArtifactStore) Commit(_ context.Context, _ string, _ int) error { return nil }

func (s *fakeArtifactStore) PrepareDownload(_ context.Context, modelID string, _ bool) error {
	s.prepared[modelID] = true
	return nil
}

func (s *fakeArtifactStore) Stream(_ context.Context, modelID string, _ bool) (io.ReadCloser, error) {
	if !s.prepared[modelID] {
		return nil, common.EntityNotFoundError{EntityType: "Artifact", Title: "Artifact Not Found", Code: "ARTIFACT-0001", Message: "not prepared"}
	}

	return io.NopCloser(bytes.NewReader([]byte("artifact-bytes"))), nil
}

func (s *fakeArtifactStore) Delete(_ context.Context, _ string) error { return nil }
