package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVersionGetter struct {
	versions map[uuid.UUID]*DocumentVersion
	err      error
}

func (g *stubVersionGetter) GetVersion(_ context.Context, versionID uuid.UUID) (*DocumentVersion, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.versions[versionID], nil
}

func TestLoadVersionSnapshots(t *testing.T) {
	resumeID := uuid.New()
	coverID := uuid.New()
	getter := &stubVersionGetter{versions: map[uuid.UUID]*DocumentVersion{
		resumeID: {ID: resumeID, Label: "v1"},
		coverID:  {ID: coverID, Label: "v2 - Acme Corp"},
	}}

	app := &Application{ResumeVersionID: resumeID, CoverLetterVersionID: &coverID}
	require.NoError(t, loadVersionSnapshots(context.Background(), getter, app))

	require.NotNil(t, app.ResumeVersion)
	assert.Equal(t, "v1", app.ResumeVersion.Label)
	require.NotNil(t, app.CoverLetterVersion)
	assert.Equal(t, "v2 - Acme Corp", app.CoverLetterVersion.Label)
}

func TestLoadVersionSnapshotsPropagatesError(t *testing.T) {
	getter := &stubVersionGetter{err: errors.New("connection reset")}
	app := &Application{ResumeVersionID: uuid.New()}
	assert.Error(t, loadVersionSnapshots(context.Background(), getter, app))
}

func TestAttachVersionSnapshotsSwallowsLoadFailure(t *testing.T) {
	// After commit the application is durable; a snapshot load failure is
	// logged and the row returned without snapshots, never an error that
	// would push the caller into re-creating it.
	getter := &stubVersionGetter{err: errors.New("connection reset")}
	app := &Application{ID: uuid.New(), ResumeVersionID: uuid.New()}

	attachVersionSnapshots(context.Background(), getter, app)

	assert.Nil(t, app.ResumeVersion)
	assert.Nil(t, app.CoverLetterVersion)
}
