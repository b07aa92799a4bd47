package pgstore

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/onap/aai-gizmo-sub001/internal/database"
	"github.com/onap/aai-gizmo-sub001/internal/migrate"
	"github.com/onap/aai-gizmo-sub001/internal/testutil"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore"
)

var testDB *bun.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pg, err := testutil.StartPostgres(ctx)
	if err != nil {
		log.Printf("postgres unavailable, pgstore tests will be skipped: %v", err)
		os.Exit(m.Run())
	}

	pool, err := pgxpool.New(ctx, pg.DSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	testDB = database.NewBunDB(pool, false, testutil.NewTestLogger())
	if err := migrate.NewMigrator(testDB, zap.NewNop()).Up(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	code := m.Run()

	_ = testDB.Close()
	pool.Close()
	_ = pg.Terminate(ctx)
	os.Exit(code)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not available")
	}
	_, err := testDB.ExecContext(context.Background(),
		"TRUNCATE graph_relationships, graph_objects RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	s := New(testDB, testutil.NewTestLogger())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestObjectCRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	obj, err := s.StoreObject(ctx, "", graphstore.Object{
		Type:       "pserver",
		Properties: map[string]any{"hostname": "h1", "number-of-cpus": 8},
	})
	require.NoError(t, err)
	require.NotZero(t, obj.Key)

	got, err := s.RetrieveObject(ctx, "", obj.Key)
	require.NoError(t, err)
	assert.Equal(t, "pserver", got.Type)
	assert.Equal(t, "h1", got.Properties["hostname"])

	found, err := s.QueryObjects(ctx, "", graphstore.Filter{graphstore.TypeKey: "pserver", "number-of-cpus": "8"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = s.ReplaceObject(ctx, "", graphstore.Object{Key: obj.Key, Type: "pserver", Properties: map[string]any{"hostname": "h2"}})
	require.NoError(t, err)
	got, _ = s.RetrieveObject(ctx, "", obj.Key)
	assert.Equal(t, "h2", got.Properties["hostname"])
	assert.NotContains(t, got.Properties, "number-of-cpus")

	require.NoError(t, s.DeleteObject(ctx, "", obj.Key))
	_, err = s.RetrieveObject(ctx, "", obj.Key)
	var nf *graphstore.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = s.ReplaceObject(ctx, "", graphstore.Object{Key: obj.Key, Type: "pserver"})
	assert.ErrorAs(t, err, &nf)
}

func TestExplicitKey(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.StoreObject(ctx, "", graphstore.Object{Key: 500, Type: "pserver"})
	require.NoError(t, err)

	_, err = s.StoreObject(ctx, "", graphstore.Object{Key: 500, Type: "pserver"})
	var exists *graphstore.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)

	next, err := s.StoreObject(ctx, "", graphstore.Object{Type: "pserver"})
	require.NoError(t, err)
	assert.Greater(t, next.Key, int64(500))
}

func TestRelationshipsAndIntegrity(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	vs, err := s.StoreObject(ctx, "", graphstore.Object{Type: "vserver"})
	require.NoError(t, err)
	ps, err := s.StoreObject(ctx, "", graphstore.Object{Type: "pserver"})
	require.NoError(t, err)

	rel, err := s.StoreRelationship(ctx, "", graphstore.Relationship{
		Type:       "tosca.relationships.HostedOn",
		Source:     vs,
		Target:     ps,
		Properties: map[string]any{"contains-other-v": "NONE"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vserver", rel.Source.Type)
	assert.Equal(t, "pserver", rel.Target.Type)

	incident, err := s.RetrieveRelationships(ctx, "", vs.Key)
	require.NoError(t, err)
	assert.Len(t, incident, 1)

	err = s.DeleteObject(ctx, "", ps.Key)
	var sv *graphstore.SchemaViolationError
	assert.ErrorAs(t, err, &sv)

	require.NoError(t, s.DeleteRelationship(ctx, "", rel.Key))
	require.NoError(t, s.DeleteObject(ctx, "", ps.Key))
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	txID, err := s.OpenTransaction(ctx)
	require.NoError(t, err)
	assert.True(t, s.TransactionExists(ctx, txID))

	obj, err := s.StoreObject(ctx, txID, graphstore.Object{Type: "pserver"})
	require.NoError(t, err)

	_, err = s.RetrieveObject(ctx, "", obj.Key)
	assert.Error(t, err)

	require.NoError(t, s.Commit(ctx, txID))
	_, err = s.RetrieveObject(ctx, "", obj.Key)
	require.NoError(t, err)

	txID, err = s.OpenTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, s.DeleteObject(ctx, txID, obj.Key))
	require.NoError(t, s.Rollback(ctx, txID))
	_, err = s.RetrieveObject(ctx, "", obj.Key)
	assert.NoError(t, err, "rolled back delete leaves the object")

	var txErr *graphstore.TransactionError
	assert.ErrorAs(t, s.Commit(ctx, txID), &txErr)
}

func TestMigrationsRoundTrip(t *testing.T) {
	if testDB == nil {
		t.Skip("postgres not available")
	}
	ctx := context.Background()
	m := migrate.NewMigrator(testDB, zap.NewNop())

	v, err := m.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	require.NoError(t, m.Down(ctx))
	v, err = m.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)

	require.NoError(t, m.Up(ctx))
	v, err = m.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}
