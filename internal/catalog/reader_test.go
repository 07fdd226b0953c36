package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jmylchreest/immich-offline-remover/internal/config"
)

var expectedQuery = regexp.QuoteMeta(`SELECT id, "originalPath" FROM asset WHERE "originalPath" LIKE $1 AND "deletedAt" IS NULL`)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// newMockReader creates a Reader whose connections go to go-sqlmock
func newMockReader(t *testing.T) (*Reader, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	opener := func(ctx context.Context) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			Conn:                 sqlDB,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
			DisableAutomaticPing: true,
		})
	}

	return NewReaderWithOpener(opener, testLogger()), mock
}

func TestFindAssetsSinglePattern(t *testing.T) {
	reader, mock := newMockReader(t)

	id1, id2 := uuid.New(), uuid.New()
	mock.ExpectQuery(expectedQuery).
		WithArgs("/usr/src/app/upload/library/%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "originalPath"}).
			AddRow(id1.String(), "/usr/src/app/upload/library/a.jpg").
			AddRow(id2.String(), "/usr/src/app/upload/library/b.jpg"))
	mock.ExpectClose()

	assets, err := reader.FindAssets(context.Background(), []string{"/usr/src/app/upload/library/%"})
	require.NoError(t, err)

	assert.Equal(t, []Asset{
		{ID: id1, Path: "/usr/src/app/upload/library/a.jpg"},
		{ID: id2, Path: "/usr/src/app/upload/library/b.jpg"},
	}, assets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAssetsConcatenatesInPatternOrderWithoutDedup(t *testing.T) {
	reader, mock := newMockReader(t)

	shared := uuid.New()
	other := uuid.New()

	mock.ExpectQuery(expectedQuery).
		WithArgs("/photos/%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "originalPath"}).
			AddRow(shared.String(), "/photos/2024/x.jpg"))
	mock.ExpectQuery(expectedQuery).
		WithArgs("/photos/2024/%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "originalPath"}).
			AddRow(shared.String(), "/photos/2024/x.jpg").
			AddRow(other.String(), "/photos/2024/y.jpg"))
	mock.ExpectClose()

	assets, err := reader.FindAssets(context.Background(), []string{"/photos/%", "/photos/2024/%"})
	require.NoError(t, err)

	require.Len(t, assets, 3)
	assert.Equal(t, shared, assets[0].ID)
	assert.Equal(t, shared, assets[1].ID, "overlapping patterns yield the asset twice")
	assert.Equal(t, other, assets[2].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAssetsNoMatches(t *testing.T) {
	reader, mock := newMockReader(t)

	mock.ExpectQuery(expectedQuery).
		WithArgs("/nothing/%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "originalPath"}))
	mock.ExpectClose()

	assets, err := reader.FindAssets(context.Background(), []string{"/nothing/%"})
	require.NoError(t, err)
	assert.Empty(t, assets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAssetsQueryFailureDiscardsPartialResults(t *testing.T) {
	reader, mock := newMockReader(t)

	mock.ExpectQuery(expectedQuery).
		WithArgs("/a/%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "originalPath"}).
			AddRow(uuid.New().String(), "/a/1.jpg"))
	mock.ExpectQuery(expectedQuery).
		WithArgs("/b/%").
		WillReturnError(errors.New(`relation "asset" does not exist`))
	mock.ExpectClose()

	assets, err := reader.FindAssets(context.Background(), []string{"/a/%", "/b/%"})
	require.Error(t, err)
	assert.Nil(t, assets)

	var qErr *QueryError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, "/b/%", qErr.Pattern)
	assert.Contains(t, err.Error(), "does not exist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAssetsOpenFailure(t *testing.T) {
	connErr := &ConnectionError{Host: "localhost", Port: 5432, Database: "immich", User: "postgres", Err: errors.New("connection refused")}
	reader := NewReaderWithOpener(func(ctx context.Context) (*gorm.DB, error) {
		return nil, connErr
	}, testLogger())

	assets, err := reader.FindAssets(context.Background(), []string{"/a/%"})
	assert.Nil(t, assets)

	var got *ConnectionError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "localhost", got.Host)
}

func TestOpenUnreachableHost(t *testing.T) {
	cfg := config.DatabaseConfig{
		Hostname:       "127.0.0.1",
		Port:           1, // nothing listens here
		Name:           "immich",
		Username:       "postgres",
		Password:       "postgres",
		ConnectTimeout: 2 * time.Second,
	}

	db, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, db)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "127.0.0.1", connErr.Host)
	assert.Equal(t, 1, connErr.Port)
	assert.False(t, connErr.ServerRejected())
	assert.Contains(t, connErr.Hint(), "DB_HOSTNAME")
	assert.Contains(t, connErr.Hint(), "localhost")
}

func TestConnectionErrorHint(t *testing.T) {
	rejected := &ConnectionError{Err: &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}}
	assert.True(t, rejected.ServerRejected())
	assert.Contains(t, rejected.Hint(), "DB_PASSWORD")

	unreachable := &ConnectionError{Err: sql.ErrConnDone}
	assert.False(t, unreachable.ServerRejected())
	assert.Contains(t, unreachable.Hint(), "Docker service name")
}

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Hostname:       "immich_postgres",
		Port:           5432,
		Name:           "immich",
		Username:       "postgres",
		Password:       `it's a \secret`,
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   time.Minute,
	}

	dsn := DSN(cfg)
	assert.Contains(t, dsn, "host='immich_postgres'")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname='immich'")
	assert.Contains(t, dsn, "user='postgres'")
	assert.Contains(t, dsn, `password='it\'s a \\secret'`)
	assert.Contains(t, dsn, "connect_timeout=10")
	assert.Contains(t, dsn, "statement_timeout=60000")

	// the DSN must round-trip through the driver's parser
	parsed, err := pgconn.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "immich_postgres", parsed.Host)
	assert.Equal(t, uint16(5432), parsed.Port)
	assert.Equal(t, `it's a \secret`, parsed.Password)
	assert.Equal(t, "60000", parsed.RuntimeParams["statement_timeout"])
}

func TestDSNWithoutTimeouts(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Hostname: "db", Port: 5432, Name: "immich", Username: "u"})
	assert.False(t, strings.Contains(dsn, "timeout"))
}
