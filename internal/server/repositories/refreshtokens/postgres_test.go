package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/romcom/romcom-auth/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewPostgresRepository(db), mock
}

func wantDBError(t *testing.T, err error, cause string) {
	t.Helper()
	if err == nil || !regexp.MustCompile(`db error: .*` + cause).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now().UTC()
	exp := now.Add(30 * 24 * time.Hour)
	q := `(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(user_id,\s*token,\s*expires_at,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id$`
	mock.ExpectQuery(q).
		WithArgs(int64(7), "tok123", exp, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := repo.Create(context.Background(), 7, "tok123", exp, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 11 {
		t.Fatalf("id = %d, want 11", id)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+refresh_tokens`).
		WithArgs(int64(7), "tok123", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("duplicate key"))

	_, err := repo.Create(context.Background(), 7, "tok123", time.Now(), time.Now())
	wantDBError(t, err, "duplicate key")
}

func TestFind(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,\s*user_id,\s*token,\s*expires_at,\s*created_at,\s*is_revoked,\s*revoked_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1$`
	created := time.Now().UTC().Truncate(time.Second)
	exp := created.Add(time.Hour)
	revoked := created.Add(time.Minute)
	cols := []string{"id", "user_id", "token", "expires_at", "created_at", "is_revoked", "revoked_at"}

	mock.ExpectQuery(q).WithArgs("active").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), int64(7), "active", exp, created, false, nil))
	mock.ExpectQuery(q).WithArgs("used").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(2), int64(7), "used", exp, created, true, revoked))
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("err").WillReturnError(errors.New("db down"))

	got, err := repo.Find(context.Background(), "active")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if got.ID != 1 || got.UserID != 7 || got.Revoked || got.RevokedAt != nil || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected row: %+v", got)
	}

	got, err = repo.Find(context.Background(), "used")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if !got.Revoked || got.RevokedAt == nil || !got.RevokedAt.Equal(revoked) {
		t.Fatalf("unexpected row: %+v", got)
	}

	if _, err := repo.Find(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	_, err = repo.Find(context.Background(), "err")
	wantDBError(t, err, "db down")
}

func TestRevoke_Conditional(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	at := time.Now().UTC()
	q := `(?s)^UPDATE\s+refresh_tokens\s+SET\s+is_revoked\s*=\s*TRUE,\s*revoked_at\s*=\s*\$2\s+WHERE\s+token\s*=\s*\$1\s+AND\s+NOT\s+is_revoked$`
	mock.ExpectExec(q).WithArgs("tok", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("tok", at).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("tok", at).WillReturnError(errors.New("lock timeout"))

	ok, err := repo.Revoke(context.Background(), "tok", at)
	if err != nil || !ok {
		t.Fatalf("first Revoke = %v, %v; want true, nil", ok, err)
	}

	ok, err = repo.Revoke(context.Background(), "tok", at)
	if err != nil || ok {
		t.Fatalf("second Revoke = %v, %v; want false, nil", ok, err)
	}

	_, err = repo.Revoke(context.Background(), "tok", at)
	wantDBError(t, err, "lock timeout")
}

func TestRevokeAll(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	at := time.Now().UTC()
	q := `(?s)^UPDATE\s+refresh_tokens\s+SET\s+is_revoked\s*=\s*TRUE,\s*revoked_at\s*=\s*\$2\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+NOT\s+is_revoked$`
	mock.ExpectExec(q).WithArgs(int64(7), at).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(q).WithArgs(int64(7), at).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs(int64(7), at).WillReturnError(errors.New("db down"))

	n, err := repo.RevokeAll(context.Background(), 7, at)
	if err != nil || n != 3 {
		t.Fatalf("RevokeAll = %d, %v; want 3, nil", n, err)
	}

	n, err = repo.RevokeAll(context.Background(), 7, at)
	if err != nil || n != 0 {
		t.Fatalf("RevokeAll = %d, %v; want 0, nil", n, err)
	}

	_, err = repo.RevokeAll(context.Background(), 7, at)
	wantDBError(t, err, "db down")
}
