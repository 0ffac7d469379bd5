// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func userColumns() []string {
	return []string{
		"id", "email", "password_hash", "name", "role",
		"created_at", "updated_at", "deleted_at",
	}
}

func userRow(u *User) []driver.Value {
	var deletedAt driver.Value
	if u.DeletedAt != nil {
		deletedAt = *u.DeletedAt
	}

	return []driver.Value{
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
		u.CreatedAt, u.UpdatedAt, deletedAt,
	}
}

func sampleUser() *User {
	return &User{
		ID:           "user-1",
		Email:        "jane@example.com",
		PasswordHash: "$argon2id$hash",
		Name:         "Jane",
		Role:         RoleUser,
		CreatedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now().Add(-time.Hour),
	}
}

func TestUpdateProfile_LowercasesEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	existing := sampleUser()
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(existing.ID).
		WillReturnRows(
			sqlmock.NewRows(userColumns()).AddRow(userRow(existing)...),
		)

	mock.ExpectQuery("UPDATE users").
		WithArgs(existing.ID, existing.Name, "jane.new@example.com", RoleUser).
		WillReturnRows(
			sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()),
		)

	email := "  Jane.New@Example.COM "
	updated, err := svc.UpdateProfile(
		context.Background(),
		existing.ID,
		UpdateProfileRequest{Email: &email},
	)
	require.NoError(t, err)

	assert.Equal(t, "jane.new@example.com", updated.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_AbsentFieldsUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	existing := sampleUser()
	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnRows(
			sqlmock.NewRows(userColumns()).AddRow(userRow(existing)...),
		)

	// Name and email keep their stored values when the request omits them.
	mock.ExpectQuery("UPDATE users").
		WithArgs(existing.ID, existing.Name, existing.Email, existing.Role).
		WillReturnRows(
			sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()),
		)

	_, err := svc.UpdateProfile(
		context.Background(),
		existing.ID,
		UpdateProfileRequest{},
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	existing := sampleUser()
	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnRows(
			sqlmock.NewRows(userColumns()).AddRow(userRow(existing)...),
		)

	mock.ExpectQuery("UPDATE users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	email := "taken@example.com"
	_, err := svc.UpdateProfile(
		context.Background(),
		existing.ID,
		UpdateProfileRequest{Email: &email},
	)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUpdateProfile_PasswordChange(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	existing := sampleUser()
	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnRows(
			sqlmock.NewRows(userColumns()).AddRow(userRow(existing)...),
		)
	mock.ExpectQuery("UPDATE users").
		WillReturnRows(
			sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()),
		)
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	password := "a-fresh-password"
	_, err := svc.UpdateProfile(
		context.Background(),
		existing.ID,
		UpdateProfileRequest{Password: &password},
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdate_ChangesRole(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	existing := sampleUser()
	mock.ExpectQuery("SELECT (.+) FROM users").
		WillReturnRows(
			sqlmock.NewRows(userColumns()).AddRow(userRow(existing)...),
		)

	mock.ExpectQuery("UPDATE users").
		WithArgs(existing.ID, existing.Name, existing.Email, RoleAdmin).
		WillReturnRows(
			sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()),
		)

	role := RoleAdmin
	updated, err := svc.AdminUpdate(
		context.Background(),
		existing.ID,
		AdminUpdateUserRequest{Role: &role},
	)
	require.NoError(t, err)

	assert.Equal(t, RoleAdmin, updated.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreate_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.AdminCreate(
		context.Background(),
		"taken@example.com",
		"a-solid-password",
		"Taken",
		RoleUser,
	)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestDelete_CascadesTokenRevocation(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	// Soft delete and revoke-all commit or roll back together.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WithArgs("user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE session_tokens").
		WithArgs("user-2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), "admin-1", "user-2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Self(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	err := svc.Delete(context.Background(), "admin-1", "admin-1")
	assert.ErrorIs(t, err, ErrSelfDeletion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingUserRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, NewRepository(db))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), "admin-1", "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail(" A@B.Com "))
	assert.Equal(t, "a@b.com", NormalizeEmail("a@b.com"))
}

func TestProvider_CreateAssignsUserRole(t *testing.T) {
	db, mock := newMockDB(t)
	provider := NewProvider(NewRepository(db))

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(
			sqlmock.AnyArg(),
			"new@example.com",
			"$argon2id$hash",
			"Newcomer",
			RoleUser,
		).
		WillReturnRows(
			sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(time.Now(), time.Now()),
		)

	info, err := provider.Create(
		context.Background(),
		"New@Example.com",
		"$argon2id$hash",
		"Newcomer",
	)
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", info.Email)
	assert.Equal(t, RoleUser, info.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
