package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"rowanberries/internal/app/reviews/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MemberRepositoryTestSuite тестовый suite для PostgreSQL repository
type MemberRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  MemberRepository
	sqlDB *sql.DB
}

func TestMemberRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemberRepositoryTestSuite))
}

func (s *MemberRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewMemberRepository(s.db)
}

func (s *MemberRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// ===================== Create Tests =====================

func (s *MemberRepositoryTestSuite) TestCreate_Success() {
	ctx := context.Background()
	member := &entity.Member{
		ID:           uuid.New(),
		Email:        "new@example.com",
		Username:     "newuser",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now(),
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "members"`)).
		WithArgs(member.ID, member.Email, member.Username, member.PasswordHash, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	err := s.repo.Create(ctx, member)

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *MemberRepositoryTestSuite) TestCreate_DBError() {
	ctx := context.Background()
	member := &entity.Member{
		ID:       uuid.New(),
		Email:    "new@example.com",
		Username: "newuser",
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "members"`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	err := s.repo.Create(ctx, member)

	s.Error(err)
	s.Contains(err.Error(), "failed to create member")
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== GetByID Tests =====================

func (s *MemberRepositoryTestSuite) TestGetByID_Success() {
	ctx := context.Background()
	memberID := uuid.New()
	createdAt := time.Now()

	rows := sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "created_at"}).
		AddRow(memberID, "user@example.com", "user", "$2a$10$hash", createdAt)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE id = $1`)).
		WillReturnRows(rows)

	member, err := s.repo.GetByID(ctx, memberID)

	s.NoError(err)
	s.NotNil(member)
	s.Equal(memberID, member.ID)
	s.Equal("user@example.com", member.Email)
	s.Equal("user", member.Username)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *MemberRepositoryTestSuite) TestGetByID_NotFound() {
	ctx := context.Background()
	memberID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE id = $1`)).
		WillReturnError(gorm.ErrRecordNotFound)

	member, err := s.repo.GetByID(ctx, memberID)

	s.ErrorIs(err, ErrMemberNotFound)
	s.Nil(member)

	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== GetByEmail Tests =====================

func (s *MemberRepositoryTestSuite) TestGetByEmail_Success() {
	ctx := context.Background()
	memberID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "created_at"}).
		AddRow(memberID, "user@example.com", "user", "$2a$10$hash", time.Now())

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE email = $1`)).
		WillReturnRows(rows)

	member, err := s.repo.GetByEmail(ctx, "user@example.com")

	s.NoError(err)
	s.NotNil(member)
	s.Equal(memberID, member.ID)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *MemberRepositoryTestSuite) TestGetByEmail_NotFound() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE email = $1`)).
		WillReturnError(gorm.ErrRecordNotFound)

	member, err := s.repo.GetByEmail(ctx, "ghost@example.com")

	s.ErrorIs(err, ErrMemberNotFound)
	s.Nil(member)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *MemberRepositoryTestSuite) TestGetByEmail_DBError() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE email = $1`)).
		WillReturnError(sql.ErrConnDone)

	member, err := s.repo.GetByEmail(ctx, "user@example.com")

	s.Error(err)
	s.Nil(member)
	s.Contains(err.Error(), "failed to get member by email")

	s.NoError(s.mock.ExpectationsWereMet())
}
