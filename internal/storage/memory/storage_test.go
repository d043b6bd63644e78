package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/roomchat/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestCreateAndGetUser() {
	user := &model.User{
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}

	err := s.storage.CreateUser(s.ctx, user)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(user.Username, retrieved.Username)
	s.Equal("hash", retrieved.PasswordHash)
	s.False(retrieved.IsAdmin)
}

func (s *StorageSuite) TestCreateUserRejectsDuplicate() {
	_ = s.storage.CreateUser(s.ctx, &model.User{Username: "alice"})

	err := s.storage.CreateUser(s.ctx, &model.User{Username: "alice", IsAdmin: true})
	s.ErrorIs(err, model.ErrUserExists)

	retrieved, _ := s.storage.GetUser(s.ctx, "alice")
	s.False(retrieved.IsAdmin)
}

func (s *StorageSuite) TestSaveUserOverwrites() {
	_ = s.storage.CreateUser(s.ctx, &model.User{Username: "root"})

	err := s.storage.SaveUser(s.ctx, &model.User{Username: "root", IsAdmin: true})
	s.Require().NoError(err)

	retrieved, _ := s.storage.GetUser(s.ctx, "root")
	s.True(retrieved.IsAdmin)
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestReturnedUserIsACopy() {
	_ = s.storage.CreateUser(s.ctx, &model.User{Username: "alice"})

	retrieved, _ := s.storage.GetUser(s.ctx, "alice")
	retrieved.IsAdmin = true

	again, _ := s.storage.GetUser(s.ctx, "alice")
	s.False(again.IsAdmin)
}

func (s *StorageSuite) TestDeleteUser() {
	_ = s.storage.CreateUser(s.ctx, &model.User{Username: "alice"})

	err := s.storage.DeleteUser(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.storage.GetUser(s.ctx, "alice")
	s.ErrorIs(err, model.ErrUserNotFound)
}
