package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/dependencies/mocks"
	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/services/roomcode"
	"github.com/mcoot/roomchat/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	hubs     *channel.HubManager
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.hubs = channel.NewHubManager(testutil.EncodeEvent, logger)
	s.registry = New(roomcode.New(s.random), s.hubs, s.clock, Config{
		TranscriptLimit: model.DefaultTranscriptLimit,
		PasswordCost:    bcrypt.MinCost,
	}, logger)
}

func (s *RegistrySuite) subscribe(code model.RoomCode, identity model.Identity) *testutil.FakeSubscriber {
	sub := testutil.NewFakeSubscriber(string(identity)+"-conn", identity, 512)
	s.hubs.Subscribe(code, sub)
	return sub
}

// CreateRoom tests

func (s *RegistrySuite) TestCreateRoomSucceeds() {
	s.random.QueueString("ABC123")

	room, err := s.registry.CreateRoom("Lobby", "alice", "")
	s.Require().NoError(err)

	s.Equal(model.RoomCode("ABC123"), room.Code)
	s.Equal("Lobby", room.Name)
	s.Equal(model.Identity("alice"), room.Creator)
	s.Equal([]model.Identity{"alice"}, room.Members)
	s.False(room.Protected)
	s.Empty(room.Transcript)
	s.True(s.registry.Exists("ABC123"))
}

func (s *RegistrySuite) TestCreateRoomRejectsBlankName() {
	_, err := s.registry.CreateRoom("   ", "alice", "")
	s.ErrorIs(err, model.ErrEmptyRoomName)
	s.ErrorIs(err, model.ErrValidation)
	s.Empty(s.registry.ListRooms())
}

func (s *RegistrySuite) TestCreateRoomRedrawsTakenCode() {
	s.random.QueueString("AAAAAA", "AAAAAA", "BBBBBB")

	first, err := s.registry.CreateRoom("One", "alice", "")
	s.Require().NoError(err)
	second, err := s.registry.CreateRoom("Two", "bob", "")
	s.Require().NoError(err)

	s.Equal(model.RoomCode("AAAAAA"), first.Code)
	s.Equal(model.RoomCode("BBBBBB"), second.Code)
}

func (s *RegistrySuite) TestCreateRoomHashesPassword() {
	s.random.QueueString("SECRET")

	room, err := s.registry.CreateRoom("Secret", "alice", "p@ss")
	s.Require().NoError(err)
	s.True(room.Protected)
}

// JoinRoom tests

func (s *RegistrySuite) TestJoinRoomAddsMember() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")

	room, joined, err := s.registry.JoinRoom("ABC123", "bob", "")
	s.Require().NoError(err)

	s.True(joined)
	s.Equal([]model.Identity{"alice", "bob"}, room.Members)
}

func (s *RegistrySuite) TestJoinRoomIsIdempotent() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")
	_, _, _ = s.registry.JoinRoom("ABC123", "bob", "")

	room, joined, err := s.registry.JoinRoom("ABC123", "bob", "")
	s.Require().NoError(err)

	s.False(joined)
	s.Len(room.Members, 2)
}

func (s *RegistrySuite) TestJoinRoomUnknownCode() {
	_, _, err := s.registry.JoinRoom("NOPE00", "bob", "")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestJoinProtectedRoom() {
	s.random.QueueString("SECRET")
	_, _ = s.registry.CreateRoom("Secret", "alice", "p@ss")

	_, _, err := s.registry.JoinRoom("SECRET", "carol", "wrong")
	s.ErrorIs(err, model.ErrWrongPassword)
	s.False(s.registry.IsMember("SECRET", "carol"))

	_, _, err = s.registry.JoinRoom("SECRET", "carol", "")
	s.ErrorIs(err, model.ErrWrongPassword)

	room, joined, err := s.registry.JoinRoom("SECRET", "carol", "p@ss")
	s.Require().NoError(err)
	s.True(joined)
	s.Contains(room.Members, model.Identity("carol"))
}

func (s *RegistrySuite) TestJoinProtectedRoomAsMemberSkipsPassword() {
	s.random.QueueString("SECRET")
	_, _ = s.registry.CreateRoom("Secret", "alice", "p@ss")

	_, joined, err := s.registry.JoinRoom("SECRET", "alice", "")
	s.Require().NoError(err)
	s.False(joined)
}

func (s *RegistrySuite) TestNormalizeCode() {
	s.Equal(model.RoomCode("ABC123"), NormalizeCode("  abc123 "))
}

// AppendMessage tests

func (s *RegistrySuite) TestAppendMessageBroadcastsAndRecords() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")
	sub := s.subscribe("ABC123", "alice")

	msg, err := s.registry.AppendMessage("ABC123", "alice", "hello")
	s.Require().NoError(err)
	s.Equal(model.Identity("alice"), msg.Author)
	s.Equal(s.clock.Now(), msg.Timestamp)

	frames := sub.Frames()
	s.Require().Len(frames, 1)
	s.Equal(model.EventNewMessage, frames[0].Type)
	s.Equal("hello", frames[0].Body)

	room, err := s.registry.GetRoom("ABC123", "alice")
	s.Require().NoError(err)
	s.Require().Len(room.Transcript, 1)
	s.Equal("hello", room.Transcript[0].Body)
}

func (s *RegistrySuite) TestAppendMessageRejectsNonMember() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")

	_, err := s.registry.AppendMessage("ABC123", "mallory", "hi")
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *RegistrySuite) TestAppendMessageRejectsEmptyBody() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")

	_, err := s.registry.AppendMessage("ABC123", "alice", "  ")
	s.ErrorIs(err, model.ErrEmptyMessage)
}

func (s *RegistrySuite) TestTranscriptKeepsMostRecent() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")

	for i := range 105 {
		_, err := s.registry.AppendMessage("ABC123", "alice", fmt.Sprintf("m%d", i))
		s.Require().NoError(err)
	}

	room, err := s.registry.GetRoom("ABC123", "alice")
	s.Require().NoError(err)
	s.Require().Len(room.Transcript, 100)
	s.Equal("m5", room.Transcript[0].Body)
	s.Equal("m104", room.Transcript[99].Body)
}

func (s *RegistrySuite) TestConcurrentSendsShareOneOrder() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")
	_, _, _ = s.registry.JoinRoom("ABC123", "bob", "")
	alice := s.subscribe("ABC123", "alice")
	bob := s.subscribe("ABC123", "bob")

	var g errgroup.Group
	for _, who := range []model.Identity{"alice", "bob"} {
		g.Go(func() error {
			for i := range 50 {
				if _, err := s.registry.AppendMessage("ABC123", who, fmt.Sprintf("%s-%d", who, i)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	aliceFrames := alice.Frames()
	bobFrames := bob.Frames()
	s.Require().Len(aliceFrames, 100)
	s.Equal(aliceFrames, bobFrames)

	room, err := s.registry.GetRoom("ABC123", "alice")
	s.Require().NoError(err)
	for i, msg := range room.Transcript {
		s.Equal(msg.Body, aliceFrames[i].Body)
	}
}

// LeaveRoom tests

func (s *RegistrySuite) TestLeaveRoomNotifiesBeforeRemoval() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")
	_, _, _ = s.registry.JoinRoom("ABC123", "bob", "")
	alice := s.subscribe("ABC123", "alice")
	bob := s.subscribe("ABC123", "bob")

	result := s.registry.LeaveRoom("ABC123", "bob")
	s.True(result.Left)
	s.False(result.Deleted)

	for _, sub := range []*testutil.FakeSubscriber{alice, bob} {
		frames := sub.Frames()
		s.Require().Len(frames, 1)
		s.Equal(string(model.SystemAuthor), frames[0].Author)
		s.Equal("bob left the chat.", frames[0].Body)
	}
	s.False(s.registry.IsMember("ABC123", "bob"))
}

func (s *RegistrySuite) TestLeaveLastMemberDeletesRoom() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")

	result := s.registry.LeaveRoom("ABC123", "alice")
	s.True(result.Left)
	s.True(result.Deleted)
	s.False(s.registry.Exists("ABC123"))

	_, _, err := s.registry.JoinRoom("ABC123", "bob", "")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestLeaveRoomUnsubscribesLeaver() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")
	_, _, _ = s.registry.JoinRoom("ABC123", "bob", "")
	alice := s.subscribe("ABC123", "alice")
	bob := s.subscribe("ABC123", "bob")

	s.registry.LeaveRoom("ABC123", "bob")

	s.True(s.hubs.IsSubscribed("ABC123", alice))
	s.False(s.hubs.IsSubscribed("ABC123", bob))
}

func (s *RegistrySuite) TestRedrawnCodeStartsWithEmptyGroup() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Old", "alice", "")
	stale := s.subscribe("ABC123", "carol")

	s.True(s.registry.LeaveRoom("ABC123", "alice").Deleted)
	s.Nil(s.hubs.GetHub("ABC123"))

	s.random.QueueString("ABC123")
	_, err := s.registry.CreateRoom("New", "bob", "")
	s.Require().NoError(err)
	bob := s.subscribe("ABC123", "bob")
	stale.Frames()

	_, err = s.registry.AppendMessage("ABC123", "bob", "fresh")
	s.Require().NoError(err)

	s.Len(bob.Frames(), 1)
	s.Empty(stale.Frames())
}

func (s *RegistrySuite) TestLeaveIsNoopForNonMember() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")

	s.Equal(LeaveResult{}, s.registry.LeaveRoom("ABC123", "bob"))
	s.Equal(LeaveResult{}, s.registry.LeaveRoom("NOPE00", "bob"))
	s.True(s.registry.Exists("ABC123"))
}

func (s *RegistrySuite) TestLobbyScenario() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")
	_, _, _ = s.registry.JoinRoom("ABC123", "bob", "")
	s.Require().NoError(s.registry.AppendSystem("ABC123", "bob joined the chat."))
	_, err := s.registry.AppendMessage("ABC123", "bob", "hi")
	s.Require().NoError(err)

	room, err := s.registry.GetRoom("ABC123", "alice")
	s.Require().NoError(err)
	s.Len(room.Transcript, 2)

	s.registry.LeaveRoom("ABC123", "alice")
	s.True(s.registry.Exists("ABC123"))
	s.registry.LeaveRoom("ABC123", "bob")
	s.False(s.registry.Exists("ABC123"))
}

func (s *RegistrySuite) TestConcurrentLeavesDeleteOnce() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "m0", "")
	for i := 1; i < 20; i++ {
		_, _, err := s.registry.JoinRoom("ABC123", model.Identity(fmt.Sprintf("m%d", i)), "")
		s.Require().NoError(err)
	}

	var (
		mu      sync.Mutex
		deleted int
		wg      sync.WaitGroup
	)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.registry.LeaveRoom("ABC123", model.Identity(fmt.Sprintf("m%d", i))).Deleted {
				mu.Lock()
				deleted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, deleted)
	s.False(s.registry.Exists("ABC123"))
}

// DeleteRoom tests

func (s *RegistrySuite) TestDeleteRoomNotifiesMembers() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")
	_, _, _ = s.registry.JoinRoom("ABC123", "bob", "")
	alice := s.subscribe("ABC123", "alice")
	bob := s.subscribe("ABC123", "bob")

	members, err := s.registry.DeleteRoom("ABC123", "root")
	s.Require().NoError(err)
	s.Equal([]model.Identity{"alice", "bob"}, members)

	for _, sub := range []*testutil.FakeSubscriber{alice, bob} {
		frames := sub.Frames()
		s.Require().Len(frames, 2)
		s.Equal(model.EventNewMessage, frames[0].Type)
		s.Equal(string(model.SystemAuthor), frames[0].Author)
		s.Equal(model.EventRoomDeleted, frames[1].Type)
		s.Equal("ABC123", frames[1].RoomCode)
		s.Equal("root", frames[1].Author)
	}
	s.False(s.registry.Exists("ABC123"))

	_, err = s.registry.AppendMessage("ABC123", "alice", "still here?")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestDeleteUnknownRoom() {
	_, err := s.registry.DeleteRoom("NOPE00", "root")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// ListRooms tests

func (s *RegistrySuite) TestListRoomsOrderedByCreation() {
	s.random.QueueString("ZZZ999", "AAA111")
	_, _ = s.registry.CreateRoom("First", "alice", "")
	s.clock.Advance(time.Minute)
	_, _ = s.registry.CreateRoom("Second", "bob", "pw")

	rooms := s.registry.ListRooms()
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomCode("ZZZ999"), rooms[0].Code)
	s.False(rooms[0].Protected)
	s.Equal(model.RoomCode("AAA111"), rooms[1].Code)
	s.True(rooms[1].Protected)
	s.Equal(1, rooms[1].MemberCount)
}

// GetRoom tests

func (s *RegistrySuite) TestGetRoomRequiresMembership() {
	s.random.QueueString("ABC123")
	_, _ = s.registry.CreateRoom("Lobby", "alice", "")

	_, err := s.registry.GetRoom("ABC123", "bob")
	s.ErrorIs(err, model.ErrNotInRoom)

	_, err = s.registry.GetRoom("NOPE00", "alice")
	s.ErrorIs(err, model.ErrRoomNotFound)
}
