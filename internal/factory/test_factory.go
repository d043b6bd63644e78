package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roomchat/internal/dependencies/mocks"
	"github.com/mcoot/roomchat/internal/services/auth"
	"github.com/mcoot/roomchat/internal/services/registry"
	"github.com/mcoot/roomchat/internal/storage/memory"
	"github.com/mcoot/roomchat/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	// Cheap hashing keeps tests fast
	authCfg := auth.DefaultConfig()
	authCfg.PasswordCost = bcrypt.MinCost
	regCfg := registry.DefaultConfig()
	regCfg.PasswordCost = bcrypt.MinCost

	app := newWithDependencies(store, mockClock, mockRandom, authCfg, regCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
