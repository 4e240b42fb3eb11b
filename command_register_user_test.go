package auth_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserMessageType(t *testing.T) {
	assert.Equal(t, "user.register", auth.RegisterUserMessage{}.Type())
}

func TestRegisterUserMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   auth.RegisterUserMessage
		wantErr bool
	}{
		{
			name: "Valid payload",
			event: auth.RegisterUserMessage{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     "ada@example.com",
				Password:  "password12345",
			},
			wantErr: false,
		},
		{
			name: "Missing email",
			event: auth.RegisterUserMessage{
				Password: "password12345",
			},
			wantErr: true,
		},
		{
			name: "Malformed email",
			event: auth.RegisterUserMessage{
				Email:    "not-an-email",
				Password: "password12345",
			},
			wantErr: true,
		},
		{
			name: "Password too short",
			event: auth.RegisterUserMessage{
				Email:    "ada@example.com",
				Password: "short",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterUserHandlerCreatesInactiveAccount(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	tokens := &MockVerificationTokens{}
	mailer := &MockMailer{}

	codec := auth.NewTokenCodec(newTestConfig())

	var createdUser *auth.User
	var createdRecord *auth.VerificationToken

	repo.On("Users").Return(users)
	repo.On("VerificationTokens").Return(tokens)
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()

	users.On("ExistsByEmail", mock.Anything, "ada@example.com").Return(false, nil).Once()
	users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			createdUser = args.Get(2).(*auth.User)
		}).
		Return(&auth.User{Email: "ada@example.com", FirstName: "Ada"}, nil).Once()

	tokens.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			createdRecord = args.Get(2).(*auth.VerificationToken)
		}).
		Return(&auth.VerificationToken{}, nil).Once()

	var mailedVars map[string]string
	mailer.On("Send", mock.Anything, "register", mock.Anything).
		Run(func(args mock.Arguments) {
			mailedVars = args.Get(2).(map[string]string)
		}).
		Return(nil).Once()

	handler := auth.NewRegisterUserHandler(repo, codec, newTestConfig()).
		WithMailer(mailer).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Example.COM",
		Phone:     "650-253-0000",
		Password:  "password12345",
	})
	require.NoError(t, err)

	require.NotNil(t, createdUser)
	assert.Equal(t, "ada@example.com", createdUser.Email)
	assert.False(t, createdUser.Active)
	assert.Equal(t, auth.ProviderLocal, createdUser.Provider)
	assert.Equal(t, "+16502530000", createdUser.Phone)
	assert.NotEmpty(t, createdUser.PasswordHash)
	assert.NotEqual(t, "password12345", createdUser.PasswordHash)
	require.NoError(t, auth.ComparePasswordAndHash("password12345", createdUser.PasswordHash))

	// the stored record and the signed token reference the same token id
	require.NotNil(t, createdRecord)
	assert.Equal(t, string(auth.PurposeEmailVerification), createdRecord.Purpose)
	assert.Equal(t, "ada@example.com", createdRecord.Email)
	assert.False(t, createdRecord.IsUsed)

	claims, err := codec.Verify(auth.PurposeEmailVerification, createdRecord.Token)
	require.NoError(t, err)
	assert.Equal(t, createdRecord.TokenID.String(), claims.TokenID)
	assert.Equal(t, "ada@example.com", claims.Email)

	require.NotNil(t, mailedVars)
	assert.True(t, strings.Contains(mailedVars["url"], "/verify/"), mailedVars["url"])
	assert.True(t, strings.Contains(mailedVars["url"], createdRecord.Token))

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestRegisterUserHandlerRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	repo.On("Users").Return(users)
	// lookup happens against the normalized form
	users.On("ExistsByEmail", mock.Anything, "ada@example.com").Return(true, nil).Once()

	codec := auth.NewTokenCodec(newTestConfig())
	handler := auth.NewRegisterUserHandler(repo, codec, newTestConfig()).WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "ADA@example.com",
		Password: "password12345",
	})
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)

	users.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterUserHandlerInvalidPayload(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}

	codec := auth.NewTokenCodec(newTestConfig())
	handler := auth.NewRegisterUserHandler(repo, codec, newTestConfig()).WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "not-an-email",
		Password: "password12345",
	})
	assert.Error(t, err)

	repo.AssertNotCalled(t, "Users")
}

func TestRegisterUserHandlerMailFailureKeepsAccount(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	tokens := &MockVerificationTokens{}
	mailer := &MockMailer{}

	repo.On("Users").Return(users)
	repo.On("VerificationTokens").Return(tokens)
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()

	users.On("ExistsByEmail", mock.Anything, "ada@example.com").Return(false, nil).Once()
	users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&auth.User{Email: "ada@example.com"}, nil).Once()
	tokens.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&auth.VerificationToken{}, nil).Once()

	mailer.On("Send", mock.Anything, "register", mock.Anything).
		Return(errors.New("smtp down")).Once()

	codec := auth.NewTokenCodec(newTestConfig())
	handler := auth.NewRegisterUserHandler(repo, codec, newTestConfig()).
		WithMailer(mailer).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "ada@example.com",
		Password: "password12345",
	})
	assert.ErrorIs(t, err, auth.ErrEmailDeliveryFailed)

	// the account and its token record were committed before the send
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestRegisterUserHandlerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &MockRepositoryManager{}
	codec := auth.NewTokenCodec(newTestConfig())
	handler := auth.NewRegisterUserHandler(repo, codec, newTestConfig()).WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "ada@example.com",
		Password: "password12345",
	})
	assert.Error(t, err)

	repo.AssertNotCalled(t, "Users")
}
