package authenticator_test

import (
	"testing"
	"time"

	"github.com/questx-lab/lottery/config"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/authenticator"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	engine := authenticator.NewTokenEngine[model.AccessToken]("secret", config.TokenConfigs{
		Expiration: time.Minute,
	})

	token, err := engine.Generate("user1", model.AccessToken{ID: "user1", Name: "alice"})
	require.NoError(t, err)

	info, err := engine.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user1", info.ID)
	require.Equal(t, "alice", info.Name)
}

func TestJWTExpiration(t *testing.T) {
	engine := authenticator.NewTokenEngine[model.AccessToken]("secret", config.TokenConfigs{
		Expiration: -time.Minute,
	})

	token, err := engine.Generate("user1", model.AccessToken{ID: "user1"})
	require.NoError(t, err)

	_, err = engine.Verify(token)
	require.Error(t, err)
}

func TestJWTWrongSecret(t *testing.T) {
	cfg := config.TokenConfigs{Expiration: time.Minute}
	token, err := authenticator.NewTokenEngine[model.AccessToken]("secret", cfg).
		Generate("user1", model.AccessToken{ID: "user1"})
	require.NoError(t, err)

	_, err = authenticator.NewTokenEngine[model.AccessToken]("other", cfg).Verify(token)
	require.Error(t, err)
}
