package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"
)

func (s *srv) genTriggerKey(cctx *cli.Context) error {
	key := cctx.String("key")
	if key == "" {
		key = uuid.NewString()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	fmt.Printf("key: %s\nAUTH_TRIGGER_KEY_HASH=%s\n", key, hash)
	return nil
}

func (s *srv) genAccessToken(cctx *cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.loadAccessTokenEngine()
	s.loadRepos()

	user, err := s.userRepo.GetByID(s.ctx, cctx.String("user"))
	if err != nil {
		return fmt.Errorf("cannot get user: %w", err)
	}

	token, err := s.accessTokenEngine.Generate(user.ID, model.AccessToken{ID: user.ID, Name: user.Name})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
