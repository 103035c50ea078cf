//
// users.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package service

import (
	"context"
	"errors"

	"github.com/samber/do/v2"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/repository"
)

// UsersSrv manage user accounts; used from the CLI only, the HTTP layer
// take usernames from the request path.
type UsersSrv struct {
	db        *db.Database
	usersRepo repository.Users
}

func NewUsersSrv(i do.Injector) (*UsersSrv, error) {
	return &UsersSrv{
		db:        do.MustInvoke[*db.Database](i),
		usersRepo: do.MustInvoke[repository.Users](i),
	}, nil
}

func (s *UsersSrv) GetUser(ctx context.Context, username string) (model.User, error) {
	if username == "" {
		return model.User{}, common.ErrEmptyUsername
	}

	user, err := db.InConnectionR(ctx, s.db, func(ctx context.Context) (*model.User, error) {
		return s.loadUser(ctx, username)
	})
	if err != nil {
		return model.User{}, err //nolint:wrapcheck
	}

	return *user, nil
}

func (s *UsersSrv) GetUsers(ctx context.Context) ([]model.User, error) {
	users, err := db.InConnectionR(ctx, s.db, func(ctx context.Context) ([]model.User, error) {
		return s.usersRepo.ListUsers(ctx)
	})
	if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	return users, nil
}

func (s *UsersSrv) AddUser(ctx context.Context, cmd *command.NewUserCmd) (command.NewUserCmdResult, error) {
	if cmd == nil {
		panic("cmd is nil")
	}

	res := command.NewUserCmdResult{}

	if err := cmd.Validate(); err != nil {
		return res, aerr.Wrapf(err, "validate user to add failed")
	}

	//nolint:wrapcheck
	return db.InTransactionR(ctx, s.db, func(ctx context.Context) (command.NewUserCmdResult, error) {
		_, err := s.usersRepo.GetUser(ctx, cmd.Username)
		if err == nil {
			return res, common.ErrUserExists
		} else if !errors.Is(err, common.ErrNoData) {
			return res, aerr.ApplyFor(ErrRepositoryError, err)
		}

		hash, err := hashPassword(cmd.Password)
		if err != nil {
			return res, err
		}

		user := model.User{
			UserName: cmd.Username,
			Password: hash,
			Email:    cmd.Email,
			Name:     cmd.Name,
		}

		res.UserID, err = s.usersRepo.SaveUser(ctx, &user)
		if err != nil {
			return res, aerr.ApplyFor(ErrRepositoryError, err)
		}

		return res, nil
	})
}

// ChangePassword set new password; this also unlock locked account.
func (s *UsersSrv) ChangePassword(ctx context.Context, cmd *command.ChangeUserPasswordCmd) error {
	if cmd == nil {
		panic("cmd is nil")
	}

	if err := cmd.Validate(); err != nil {
		return aerr.Wrapf(err, "validate user/password for save failed")
	}

	//nolint:wrapcheck
	return db.InTransaction(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadUser(ctx, cmd.Username)
		if err != nil {
			return err
		}

		if cmd.CheckCurrentPass && !checkPassword(cmd.CurrentPassword, user.Password) {
			return command.ErrChangePasswordOldNotMatch
		}

		if user.Password, err = hashPassword(cmd.Password); err != nil {
			return err
		}

		return s.saveUser(ctx, user)
	})
}

// LockAccount replace stored password hash with sentinel; account can be
// unlocked only by setting new password.
func (s *UsersSrv) LockAccount(ctx context.Context, cmd command.LockAccountCmd) error {
	if err := cmd.Validate(); err != nil {
		return aerr.Wrapf(err, "validate account to lock failed")
	}

	//nolint:wrapcheck
	return db.InTransaction(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadUser(ctx, cmd.Username)
		if err != nil {
			return err
		}

		user.Password = model.UserLockedPassword

		return s.saveUser(ctx, user)
	})
}

// DeleteUser remove account with all devices; subscription log entries
// are removed by cascade.
func (s *UsersSrv) DeleteUser(ctx context.Context, cmd *command.DeleteUserCmd) error {
	if err := cmd.Validate(); err != nil {
		return aerr.Wrapf(err, "validate cmd failed")
	}

	//nolint:wrapcheck
	return db.InTransaction(ctx, s.db, func(ctx context.Context) error {
		user, err := s.loadUser(ctx, cmd.Username)
		if err != nil {
			return err
		}

		if err = s.usersRepo.DeleteUser(ctx, user.ID); err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err)
		}

		return nil
	})
}

//-------------------------------------------------------------

// loadUser map missing row to ErrUnknownUser; must be called inside
// connection or transaction context.
func (s *UsersSrv) loadUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.usersRepo.GetUser(ctx, username)
	if errors.Is(err, common.ErrNoData) {
		return nil, common.ErrUnknownUser
	} else if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	return user, nil
}

func (s *UsersSrv) saveUser(ctx context.Context, user *model.User) error {
	if _, err := s.usersRepo.SaveUser(ctx, user); err != nil {
		return aerr.ApplyFor(ErrRepositoryError, err)
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", aerr.Wrapf(err, "hash password failed")
	}

	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
