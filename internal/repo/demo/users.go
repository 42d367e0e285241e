package demo

import (
	"context"

	"github.com/geocoder89/vita/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(ctx context.Context, email, name, passwordHash string) (user.User, error) {
	email = user.NormalizeEmail(email)

	var (
		rec   userRecord
		taken bool
	)

	err := r.s.update(ctx, "users.create", func(d *dataset) error {
		for _, u := range d.Users {
			if u.Email == email {
				taken = true
				return errSkipWrite
			}
		}

		rec = userRecord{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         name,
			PasswordHash: passwordHash,
			CreatedAt:    r.s.now().UTC(),
		}
		d.Users = append(d.Users, rec)
		return nil
	})

	if taken {
		return user.User{}, user.ErrEmailTaken
	}
	if err != nil {
		return user.User{}, err
	}

	return rec.toUser(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	var (
		rec   userRecord
		found bool
	)

	err := r.s.view(ctx, "users.get_by_email", func(d *dataset) error {
		for _, u := range d.Users {
			if u.Email == email {
				rec, found = u, true
				return nil
			}
		}
		return nil
	})

	if err != nil {
		return user.User{}, err
	}
	if !found {
		return user.User{}, user.ErrNotFound
	}

	return rec.toUser(), nil
}

func (u userRecord) toUser() user.User {
	return user.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}
