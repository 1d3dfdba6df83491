package user

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id int) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPaymentCustomerID(ctx context.Context, customerID string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdateProfile(ctx context.Context, id int, user User) (User, error)
	SetPaymentCustomerID(ctx context.Context, id int, customerID string) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	maxID := 0
	for _, user := range seed {
		repo.users = append(repo.users, user)
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	return r.find(func(u User) bool { return u.ID == id })
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	return r.find(func(u User) bool { return u.Email == email })
}

func (r *InMemoryRepository) GetByPaymentCustomerID(_ context.Context, customerID string) (User, error) {
	return r.find(func(u User) bool { return u.PaymentCustomerID != nil && *u.PaymentCustomerID == customerID })
}

func (r *InMemoryRepository) find(match func(User) bool) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return User{}, ErrEmailExists
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users = append(r.users, user)
	return user, nil
}

func (r *InMemoryRepository) UpdateProfile(_ context.Context, id int, update User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, user := range r.users {
		if user.ID == id {
			user.FirstName = update.FirstName
			user.LastName = update.LastName
			user.Phone = update.Phone
			user.UpdatedAt = time.Now().UTC()
			r.users[i] = user
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) SetPaymentCustomerID(_ context.Context, id int, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, user := range r.users {
		if user.ID == id {
			if user.PaymentCustomerID == nil {
				user.PaymentCustomerID = &customerID
				r.users[i] = user
			}
			return nil
		}
	}
	return ErrNotFound
}
