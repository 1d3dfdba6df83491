package user

import "time"

type User struct {
	ID        int    `json:"userId"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	// PaymentCustomerID is the processor-side customer, created at most once.
	PaymentCustomerID *string   `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Profile is the subset of user fields checkout shows back to the shopper.
type Profile struct {
	ID        int    `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
}
