package user

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
)

// ErrUnauthorized is returned when the request carries no usable session.
var ErrUnauthorized = apperr.Unauthorized("Unauthorized")

type Handler struct {
	service   *Service
	jwtSecret []byte
	jwtTTL    time.Duration
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func NewHandler(service *Service, jwtSecret string, jwtTTL time.Duration) *Handler {
	return &Handler{service: service, jwtSecret: []byte(jwtSecret), jwtTTL: jwtTTL}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Post("/api/v1/sign-in", h.login)
	app.Post("/api/v1/sign-up", h.register)
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/profile", h.getProfile)
	// PATCH and PUT both accept partial payloads
	app.Put("/api/v1/profile", h.updateProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}

	user, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return response.Fail(c, apperr.Unauthorized("Invalid email or password"))
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(h.jwtTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		return response.Fail(c, apperr.Internal("sign token", err))
	}

	return response.OK(c, "Login successful", fiber.Map{
		"user":  sanitizeUser(user),
		"token": signed,
	})
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}

	if fields := payload.missingFields(); len(fields) > 0 {
		return response.Fail(c, apperr.Validation("Missing required fields", fields...))
	}

	created, err := h.service.Register(c.UserContext(), User{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return response.Fail(c, apperr.Conflict("Email already exists"))
		}
		return response.Fail(c, err)
	}

	return response.Created(c, "Account created", sanitizeUser(created))
}

// getProfile returns the user record for the currently authenticated user.
func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}

	user, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, err)
	}

	return response.OK(c, "Profile fetched", sanitizeUser(user))
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, err)
	}

	var payload ProfileUpdate
	if err := c.BodyParser(&payload); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}

	updated, err := h.service.UpdateProfile(c.UserContext(), userID, payload)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.OK(c, "Profile updated", sanitizeUser(updated))
}

func (r registerRequest) missingFields() []apperr.FieldError {
	var out []apperr.FieldError
	for name, v := range map[string]string{"email": r.Email, "password": r.Password, "firstName": r.FirstName, "lastName": r.LastName} {
		if v == "" {
			out = append(out, apperr.Field(name, name+" is required"))
		}
	}
	return out
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in `c.Locals("user")`. Every protected handler goes through it.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return 0, ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrUnauthorized
	}
	if raw, ok := claims["user_id"]; ok {
		switch v := raw.(type) {
		case float64:
			return int(v), nil
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case string:
			id, err := strconv.Atoi(v)
			if err != nil {
				return 0, ErrUnauthorized
			}
			return id, nil
		}
	}
	return 0, ErrUnauthorized
}

// LookupID is GetUserIDFromCtx for callers that only need to know whether
// a user is present, such as the request logger.
func LookupID(c *fiber.Ctx) (int, bool) {
	id, err := GetUserIDFromCtx(c)
	return id, err == nil
}

func sanitizeUser(user User) User {
	user.Password = ""
	return user
}
