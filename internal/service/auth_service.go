package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"parkfacil/internal/db"
	"parkfacil/internal/repository"
)

const (
	RoleOperator = "operator"
	RoleCustomer = "customer"
)

type AuthService interface {
	OperatorLogin(email, password string) (string, error)
	CustomerLogin(email, password string) (string, *db.Customer, error)
	RegisterOperator(name, email, password string) (*db.Operator, error)
	RegisterCustomer(name, email, password, phone string) (*db.Customer, error)
	Me(id int, role string) (map[string]interface{}, error)
}

type authService struct {
	repo *repository.AccountRepository
}

func NewAuthService(repo *repository.AccountRepository) AuthService {
	return &authService{repo: repo}
}

func (s *authService) OperatorLogin(email, password string) (string, error) {
	op, err := s.repo.OperatorByEmail(email)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}
	return signToken(op.ID, op.Email, RoleOperator)
}

func (s *authService) CustomerLogin(email, password string) (string, *db.Customer, error) {
	c, err := s.repo.CustomerByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if c == nil {
		return "", nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	token, err := signToken(c.ID, c.Email, RoleCustomer)
	if err != nil {
		return "", nil, err
	}
	return token, c, nil
}

func (s *authService) RegisterOperator(name, email, password string) (*db.Operator, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password cannot be empty")
	}
	return s.repo.CreateOperator(name, email, password)
}

func (s *authService) RegisterCustomer(name, email, password, phone string) (*db.Customer, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password cannot be empty")
	}
	return s.repo.CreateCustomer(name, email, password, phone)
}

// Me resolves the authenticated account's profile from its token claims.
func (s *authService) Me(id int, role string) (map[string]interface{}, error) {
	if role == RoleOperator {
		op, err := s.repo.Operator(id)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"id": op.ID, "name": op.Name, "email": op.Email, "role": RoleOperator,
		}, nil
	}
	c, err := s.repo.Customer(id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id": c.ID, "name": c.Name, "email": c.Email, "phone": c.Phone, "role": RoleCustomer,
	}, nil
}

func signToken(id int, email, role string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}
	claims := jwt.MapClaims{
		"sub":   id,
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(8 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
