package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"
	"cafe_backoffice/pkg/utils"
)

// --- Custom Service Errors for Customer ---
var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerEmailTaken = errors.New("email already belongs to another customer")
	ErrCustomerValidation = errors.New("customer data validation error")
	ErrCustomerInUse      = errors.New("customer cannot be deleted as they are referenced by orders")
	ErrInsufficientPoints = errors.New("insufficient points")
)

// --- Customer DTOs ---
type CreateCustomerRequest struct {
	Name           string  `json:"name" binding:"required"`
	Surname        *string `json:"surname"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	DocumentType   *string `json:"document_type"`
	DocumentNumber *string `json:"document_number"`
}

// UpdateCustomerRequest carries profile changes only; the loyalty balance is
// moved exclusively by the order workflow.
type UpdateCustomerRequest struct {
	Name           *string `json:"name"`
	Surname        *string `json:"surname"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	DocumentType   *string `json:"document_type"`
	DocumentNumber *string `json:"document_number"`
}

// --- CustomerService Interface ---
type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	GetCustomerOrders(ctx context.Context, id int64, page, pageSize int) ([]models.Order, int, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	orderRepo    repositories.OrderRepository
	db           *sql.DB
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(customerRepo repositories.CustomerRepository, orderRepo repositories.OrderRepository, db *sql.DB) CustomerService {
	return &customerService{customerRepo: customerRepo, orderRepo: orderRepo, db: db}
}

func normalizeEmail(email *string) (*string, error) {
	email = utils.TrimPtr(email)
	if email == nil {
		return nil, nil
	}
	lower := strings.ToLower(*email)
	if !utils.IsValidEmail(lower) {
		return nil, fmt.Errorf("%w: email format is invalid", ErrCustomerValidation)
	}
	return &lower, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrCustomerValidation)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:           name,
		Surname:        utils.TrimPtr(req.Surname),
		Email:          email,
		Phone:          utils.TrimPtr(req.Phone),
		Address:        utils.TrimPtr(req.Address),
		City:           utils.TrimPtr(req.City),
		DocumentType:   utils.TrimPtr(req.DocumentType),
		DocumentNumber: utils.TrimPtr(req.DocumentNumber),
		LoyaltyPoints:  0,
		LoyaltyTier:    models.TierForPoints(0),
	}
	if _, err := s.customerRepo.CreateCustomer(ctx, s.db, customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCustomerEmailTaken
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error) {
	if filters.Tier != nil && *filters.Tier != "" && !models.IsValidTier(*filters.Tier) {
		return nil, 0, fmt.Errorf("%w: invalid tier %q", ErrCustomerValidation, *filters.Tier)
	}
	filters.Page, filters.PageSize = NormalizePage(filters.Page, filters.PageSize)
	customers, total, err := s.customerRepo.ListCustomers(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrCustomerValidation)
		}
		customer.Name = name
	}
	if req.Email != nil {
		if customer.Email, err = normalizeEmail(req.Email); err != nil {
			return nil, err
		}
	}
	if req.Surname != nil {
		customer.Surname = utils.TrimPtr(req.Surname)
	}
	if req.Phone != nil {
		customer.Phone = utils.TrimPtr(req.Phone)
	}
	if req.Address != nil {
		customer.Address = utils.TrimPtr(req.Address)
	}
	if req.City != nil {
		customer.City = utils.TrimPtr(req.City)
	}
	if req.DocumentType != nil {
		customer.DocumentType = utils.TrimPtr(req.DocumentType)
	}
	if req.DocumentNumber != nil {
		customer.DocumentNumber = utils.TrimPtr(req.DocumentNumber)
	}

	if err := s.customerRepo.UpdateCustomer(ctx, s.db, customer); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrCustomerNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, ErrCustomerEmailTaken
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.customerRepo.CountOrders(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to check customer orders: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %d order(s)", ErrCustomerInUse, count)
		}
		if err := s.customerRepo.DeleteCustomer(ctx, tx, id); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				return ErrCustomerNotFound
			case errors.Is(err, repositories.ErrInUse):
				return ErrCustomerInUse
			}
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return nil
	})
}

// GetCustomerOrders returns the order history of a customer, newest first.
func (s *customerService) GetCustomerOrders(ctx context.Context, id int64, page, pageSize int) ([]models.Order, int, error) {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	orders, total, err := s.orderRepo.ListOrders(ctx, models.OrderFilters{CustomerID: &id, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customer orders: %w", err)
	}
	return orders, total, nil
}
