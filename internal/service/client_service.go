package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClientService struct {
	db         *gorm.DB
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
}

func NewClientService(db *gorm.DB, clientRepo *repository.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		db:         db,
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// Create inserts the client together with its contacts and addresses in one
// transaction. The display code is derived from the generated id, and the
// address list is normalized so exactly one address is primary.
func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.CreateClientResponse, error) {
	client := &domain.Client{
		ClientName: req.ClientName,
		Email:      req.Email,
		Website:    req.Website,
		Industry:   req.Industry,
		ClientType: req.ClientType,
		TaxID:      req.TaxID,
		Status:     domain.ClientStatusActive,
		Notes:      req.Notes,
		UserID:     req.UserID,
	}
	if req.Status != "" {
		client.Status = domain.ClientStatus(req.Status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.clientRepo.WithTx(tx)

		if err := repo.Create(ctx, client); err != nil {
			return err
		}

		client.ClientCode = repository.NextCode(client.ID)
		if err := repo.UpdateCode(ctx, client.ID, client.ClientCode); err != nil {
			return err
		}

		if err := repo.InsertContacts(ctx, buildContacts(client.ID, req.Contacts)); err != nil {
			return err
		}
		return repo.InsertAddresses(ctx, buildAddresses(client.ID, req.Addresses))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", translateDBError(err))
	}

	s.logger.Info("client created",
		zap.Uint("client_id", client.ID),
		zap.String("client_code", client.ClientCode),
	)

	return &domain.CreateClientResponse{
		ClientID:   client.ID,
		ClientCode: client.ClientCode,
	}, nil
}

func (s *ClientService) GetByID(ctx context.Context, id uint) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// Update applies coalesce semantics to scalar fields and replaces the contact
// and address lists wholesale, all inside one transaction.
func (s *ClientService) Update(ctx context.Context, id uint, req *domain.UpdateClientRequest) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	if req.ClientName != nil {
		client.ClientName = *req.ClientName
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Website != nil {
		client.Website = *req.Website
	}
	if req.Industry != nil {
		client.Industry = *req.Industry
	}
	if req.ClientType != nil {
		client.ClientType = *req.ClientType
	}
	if req.TaxID != nil {
		client.TaxID = *req.TaxID
	}
	if req.Status != nil {
		client.Status = domain.ClientStatus(*req.Status)
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}
	client.Contacts = nil
	client.Addresses = nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.clientRepo.WithTx(tx)

		if err := repo.Update(ctx, client); err != nil {
			return err
		}
		if err := repo.DeleteContacts(ctx, client.ID); err != nil {
			return err
		}
		if err := repo.DeleteAddresses(ctx, client.ID); err != nil {
			return err
		}
		if err := repo.InsertContacts(ctx, buildContacts(client.ID, req.Contacts)); err != nil {
			return err
		}
		return repo.InsertAddresses(ctx, buildAddresses(client.ID, req.Addresses))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", translateDBError(err))
	}

	return s.GetByID(ctx, id)
}

func (s *ClientService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	s.logger.Info("client deleted", zap.Uint("client_id", id))
	return nil
}

func (s *ClientService) List(ctx context.Context, page, pageSize int, filters *repository.ClientFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	clients, total, err := s.clientRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	return &domain.PaginatedResponse{
		Data:       clients,
		Pagination: domain.NewPagination(total, page, pageSize),
	}, nil
}

func buildContacts(clientID uint, inputs []domain.ContactInput) []domain.ClientContact {
	contacts := make([]domain.ClientContact, len(inputs))
	for i, input := range inputs {
		contacts[i] = domain.ClientContact{
			ClientID:    clientID,
			Name:        input.Name,
			Email:       input.Email,
			Phone:       input.Phone,
			Designation: input.Designation,
		}
	}
	return contacts
}

// buildAddresses normalizes the primary flag: the first address explicitly
// marked primary wins; when none is marked, the first address is promoted.
// Every other address is stored non-primary.
func buildAddresses(clientID uint, inputs []domain.AddressInput) []domain.ClientAddress {
	primaryIndex := -1
	for i, input := range inputs {
		if input.IsPrimary {
			primaryIndex = i
			break
		}
	}
	if primaryIndex == -1 && len(inputs) > 0 {
		primaryIndex = 0
	}

	addresses := make([]domain.ClientAddress, len(inputs))
	for i, input := range inputs {
		addresses[i] = domain.ClientAddress{
			ClientID:     clientID,
			AddressLine1: input.AddressLine1,
			AddressLine2: input.AddressLine2,
			City:         input.City,
			State:        input.State,
			Country:      input.Country,
			PostalCode:   input.PostalCode,
			IsPrimary:    i == primaryIndex,
		}
	}
	return addresses
}
