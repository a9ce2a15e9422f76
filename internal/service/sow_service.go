package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SOWService struct {
	db              *gorm.DB
	sowRepo         *repository.SOWRepository
	opportunityRepo *repository.OpportunityRepository
	store           storage.Storage
	logger          *zap.Logger
}

func NewSOWService(
	db *gorm.DB,
	sowRepo *repository.SOWRepository,
	opportunityRepo *repository.OpportunityRepository,
	store storage.Storage,
	logger *zap.Logger,
) *SOWService {
	return &SOWService{
		db:              db,
		sowRepo:         sowRepo,
		opportunityRepo: opportunityRepo,
		store:           store,
		logger:          logger,
	}
}

// Create inserts a SOW with its documents. The SOW must reference an existing
// opportunity; files follow the same write-then-rollback discipline as RFPs.
func (s *SOWService) Create(ctx context.Context, req *domain.CreateSOWRequest, files []FileUpload) (*domain.SOW, error) {
	exists, err := s.opportunityRepo.Exists(ctx, req.OpportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to check opportunity: %w", err)
	}
	if !exists {
		return nil, ErrInvalidOpportunity
	}

	sow := &domain.SOW{
		SOWTitle:         req.SOWTitle,
		ReleaseVersion:   req.ReleaseVersion,
		ContractCurrency: req.ContractCurrency,
		ContractValue:    req.ContractValue,
		KickoffDate:      req.KickoffDate,
		ProposalID:       req.ProposalID,
		Scope:            req.Scope,
		OpportunityID:    req.OpportunityID,
		RFBID:            req.RFBID,
		UserID:           req.UserID,
	}

	stored := []storedFile{}
	for _, file := range files {
		storedName, size, err := s.store.Upload(ctx, "sow", file.Filename, file.ContentType, file.Data)
		if err != nil {
			s.cleanupFiles(ctx, stored)
			return nil, fmt.Errorf("failed to store file %s: %w", file.Filename, err)
		}
		stored = append(stored, storedFile{upload: file, storedName: storedName, size: size})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.sowRepo.WithTx(tx)

		if err := repo.Create(ctx, sow); err != nil {
			return err
		}

		documents := make([]domain.SOWDocument, len(stored))
		for i, file := range stored {
			documents[i] = domain.SOWDocument{
				SOWID:        sow.ID,
				OriginalName: file.upload.Filename,
				StoredName:   file.storedName,
				MimeType:     file.upload.ContentType,
				Size:         file.size,
			}
		}
		return repo.InsertDocuments(ctx, documents)
	})
	if err != nil {
		s.cleanupFiles(ctx, stored)
		return nil, fmt.Errorf("failed to create sow: %w", translateDBError(err))
	}

	s.logger.Info("sow created",
		zap.Uint("sow_id", sow.ID),
		zap.Uint("opportunity_id", sow.OpportunityID),
	)

	return s.GetByID(ctx, sow.ID)
}

func (s *SOWService) GetByID(ctx context.Context, id uint) (*domain.SOW, error) {
	sow, err := s.sowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sow: %w", err)
	}
	return sow, nil
}

// Delete removes the SOW, its document rows and the stored files
func (s *SOWService) Delete(ctx context.Context, id uint) error {
	sow, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sowRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sow: %w", err)
	}

	for _, document := range sow.Documents {
		if err := s.store.Delete(ctx, document.StoredName); err != nil {
			s.logger.Warn("failed to delete stored sow file",
				zap.String("stored_name", document.StoredName),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("sow deleted", zap.Uint("sow_id", id))
	return nil
}

// List pages SOWs with an allow-listed sort key. Unknown keys are rejected
// rather than silently defaulted.
func (s *SOWService) List(ctx context.Context, page, pageSize int, filters *domain.SOWListFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	sortColumn := "created_at"
	sortOrder := "desc"
	if filters != nil {
		column, err := repository.SOWSortColumn(filters.SortBy)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSortKey, filters.SortBy)
		}
		sortColumn = column
		if filters.SortOrder == "asc" {
			sortOrder = "asc"
		}
	}

	sows, total, err := s.sowRepo.List(ctx, page, pageSize, filters, sortColumn, sortOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list sows: %w", err)
	}

	return &domain.PaginatedResponse{
		Data:       sows,
		Pagination: domain.NewPagination(total, page, pageSize),
	}, nil
}

// DownloadDocument streams one stored SOW document
func (s *SOWService) DownloadDocument(ctx context.Context, sowID, documentID uint) (*domain.SOWDocument, io.ReadCloser, error) {
	document, err := s.sowRepo.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get sow document: %w", err)
	}
	if document.SOWID != sowID {
		return nil, nil, ErrNotFound
	}

	reader, err := s.store.Download(ctx, document.StoredName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return document, reader, nil
}

// DeleteDocument removes one document row and its stored file
func (s *SOWService) DeleteDocument(ctx context.Context, sowID, documentID uint) error {
	document, err := s.sowRepo.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get sow document: %w", err)
	}
	if document.SOWID != sowID {
		return ErrNotFound
	}

	if err := s.sowRepo.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete sow document: %w", err)
	}

	if err := s.store.Delete(ctx, document.StoredName); err != nil {
		s.logger.Warn("failed to delete stored sow file",
			zap.String("stored_name", document.StoredName),
			zap.Error(err),
		)
	}
	return nil
}

func (s *SOWService) cleanupFiles(ctx context.Context, stored []storedFile) {
	for _, file := range stored {
		if err := s.store.Delete(ctx, file.storedName); err != nil {
			s.logger.Warn("failed to remove orphaned file",
				zap.String("stored_name", file.storedName),
				zap.Error(err),
			)
		}
	}
}
