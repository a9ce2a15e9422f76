package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/presaleshub/crm-api/internal/mapper"
	"github.com/presaleshub/crm-api/internal/repository"
	"github.com/presaleshub/crm-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileUpload is one incoming file with its metadata
type FileUpload struct {
	Filename    string
	ContentType string
	Category    domain.DocumentCategory
	Data        io.Reader
}

// storedFile tracks a file already written to storage so it can be removed
// if the surrounding transaction fails
type storedFile struct {
	upload     FileUpload
	storedName string
	size       int64
}

type RFPService struct {
	db              *gorm.DB
	rfpRepo         *repository.RFPRepository
	opportunityRepo *repository.OpportunityRepository
	store           storage.Storage
	logger          *zap.Logger
}

func NewRFPService(
	db *gorm.DB,
	rfpRepo *repository.RFPRepository,
	opportunityRepo *repository.OpportunityRepository,
	store storage.Storage,
	logger *zap.Logger,
) *RFPService {
	return &RFPService{
		db:              db,
		rfpRepo:         rfpRepo,
		opportunityRepo: opportunityRepo,
		store:           store,
		logger:          logger,
	}
}

// Create inserts an RFP with its documents. Files are written to storage
// first; if the database transaction then fails, every written file is
// deleted so no orphans remain. Creating an RFP with status Submitted against
// an opportunity advances that opportunity to the SOW stage in the same
// transaction.
func (s *RFPService) Create(ctx context.Context, req *domain.CreateRFPRequest, files []FileUpload) (*domain.RFPDTO, error) {
	if err := validateCategories(files); err != nil {
		return nil, err
	}
	if err := s.checkOpportunity(ctx, req.OpportunityID); err != nil {
		return nil, err
	}

	rfp := &domain.RFP{
		RFPTitle:           req.RFPTitle,
		RFPType:            req.RFPType,
		Status:             domain.RFPStatusDraft,
		Description:        req.Description,
		SubmissionDeadline: req.SubmissionDeadline,
		SubmissionMode:     req.SubmissionMode,
		PortalURL:          req.PortalURL,
		QuestionDate:       req.QuestionDate,
		ResponseDate:       req.ResponseDate,
		UserID:             req.UserID,
		OpportunityID:      req.OpportunityID,
	}
	if req.Status != "" {
		rfp.Status = domain.RFPStatus(req.Status)
	}

	stored, err := s.uploadFiles(ctx, "rfp", files)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.rfpRepo.WithTx(tx)

		if err := repo.Create(ctx, rfp); err != nil {
			return err
		}

		documents := make([]domain.RFPDocument, len(stored))
		for i, file := range stored {
			documents[i] = domain.RFPDocument{
				RFPID:        rfp.ID,
				OriginalName: file.upload.Filename,
				StoredName:   file.storedName,
				MimeType:     file.upload.ContentType,
				Size:         file.size,
				Category:     file.upload.Category,
			}
		}
		if err := repo.InsertDocuments(ctx, documents); err != nil {
			return err
		}

		if rfp.Status == domain.RFPStatusSubmitted && rfp.OpportunityID != nil {
			return s.opportunityRepo.WithTx(tx).AdvanceStage(ctx, *rfp.OpportunityID, domain.StageLevel2SOW)
		}
		return nil
	})
	if err != nil {
		s.cleanupFiles(ctx, stored)
		return nil, fmt.Errorf("failed to create rfp: %w", translateDBError(err))
	}

	s.logger.Info("rfp created",
		zap.Uint("rfp_id", rfp.ID),
		zap.String("status", string(rfp.Status)),
		zap.Int("documents", len(stored)),
	)

	return s.GetByID(ctx, rfp.ID)
}

func (s *RFPService) GetByID(ctx context.Context, id uint) (*domain.RFPDTO, error) {
	rfp, err := s.rfpRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rfp: %w", err)
	}
	dto := mapper.ToRFPDTO(rfp)
	return &dto, nil
}

// GetByOpportunity returns every RFP tied to an opportunity
func (s *RFPService) GetByOpportunity(ctx context.Context, opportunityID uint) ([]domain.RFPDTO, error) {
	rfps, err := s.rfpRepo.GetByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rfps for opportunity: %w", err)
	}
	dtos := make([]domain.RFPDTO, len(rfps))
	for i := range rfps {
		dtos[i] = mapper.ToRFPDTO(&rfps[i])
	}
	return dtos, nil
}

// Update applies coalesce semantics and appends any newly uploaded documents.
// A transition to Submitted advances the linked opportunity to the SOW stage.
func (s *RFPService) Update(ctx context.Context, id uint, req *domain.UpdateRFPRequest, files []FileUpload) (*domain.RFPDTO, error) {
	if err := validateCategories(files); err != nil {
		return nil, err
	}

	rfp, err := s.rfpRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rfp: %w", err)
	}

	if req.OpportunityID != nil {
		if err := s.checkOpportunity(ctx, req.OpportunityID); err != nil {
			return nil, err
		}
		rfp.OpportunityID = req.OpportunityID
	}
	if req.RFPTitle != nil {
		rfp.RFPTitle = *req.RFPTitle
	}
	if req.RFPType != nil {
		rfp.RFPType = *req.RFPType
	}
	if req.Status != nil {
		rfp.Status = domain.RFPStatus(*req.Status)
	}
	if req.Description != nil {
		rfp.Description = *req.Description
	}
	if req.SubmissionDeadline != nil {
		rfp.SubmissionDeadline = req.SubmissionDeadline
	}
	if req.SubmissionMode != nil {
		rfp.SubmissionMode = *req.SubmissionMode
	}
	if req.PortalURL != nil {
		rfp.PortalURL = *req.PortalURL
	}
	if req.QuestionDate != nil {
		rfp.QuestionDate = req.QuestionDate
	}
	if req.ResponseDate != nil {
		rfp.ResponseDate = req.ResponseDate
	}
	rfp.Documents = nil

	stored, err := s.uploadFiles(ctx, "rfp", files)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.rfpRepo.WithTx(tx)

		if err := repo.Update(ctx, rfp); err != nil {
			return err
		}

		documents := make([]domain.RFPDocument, len(stored))
		for i, file := range stored {
			documents[i] = domain.RFPDocument{
				RFPID:        rfp.ID,
				OriginalName: file.upload.Filename,
				StoredName:   file.storedName,
				MimeType:     file.upload.ContentType,
				Size:         file.size,
				Category:     file.upload.Category,
			}
		}
		if err := repo.InsertDocuments(ctx, documents); err != nil {
			return err
		}

		if rfp.Status == domain.RFPStatusSubmitted && rfp.OpportunityID != nil {
			return s.opportunityRepo.WithTx(tx).AdvanceStage(ctx, *rfp.OpportunityID, domain.StageLevel2SOW)
		}
		return nil
	})
	if err != nil {
		s.cleanupFiles(ctx, stored)
		return nil, fmt.Errorf("failed to update rfp: %w", translateDBError(err))
	}

	return s.GetByID(ctx, id)
}

// Delete removes the RFP, its document rows and the stored files
func (s *RFPService) Delete(ctx context.Context, id uint) error {
	rfp, err := s.rfpRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get rfp: %w", err)
	}

	if err := s.rfpRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete rfp: %w", err)
	}

	for _, document := range rfp.Documents {
		if err := s.store.Delete(ctx, document.StoredName); err != nil {
			s.logger.Warn("failed to delete stored rfp file",
				zap.String("stored_name", document.StoredName),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("rfp deleted", zap.Uint("rfp_id", id))
	return nil
}

// DownloadDocument streams one stored document
func (s *RFPService) DownloadDocument(ctx context.Context, rfpID, documentID uint) (*domain.RFPDocument, io.ReadCloser, error) {
	documents, err := s.rfpRepo.GetDocuments(ctx, rfpID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rfp documents: %w", err)
	}
	for i := range documents {
		if documents[i].ID == documentID {
			reader, err := s.store.Download(ctx, documents[i].StoredName)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
			}
			return &documents[i], reader, nil
		}
	}
	return nil, nil, ErrNotFound
}

func (s *RFPService) List(ctx context.Context, page, pageSize int, filters *repository.RFPFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPage(page, pageSize)

	rfps, total, err := s.rfpRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list rfps: %w", err)
	}

	dtos := make([]domain.RFPDTO, len(rfps))
	for i := range rfps {
		dtos[i] = mapper.ToRFPDTO(&rfps[i])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Pagination: domain.NewPagination(total, page, pageSize),
	}, nil
}

// checkOpportunity verifies a referenced opportunity exists before any file
// is written. The foreign key still guards against concurrent deletion.
func (s *RFPService) checkOpportunity(ctx context.Context, opportunityID *uint) error {
	if opportunityID == nil {
		return nil
	}
	exists, err := s.opportunityRepo.Exists(ctx, *opportunityID)
	if err != nil {
		return fmt.Errorf("failed to check opportunity: %w", err)
	}
	if !exists {
		return ErrInvalidOpportunity
	}
	return nil
}

func (s *RFPService) uploadFiles(ctx context.Context, prefix string, files []FileUpload) ([]storedFile, error) {
	stored := make([]storedFile, 0, len(files))
	for _, file := range files {
		storedName, size, err := s.store.Upload(ctx, prefix, file.Filename, file.ContentType, file.Data)
		if err != nil {
			s.cleanupFiles(ctx, stored)
			return nil, fmt.Errorf("failed to store file %s: %w", file.Filename, err)
		}
		stored = append(stored, storedFile{upload: file, storedName: storedName, size: size})
	}
	return stored, nil
}

func (s *RFPService) cleanupFiles(ctx context.Context, stored []storedFile) {
	for _, file := range stored {
		if err := s.store.Delete(ctx, file.storedName); err != nil {
			s.logger.Warn("failed to remove orphaned file",
				zap.String("stored_name", file.storedName),
				zap.Error(err),
			)
		}
	}
}

func validateCategories(files []FileUpload) error {
	for _, file := range files {
		if !domain.IsValidDocumentCategory(file.Category) {
			return fmt.Errorf("%w: unknown document category %q", ErrInvalidInput, file.Category)
		}
	}
	return nil
}
