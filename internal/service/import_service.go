package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/presaleshub/crm-api/internal/domain"
	"go.uber.org/zap"
)

// Client import template, one header row plus one example row
const clientImportTemplate = "client_name,email,website,industry,client_type,tax_id,status,notes\n" +
	"Acme Corp,contact@acme.example,https://acme.example,Manufacturing,Enterprise,TAX-001,Active,Imported example\n"

// Opportunity import template
const opportunityImportTemplate = "opportunity_name,client_name,amount,currency,opportunity_type,lead_source,triage_status,pipeline_status,probability\n" +
	"Acme ERP Rollout,Acme Corp,125000,USD,New Business,Referral,Qualified,Open,60\n"

// ImportService runs bulk CSV imports. Rows are processed independently; a
// failed row is recorded in the result and never aborts the run.
type ImportService struct {
	clients       *ClientService
	opportunities *OpportunityService
	logger        *zap.Logger
}

func NewImportService(clients *ClientService, opportunities *OpportunityService, logger *zap.Logger) *ImportService {
	return &ImportService{
		clients:       clients,
		opportunities: opportunities,
		logger:        logger,
	}
}

// ClientTemplate returns the CSV template for client imports
func (s *ImportService) ClientTemplate() string {
	return clientImportTemplate
}

// OpportunityTemplate returns the CSV template for opportunity imports
func (s *ImportService) OpportunityTemplate() string {
	return opportunityImportTemplate
}

// ImportClients reads a CSV stream and creates one client per row. The first
// row must be a header naming the columns; unknown columns are ignored.
func (s *ImportService) ImportClients(ctx context.Context, userID uint, data io.Reader) (*domain.ImportResult, error) {
	rows, err := readCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &domain.ImportResult{Errors: []domain.ImportRowError{}}
	for i, row := range rows {
		result.Total++

		req := &domain.CreateClientRequest{
			ClientName: row["client_name"],
			Email:      row["email"],
			Website:    row["website"],
			Industry:   row["industry"],
			ClientType: row["client_type"],
			TaxID:      row["tax_id"],
			Status:     row["status"],
			Notes:      row["notes"],
			UserID:     userID,
		}

		if err := validateClientRow(req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.ImportRowError{Index: i, Error: err.Error(), Data: row})
			continue
		}
		if _, err := s.clients.Create(ctx, req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.ImportRowError{Index: i, Error: err.Error(), Data: row})
			continue
		}
		result.Success++
	}

	s.logger.Info("client import finished",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ImportOpportunities reads a CSV stream and creates one opportunity per row
func (s *ImportService) ImportOpportunities(ctx context.Context, userID uint, data io.Reader) (*domain.ImportResult, error) {
	rows, err := readCSV(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &domain.ImportResult{Errors: []domain.ImportRowError{}}
	for i, row := range rows {
		result.Total++

		req, err := opportunityRowToRequest(row, userID)
		if err == nil {
			_, err = s.opportunities.Create(ctx, req)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.ImportRowError{Index: i, Error: err.Error(), Data: row})
			continue
		}
		result.Success++
	}

	s.logger.Info("opportunity import finished",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// readCSV parses the stream into one map per data row, keyed by the header
// columns. Ragged rows are a parse error for the whole file.
func readCSV(data io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(data)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header row: %v", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data rows")
	}
	return rows, nil
}

func validateClientRow(req *domain.CreateClientRequest) error {
	if strings.TrimSpace(req.ClientName) == "" {
		return fmt.Errorf("client_name is required")
	}
	if req.Status != "" {
		switch domain.ClientStatus(req.Status) {
		case domain.ClientStatusActive, domain.ClientStatusInactive, domain.ClientStatusProspect:
		default:
			return fmt.Errorf("invalid status %q", req.Status)
		}
	}
	return nil
}

func opportunityRowToRequest(row map[string]string, userID uint) (*domain.CreateOpportunityRequest, error) {
	if strings.TrimSpace(row["opportunity_name"]) == "" {
		return nil, fmt.Errorf("opportunity_name is required")
	}

	req := &domain.CreateOpportunityRequest{
		OpportunityName: row["opportunity_name"],
		ClientName:      row["client_name"],
		Currency:        row["currency"],
		OpportunityType: row["opportunity_type"],
		LeadSource:      row["lead_source"],
		TriageStatus:    row["triage_status"],
		PipelineStatus:  row["pipeline_status"],
		UserID:          userID,
	}

	if raw := row["amount"]; raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil || amount < 0 {
			return nil, fmt.Errorf("invalid amount %q", raw)
		}
		req.Amount = amount
	}
	if raw := row["probability"]; raw != "" {
		probability, err := strconv.Atoi(raw)
		if err != nil || probability < 0 || probability > 100 {
			return nil, fmt.Errorf("invalid probability %q", raw)
		}
		req.Probability = probability
	}
	return req, nil
}
