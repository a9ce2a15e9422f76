package domain

import "time"

// Pagination describes one page of a list response
type Pagination struct {
	Total           int64 `json:"total"`
	TotalPages      int   `json:"totalPages"`
	CurrentPage     int   `json:"currentPage"`
	PageSize        int   `json:"pageSize"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// PaginatedResponse is the shared envelope for list endpoints
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// NewPagination computes pagination metadata from a total count and page request
func NewPagination(total int64, page, pageSize int) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Total:           total,
		TotalPages:      totalPages,
		CurrentPage:     page,
		PageSize:        pageSize,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ContactInput is a contact supplied on client create/update
type ContactInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=30"`
	Designation string `json:"designation" validate:"max=100"`
}

// AddressInput is an address supplied on client create/update
type AddressInput struct {
	AddressLine1 string `json:"address_line1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2" validate:"max=255"`
	City         string `json:"city" validate:"max=100"`
	State        string `json:"state" validate:"max=100"`
	Country      string `json:"country" validate:"max=100"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	IsPrimary    bool   `json:"is_primary"`
}

// CreateClientRequest creates a client with its contacts and addresses in one call
type CreateClientRequest struct {
	ClientName string         `json:"client_name" validate:"required,max=255"`
	Email      string         `json:"email" validate:"omitempty,email"`
	Website    string         `json:"website" validate:"omitempty,url"`
	Industry   string         `json:"industry" validate:"max=100"`
	ClientType string         `json:"client_type" validate:"max=50"`
	TaxID      string         `json:"tax_id" validate:"max=50"`
	Status     string         `json:"status" validate:"omitempty,oneof=Active Inactive Prospect"`
	Notes      string         `json:"notes"`
	UserID     uint           `json:"user_id" validate:"required"`
	Contacts   []ContactInput `json:"contacts" validate:"dive"`
	Addresses  []AddressInput `json:"addresses" validate:"dive"`
}

// UpdateClientRequest updates a client. Omitted scalar fields retain their
// stored value; contacts and addresses are always replaced with the
// supplied lists.
type UpdateClientRequest struct {
	ClientName *string        `json:"client_name" validate:"omitempty,max=255"`
	Email      *string        `json:"email" validate:"omitempty,email"`
	Website    *string        `json:"website" validate:"omitempty,url"`
	Industry   *string        `json:"industry" validate:"omitempty,max=100"`
	ClientType *string        `json:"client_type" validate:"omitempty,max=50"`
	TaxID      *string        `json:"tax_id" validate:"omitempty,max=50"`
	Status     *string        `json:"status" validate:"omitempty,oneof=Active Inactive Prospect"`
	Notes      *string        `json:"notes"`
	Contacts   []ContactInput `json:"contacts" validate:"dive"`
	Addresses  []AddressInput `json:"addresses" validate:"dive"`
}

// CreateClientResponse returns the generated identifiers for a new client
type CreateClientResponse struct {
	ClientID   uint   `json:"client_id"`
	ClientCode string `json:"client_code"`
}

// NextStepInput is one follow-up step supplied on opportunity create/update
type NextStepInput struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Status      string `json:"status,omitempty"`
}

// CreateOpportunityRequest creates an opportunity
type CreateOpportunityRequest struct {
	OpportunityName string          `json:"opportunity_name" validate:"required,max=255"`
	ClientName      string          `json:"client_name" validate:"max=255"`
	CloseDate       *time.Time      `json:"close_date"`
	Amount          float64         `json:"amount" validate:"gte=0"`
	Currency        string          `json:"currency" validate:"max=10"`
	OpportunityType string          `json:"opportunity_type" validate:"max=50"`
	LeadSource      string          `json:"lead_source" validate:"max=100"`
	TriageStatus    string          `json:"triage_status" validate:"max=50"`
	PipelineStatus  string          `json:"pipeline_status" validate:"max=50"`
	Probability     int             `json:"probability" validate:"gte=0,lte=100"`
	NextSteps       []NextStepInput `json:"next_steps"`
	UserID          uint            `json:"user_id" validate:"required"`
	RoleID          *uint           `json:"role_id"`
}

// UpdateOpportunityRequest updates an opportunity. Supplied fields override,
// omitted fields retain their stored value. NextSteps are appended to the
// stored sequence, never replaced.
type UpdateOpportunityRequest struct {
	OpportunityName *string         `json:"opportunity_name" validate:"omitempty,max=255"`
	ClientName      *string         `json:"client_name" validate:"omitempty,max=255"`
	CloseDate       *time.Time      `json:"close_date"`
	Amount          *float64        `json:"amount" validate:"omitempty,gte=0"`
	Currency        *string         `json:"currency" validate:"omitempty,max=10"`
	OpportunityType *string         `json:"opportunity_type" validate:"omitempty,max=50"`
	LeadSource      *string         `json:"lead_source" validate:"omitempty,max=100"`
	TriageStatus    *string         `json:"triage_status" validate:"omitempty,max=50"`
	PipelineStatus  *string         `json:"pipeline_status" validate:"omitempty,max=50"`
	Probability     *int            `json:"probability" validate:"omitempty,gte=0,lte=100"`
	NextSteps       []NextStepInput `json:"next_steps"`
}

// OpportunityDTO is an opportunity with its next steps deserialized
type OpportunityDTO struct {
	Opportunity
	NextSteps []NextStep `json:"next_steps"`
}

// CreateRFPRequest creates an RFP. Files arrive separately as multipart parts.
type CreateRFPRequest struct {
	RFPTitle           string     `json:"rfp_title" validate:"required,max=255"`
	RFPType            string     `json:"rfp_type" validate:"max=50"`
	Status             string     `json:"status" validate:"omitempty,oneof=Draft 'In Progress' Submitted Cancelled"`
	Description        string     `json:"description"`
	SubmissionDeadline *time.Time `json:"submission_deadline"`
	SubmissionMode     string     `json:"submission_mode" validate:"max=50"`
	PortalURL          string     `json:"portal_url" validate:"omitempty,url"`
	QuestionDate       *time.Time `json:"question_date"`
	ResponseDate       *time.Time `json:"response_date"`
	UserID             uint       `json:"user_id" validate:"required"`
	OpportunityID      *uint      `json:"opportunity_id"`
}

// UpdateRFPRequest updates an RFP with coalesce semantics
type UpdateRFPRequest struct {
	RFPTitle           *string    `json:"rfp_title" validate:"omitempty,max=255"`
	RFPType            *string    `json:"rfp_type" validate:"omitempty,max=50"`
	Status             *string    `json:"status" validate:"omitempty,oneof=Draft 'In Progress' Submitted Cancelled"`
	Description        *string    `json:"description"`
	SubmissionDeadline *time.Time `json:"submission_deadline"`
	SubmissionMode     *string    `json:"submission_mode" validate:"omitempty,max=50"`
	PortalURL          *string    `json:"portal_url" validate:"omitempty,url"`
	QuestionDate       *time.Time `json:"question_date"`
	ResponseDate       *time.Time `json:"response_date"`
	OpportunityID      *uint      `json:"opportunity_id"`
}

// RFPDTO is an RFP with its documents grouped by category
type RFPDTO struct {
	RFP
	DocumentsByCategory map[DocumentCategory][]RFPDocument `json:"documents_by_category"`
}

// CreateSOWRequest creates a statement of work
type CreateSOWRequest struct {
	SOWTitle         string     `json:"sow_title" validate:"required,max=255"`
	ReleaseVersion   string     `json:"release_version" validate:"max=50"`
	ContractCurrency string     `json:"contract_currency" validate:"max=10"`
	ContractValue    float64    `json:"contract_value" validate:"gte=0"`
	KickoffDate      *time.Time `json:"kickoff_date"`
	ProposalID       string     `json:"proposal_id" validate:"max=100"`
	Scope            string     `json:"scope"`
	OpportunityID    uint       `json:"opportunity_id" validate:"required"`
	RFBID            uint       `json:"rfb_id" validate:"required"`
	UserID           uint       `json:"user_id" validate:"required"`
}

// SOWListFilters narrows a SOW list query
type SOWListFilters struct {
	OpportunityID *uint
	RFBID         *uint
	UserID        *uint
	Search        string
	SortBy        string
	SortOrder     string
}

// CreateRoleRequest adds a role to the lookup table. Capabilities per role
// live in the static RBAC configuration, not here.
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

// CreateRegionRequest adds a sales region, optionally tied to a country
type CreateRegionRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	CountryID *uint  `json:"country_id"`
}

// CreateCountryRequest adds a country to the region hierarchy
type CreateCountryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"omitempty,max=10"`
}

// RegisterUserRequest registers a new account (admin only). The temporary
// password is generated server-side and returned once.
type RegisterUserRequest struct {
	FullName  string `json:"full_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	RoleIDs   []uint `json:"role_ids" validate:"required,min=1"`
	RegionIDs []uint `json:"region_ids"`
}

// RegisterUserResponse returns the new account and its one-time temporary password
type RegisterUserResponse struct {
	User              UserDTO `json:"user"`
	TemporaryPassword string  `json:"temporary_password"`
}

// UpdateUserRequest updates an account. Role/region lists, when supplied,
// replace the existing assignments.
type UpdateUserRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
	RoleIDs   []uint  `json:"role_ids"`
	RegionIDs []uint  `json:"region_ids"`
}

// UserDTO is an account without its credential hash
type UserDTO struct {
	ID        uint       `json:"id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Status    UserStatus `json:"status"`
	Roles     []string   `json:"roles"`
	Regions   []string   `json:"regions"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LoginRequest authenticates an account
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the bearer token and the account profile
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// ImportRowError records one failed row of a bulk import
type ImportRowError struct {
	Index int               `json:"index"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

// ImportResult summarizes a bulk import run. A row failure never aborts the
// run; it is recorded here and processing continues.
type ImportResult struct {
	Total   int              `json:"total"`
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors"`
}

// DashboardStats aggregates headline counts and funnel breakdowns
type DashboardStats struct {
	TotalClients       int64            `json:"total_clients"`
	TotalOpportunities int64            `json:"total_opportunities"`
	TotalRFPs          int64            `json:"total_rfps"`
	TotalSOWs          int64            `json:"total_sows"`
	ConversionFunnel   []StageCount     `json:"conversion_funnel"`
	SourceDistribution []SourceCount    `json:"source_distribution"`
	PipelineValue      map[string]float64 `json:"pipeline_value"`
}

// StageCount is one approval-stage bucket of the conversion funnel
type StageCount struct {
	Stage ApprovalStage `json:"stage"`
	Count int64         `json:"count"`
}

// SourceCount is one lead-source bucket of the source distribution
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// SalesPerformanceRow aggregates opportunity outcomes per owner
type SalesPerformanceRow struct {
	UserID        uint    `json:"user_id"`
	FullName      string  `json:"full_name"`
	Opportunities int64   `json:"opportunities"`
	PipelineValue float64 `json:"pipeline_value"`
	Won           int64   `json:"won"`
	WinRate       float64 `json:"win_rate"`
}
