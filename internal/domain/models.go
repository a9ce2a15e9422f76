package domain

import (
	"time"
)

// BaseModel contains common fields for all entities
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserStatus represents the lifecycle state of an account
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// ClientStatus represents the lifecycle state of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "Active"
	ClientStatusInactive ClientStatus = "Inactive"
	ClientStatusProspect ClientStatus = "Prospect"
)

// ApprovalStage tracks an opportunity's progress through the presales pipeline
type ApprovalStage string

const (
	StageLevel1RFB      ApprovalStage = "LEVEL_1_RFB"
	StageLevel2SOW      ApprovalStage = "LEVEL_2_SOW"
	StageLevel3Contract ApprovalStage = "LEVEL_3_CONTRACT"
)

// RFPStatus represents the state of an RFP
type RFPStatus string

const (
	RFPStatusDraft      RFPStatus = "Draft"
	RFPStatusInProgress RFPStatus = "In Progress"
	RFPStatusSubmitted  RFPStatus = "Submitted"
	RFPStatusCancelled  RFPStatus = "Cancelled"
)

// DocumentCategory classifies uploaded RFP documents
type DocumentCategory string

const (
	CategoryCommercial   DocumentCategory = "commercial"
	CategoryProposal     DocumentCategory = "proposal"
	CategoryPresentation DocumentCategory = "presentation"
	CategoryQADocument   DocumentCategory = "qa_document"
	CategoryOther        DocumentCategory = "other"
)

// DocumentCategories lists every accepted RFP document category
var DocumentCategories = []DocumentCategory{
	CategoryCommercial,
	CategoryProposal,
	CategoryPresentation,
	CategoryQADocument,
	CategoryOther,
}

// IsValidDocumentCategory reports whether c is an accepted category
func IsValidDocumentCategory(c DocumentCategory) bool {
	for _, valid := range DocumentCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// User represents an account that can authenticate against the API
type User struct {
	BaseModel
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Status       UserStatus `gorm:"size:20;not null;default:active" json:"status"`

	Roles   []Role   `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	Regions []Region `gorm:"many2many:user_regions;constraint:OnDelete:CASCADE" json:"regions,omitempty"`
}

// Role is a named role users can be assigned. The capability set per role
// lives in the static RBAC configuration, not the database.
type Role struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
}

// Country is reference data for the region hierarchy
type Country struct {
	BaseModel
	Name     string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Code     string `gorm:"size:10" json:"code,omitempty"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// Region is reference data scoping users to sales territories
type Region struct {
	BaseModel
	Name      string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	CountryID *uint  `json:"country_id,omitempty"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`

	Country *Country `gorm:"foreignKey:CountryID" json:"country,omitempty"`
}

// Client is a customer organization
type Client struct {
	BaseModel
	ClientCode string       `gorm:"size:20;uniqueIndex" json:"client_code"`
	ClientName string       `gorm:"size:255;not null" json:"client_name"`
	Email      string       `gorm:"size:100" json:"email,omitempty"`
	Website    string       `gorm:"size:255" json:"website,omitempty"`
	Industry   string       `gorm:"size:100" json:"industry,omitempty"`
	ClientType string       `gorm:"size:50" json:"client_type,omitempty"`
	TaxID      string       `gorm:"size:50" json:"tax_id,omitempty"`
	Status     ClientStatus `gorm:"size:20;default:Active" json:"status"`
	Notes      string       `gorm:"type:text" json:"notes,omitempty"`
	UserID     uint         `json:"user_id"`

	Contacts  []ClientContact `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"contacts,omitempty"`
	Addresses []ClientAddress `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
}

// ClientContact is a contact person belonging to a client.
// Contacts are replaced wholesale on client update, never patched.
type ClientContact struct {
	BaseModel
	ClientID    uint   `gorm:"index;not null" json:"client_id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Email       string `gorm:"size:100" json:"email,omitempty"`
	Phone       string `gorm:"size:30" json:"phone,omitempty"`
	Designation string `gorm:"size:100" json:"designation,omitempty"`
}

// ClientAddress is a postal address belonging to a client.
// Exactly one address per client carries is_primary.
type ClientAddress struct {
	BaseModel
	ClientID     uint   `gorm:"index;not null" json:"client_id"`
	AddressLine1 string `gorm:"size:255;not null" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2,omitempty"`
	City         string `gorm:"size:100" json:"city,omitempty"`
	State        string `gorm:"size:100" json:"state,omitempty"`
	Country      string `gorm:"size:100" json:"country,omitempty"`
	PostalCode   string `gorm:"size:20" json:"postal_code,omitempty"`
	IsPrimary    bool   `gorm:"default:false" json:"is_primary"`
}

// NextStep is one follow-up action item on an opportunity. The full sequence
// is serialized as a JSON array into the opportunity's next_steps column.
type NextStep struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Status      string `json:"status,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Opportunity is a potential deal moving through the approval pipeline
type Opportunity struct {
	BaseModel
	OpportunityName string        `gorm:"size:255;not null" json:"opportunity_name"`
	ClientName      string        `gorm:"size:255" json:"client_name,omitempty"`
	CloseDate       *time.Time    `json:"close_date,omitempty"`
	Amount          float64       `json:"amount"`
	Currency        string        `gorm:"size:10" json:"currency,omitempty"`
	OpportunityType string        `gorm:"size:50" json:"opportunity_type,omitempty"`
	LeadSource      string        `gorm:"size:100" json:"lead_source,omitempty"`
	TriageStatus    string        `gorm:"size:50" json:"triage_status,omitempty"`
	PipelineStatus  string        `gorm:"size:50" json:"pipeline_status,omitempty"`
	Probability     int           `json:"probability"`
	ApprovalStage   ApprovalStage `gorm:"size:30;default:LEVEL_1_RFB" json:"approval_stage"`
	NextSteps       string        `gorm:"type:text" json:"-"`
	UserID          uint          `json:"user_id"`
	RoleID          *uint         `json:"role_id,omitempty"`
}

// RFP is a request-for-proposal tied to an opportunity
type RFP struct {
	BaseModel
	RFPTitle           string     `gorm:"size:255;not null" json:"rfp_title"`
	RFPType            string     `gorm:"size:50" json:"rfp_type,omitempty"`
	Status             RFPStatus  `gorm:"size:30;default:Draft" json:"status"`
	Description        string     `gorm:"type:text" json:"description,omitempty"`
	SubmissionDeadline *time.Time `json:"submission_deadline,omitempty"`
	SubmissionMode     string     `gorm:"size:50" json:"submission_mode,omitempty"`
	PortalURL          string     `gorm:"size:500" json:"portal_url,omitempty"`
	QuestionDate       *time.Time `json:"question_date,omitempty"`
	ResponseDate       *time.Time `json:"response_date,omitempty"`
	UserID             uint       `json:"user_id"`
	OpportunityID      *uint      `gorm:"index" json:"opportunity_id,omitempty"`

	Documents []RFPDocument `gorm:"foreignKey:RFPID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// RFPDocument is metadata for one stored RFP file
type RFPDocument struct {
	BaseModel
	RFPID        uint             `gorm:"index;not null" json:"rfp_id"`
	OriginalName string           `gorm:"size:255;not null" json:"original_name"`
	StoredName   string           `gorm:"size:255;not null" json:"stored_name"`
	MimeType     string           `gorm:"size:100" json:"mime_type,omitempty"`
	Size         int64            `json:"size"`
	Category     DocumentCategory `gorm:"size:30;not null" json:"category"`
}

// SOW is a statement of work linked to an opportunity and an RFP
type SOW struct {
	BaseModel
	SOWTitle         string     `gorm:"size:255;not null" json:"sow_title"`
	ReleaseVersion   string     `gorm:"size:50" json:"release_version,omitempty"`
	ContractCurrency string     `gorm:"size:10" json:"contract_currency,omitempty"`
	ContractValue    float64    `json:"contract_value"`
	KickoffDate      *time.Time `json:"kickoff_date,omitempty"`
	ProposalID       string     `gorm:"size:100" json:"proposal_id,omitempty"`
	Scope            string     `gorm:"type:text" json:"scope,omitempty"`
	OpportunityID    uint       `gorm:"index;not null" json:"opportunity_id"`
	RFBID            uint       `gorm:"index;not null;column:rfb_id" json:"rfb_id"`
	UserID           uint       `json:"user_id"`

	Documents []SOWDocument `gorm:"foreignKey:SOWID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// TableName keeps the table name short
func (SOW) TableName() string {
	return "sows"
}

// SOWDocument is metadata for one stored SOW file
type SOWDocument struct {
	BaseModel
	SOWID        uint   `gorm:"index;not null;column:sow_id" json:"sow_id"`
	OriginalName string `gorm:"size:255;not null" json:"original_name"`
	StoredName   string `gorm:"size:255;not null" json:"stored_name"`
	MimeType     string `gorm:"size:100" json:"mime_type,omitempty"`
	Size         int64  `json:"size"`
}

// TableName keeps the table name aligned with the sow_id column prefix
func (SOWDocument) TableName() string {
	return "sow_documents"
}
