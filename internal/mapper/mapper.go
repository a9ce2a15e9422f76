package mapper

import (
	"encoding/json"

	"github.com/presaleshub/crm-api/internal/domain"
)

// ToOpportunityDTO deserializes the stored next-steps sequence onto the
// opportunity. A corrupt column yields an empty sequence rather than an error.
func ToOpportunityDTO(opportunity *domain.Opportunity) domain.OpportunityDTO {
	steps := []domain.NextStep{}
	if opportunity.NextSteps != "" {
		if err := json.Unmarshal([]byte(opportunity.NextSteps), &steps); err != nil {
			steps = []domain.NextStep{}
		}
	}
	return domain.OpportunityDTO{
		Opportunity: *opportunity,
		NextSteps:   steps,
	}
}

// ToRFPDTO groups the RFP's documents by category
func ToRFPDTO(rfp *domain.RFP) domain.RFPDTO {
	grouped := make(map[domain.DocumentCategory][]domain.RFPDocument)
	for _, document := range rfp.Documents {
		grouped[document.Category] = append(grouped[document.Category], document)
	}
	return domain.RFPDTO{
		RFP:                 *rfp,
		DocumentsByCategory: grouped,
	}
}

// ToUserDTO strips the credential hash and flattens role and region
// assignments to their names
func ToUserDTO(user *domain.User) domain.UserDTO {
	roles := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		roles[i] = role.Name
	}
	regions := make([]string, len(user.Regions))
	for i, region := range user.Regions {
		regions[i] = region.Name
	}
	return domain.UserDTO{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Status:    user.Status,
		Roles:     roles,
		Regions:   regions,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
