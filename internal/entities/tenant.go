package entities

// ContractStatus is the platform-level approval state of a business.
type ContractStatus string

const (
	ContractApproved  ContractStatus = "approved"
	ContractPending   ContractStatus = "pending"
	ContractSuspended ContractStatus = "suspended"
)

type Business struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	ContractStatus ContractStatus `json:"contract_status"`
	ChatbotEnabled bool           `json:"chatbot_enabled"`
}

type Branch struct {
	ID             int64  `json:"id"`
	BusinessID     int64  `json:"business_id"`
	Name           string `json:"name"`
	ChatbotEnabled bool   `json:"chatbot_enabled"`
}

// Integration is one registered channel binding for a business or branch.
// Provider selects the sending API (WhatsApp may be served by Meta or Twilio).
// Exactly one of OwnerBusinessID / OwnerBranchID identifies the owner.
type Integration struct {
	ID                int64   `json:"id"`
	Platform          Channel `json:"platform"`
	ExternalID        string  `json:"external_id"`
	Provider          Channel `json:"provider"`
	Enabled           bool    `json:"enabled"`
	OwnerBusinessID   int64   `json:"owner_business_id,omitempty"`
	OwnerBranchID     *int64  `json:"owner_branch_id,omitempty"`
	SealedCredentials string  `json:"-"`
}

// Credentials is the decrypted material needed to call a provider API.
// AccountID holds the Meta phone number id, Twilio account SID, or Facebook
// page id depending on provider; From is the Twilio sending number.
type Credentials struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id,omitempty"`
	From      string `json:"from,omitempty"`
}

// TenantContext is the resolved reply owner for one inbound message. Derived
// per message, never persisted. Credentials is nil when the stored ciphertext
// could not be opened; sends then fail terminally instead of retrying.
type TenantContext struct {
	Business    Business
	Branch      *Branch
	Integration Integration
	Credentials *Credentials
}

// ChatbotEnabled reports the automated-reply flag of the reply owner:
// the branch when one is attached, otherwise the business.
func (t TenantContext) ChatbotEnabled() bool {
	if t.Branch != nil {
		return t.Branch.ChatbotEnabled
	}
	return t.Business.ChatbotEnabled
}
