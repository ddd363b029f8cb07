package usecases

import "chatdagang/internal/entities"

// BlockReason names the first gate that failed, or none.
type BlockReason string

const (
	BlockNone                BlockReason = "none"
	BlockContractNotApproved BlockReason = "contract_not_approved"
	BlockIntegrationDisabled BlockReason = "integration_disabled"
	BlockChatbotDisabled     BlockReason = "chatbot_disabled"
)

type GateDecision struct {
	Allowed bool        `json:"allowed"`
	Reason  BlockReason `json:"reason"`
}

// Gate is one precondition on the automated reply path. It returns BlockNone
// when satisfied. Gates must be pure reads of the tenant context.
type Gate func(tc *entities.TenantContext) BlockReason

// ContractGate is the platform-level kill switch and always runs first.
func ContractGate(tc *entities.TenantContext) BlockReason {
	if tc.Business.ContractStatus != entities.ContractApproved {
		return BlockContractNotApproved
	}
	return BlockNone
}

func IntegrationGate(tc *entities.TenantContext) BlockReason {
	if !tc.Integration.Enabled {
		return BlockIntegrationDisabled
	}
	return BlockNone
}

func ChatbotGate(tc *entities.TenantContext) BlockReason {
	if !tc.ChatbotEnabled() {
		return BlockChatbotDisabled
	}
	return BlockNone
}

// GateChain evaluates gates in fixed priority order and stops at the first
// failure; later gates are never consulted once one fails, which is what
// keeps the unavailable-notice category unambiguous.
type GateChain struct {
	gates []Gate
}

func NewGateChain() *GateChain {
	return &GateChain{gates: []Gate{ContractGate, IntegrationGate, ChatbotGate}}
}

// NewGateChainWith builds a chain from explicit gates, in the given order.
func NewGateChainWith(gates ...Gate) *GateChain {
	return &GateChain{gates: gates}
}

func (c *GateChain) Evaluate(tc *entities.TenantContext) GateDecision {
	for _, gate := range c.gates {
		if reason := gate(tc); reason != BlockNone {
			return GateDecision{Allowed: false, Reason: reason}
		}
	}
	return GateDecision{Allowed: true, Reason: BlockNone}
}
