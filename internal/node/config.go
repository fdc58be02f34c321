package node

import "fmt"

// NodeType distinguishes banks from validators in /config documents
type NodeType string

const (
	NodeTypeBank                  NodeType = "BANK"
	NodeTypePrimaryValidator      NodeType = "PRIMARY_VALIDATOR"
	NodeTypeConfirmationValidator NodeType = "CONFIRMATION_VALIDATOR"
)

// ValidatorConfig is the document served by a validator at GET /config,
// and embedded in a bank's config as its primary validator.
type ValidatorConfig struct {
	AccountNumber         string   `json:"account_number"`
	IPAddress             string   `json:"ip_address"`
	NodeIdentifier        string   `json:"node_identifier"`
	Port                  *int     `json:"port"`
	Protocol              Protocol `json:"protocol"`
	Version               string   `json:"version"`
	DefaultTransactionFee int      `json:"default_transaction_fee"`
	RootAccountFile       string   `json:"root_account_file,omitempty"`
	RootAccountFileHash   string   `json:"root_account_file_hash,omitempty"`
	SeedBlockIdentifier   string   `json:"seed_block_identifier,omitempty"`
	DailyConfirmationRate *int     `json:"daily_confirmation_rate,omitempty"`
	Trust                 string   `json:"trust,omitempty"`
	NodeType              NodeType `json:"node_type"`
}

// NodeAddress implements Pather
func (v *ValidatorConfig) NodeAddress() Address {
	return Address{IPAddress: v.IPAddress, Port: v.Port, Protocol: v.Protocol}
}

// BankConfig is the document served by a bank at GET /config.
// Its presence in application state means a bank is connected.
type BankConfig struct {
	AccountNumber         string           `json:"account_number"`
	IPAddress             string           `json:"ip_address"`
	NodeIdentifier        string           `json:"node_identifier"`
	Port                  *int             `json:"port"`
	Protocol              Protocol         `json:"protocol"`
	Version               string           `json:"version"`
	DefaultTransactionFee int              `json:"default_transaction_fee"`
	NodeType              NodeType         `json:"node_type"`
	PrimaryValidator      *ValidatorConfig `json:"primary_validator"`
}

// NodeAddress implements Pather
func (b *BankConfig) NodeAddress() Address {
	return Address{IPAddress: b.IPAddress, Port: b.Port, Protocol: b.Protocol}
}

// Validate checks that the document describes a reachable bank
func (b *BankConfig) Validate() error {
	if b.NodeType != NodeTypeBank {
		return fmt.Errorf("node type is %q, expected %q", b.NodeType, NodeTypeBank)
	}
	if b.IPAddress == "" {
		return fmt.Errorf("bank config has no ip_address")
	}
	if !b.Protocol.Valid() {
		return fmt.Errorf("bank config has unsupported protocol %q", b.Protocol)
	}
	return nil
}
