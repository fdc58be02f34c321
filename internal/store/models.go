package store

import (
	"sort"
	"time"

	"github.com/muurk/bankconnect/internal/node"
)

// CurrentVersion is the schema version written by this build
const CurrentVersion = 1

// ManagedNode is a bank or validator the user has connected to
type ManagedNode struct {
	Nickname              string       `yaml:"nickname,omitempty"`
	Address               node.Address `yaml:"address"`
	NodeIdentifier        string       `yaml:"node_identifier,omitempty"`
	AccountNumber         string       `yaml:"account_number,omitempty"`
	Version               string       `yaml:"version,omitempty"`
	DefaultTransactionFee int          `yaml:"default_transaction_fee,omitempty"`
	LastConnected         time.Time    `yaml:"last_connected,omitempty"`
}

// DisplayName returns the nickname, or the node's base URL when there is none
func (n *ManagedNode) DisplayName() string {
	if n.Nickname != "" {
		return n.Nickname
	}
	return n.Address.BaseURL()
}

// Preferences are user-level defaults for the connect form and client
type Preferences struct {
	DefaultProtocol string `yaml:"default_protocol,omitempty"`
	// ConnectTimeout in seconds; 0 waits for the node indefinitely
	ConnectTimeout int `yaml:"connect_timeout"`
}

// Data is the on-disk document
type Data struct {
	Version     int                     `yaml:"version"`
	ActiveBank  string                  `yaml:"active_bank,omitempty"`
	Banks       map[string]*ManagedNode `yaml:"banks,omitempty"`
	Validators  map[string]*ManagedNode `yaml:"validators,omitempty"`
	Preferences *Preferences            `yaml:"preferences,omitempty"`
}

// NewData creates an empty document with default preferences
func NewData() *Data {
	return &Data{
		Version:    CurrentVersion,
		Banks:      make(map[string]*ManagedNode),
		Validators: make(map[string]*ManagedNode),
		Preferences: &Preferences{
			DefaultProtocol: string(node.ProtocolHTTP),
		},
	}
}

// normalize fills in maps and preferences missing from an older or hand-edited file
func (d *Data) normalize() {
	if d.Banks == nil {
		d.Banks = make(map[string]*ManagedNode)
	}
	if d.Validators == nil {
		d.Validators = make(map[string]*ManagedNode)
	}
	if d.Preferences == nil {
		d.Preferences = NewData().Preferences
	}
}

// clone deep-copies the document
func (d *Data) clone() *Data {
	out := &Data{
		Version:    d.Version,
		ActiveBank: d.ActiveBank,
		Banks:      cloneNodes(d.Banks),
		Validators: cloneNodes(d.Validators),
	}
	if d.Preferences != nil {
		prefs := *d.Preferences
		out.Preferences = &prefs
	}
	return out
}

func cloneNodes(m map[string]*ManagedNode) map[string]*ManagedNode {
	out := make(map[string]*ManagedNode, len(m))
	for k, n := range m {
		copied := *n
		if n.Address.Port != nil {
			port := *n.Address.Port
			copied.Address.Port = &port
		}
		out[k] = &copied
	}
	return out
}

// sortedKeys returns map keys in a stable order for listings
func sortedKeys(m map[string]*ManagedNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
