package appstate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/muurk/bankconnect/internal/bankclient"
	"github.com/muurk/bankconnect/internal/node"
	"github.com/muurk/bankconnect/internal/store"
)

// fakeClient returns canned responses
type fakeClient struct {
	bank      *node.BankConfig
	bankErr   error
	validator *node.ValidatorConfig
	valErr    error
	panicMsg  string
	wait      bool
}

func (f *fakeClient) GetBankConfig(ctx context.Context) (*node.BankConfig, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.wait {
		<-ctx.Done()
		return nil, bankclient.ClassifyNetworkError(ctx.Err(), "")
	}
	return f.bank, f.bankErr
}

func (f *fakeClient) GetValidatorConfig(ctx context.Context) (*node.ValidatorConfig, error) {
	return f.validator, f.valErr
}

func factory(clients map[string]*fakeClient) ClientFactory {
	return func(addr node.Address) NodeClient {
		if c, ok := clients[addr.BaseURL()]; ok {
			return c
		}
		return &fakeClient{bankErr: &bankclient.BankError{Type: bankclient.ErrTypeConnectionRefused}}
	}
}

func sampleBank() *node.BankConfig {
	return &node.BankConfig{
		IPAddress:      "10.0.0.5",
		Port:           node.IntPtr(8080),
		Protocol:       node.ProtocolHTTPS,
		NodeIdentifier: "bank-id",
		NodeType:       node.NodeTypeBank,
		PrimaryValidator: &node.ValidatorConfig{
			IPAddress: "20.0.0.1",
			Protocol:  node.ProtocolHTTP,
			NodeType:  node.NodeTypePrimaryValidator,
		},
	}
}

func newTestConnector(t *testing.T, clients map[string]*fakeClient) *Connector {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.yaml"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	c := NewConnector(New(), st)
	c.NewClient = factory(clients)
	return c
}

var bankAddr = node.Address{IPAddress: "10.0.0.5", Port: node.IntPtr(8080), Protocol: node.ProtocolHTTPS}

func TestConnectAndStore_Success(t *testing.T) {
	bank := sampleBank()
	pv := &node.ValidatorConfig{IPAddress: "20.0.0.1", Protocol: node.ProtocolHTTP, NodeIdentifier: "fresh", NodeType: node.NodeTypePrimaryValidator}
	c := newTestConnector(t, map[string]*fakeClient{
		"https://10.0.0.5:8080": {bank: bank},
		"http://20.0.0.1":       {validator: pv},
	})

	var notified *node.BankConfig
	c.State.Subscribe(func(cfg *node.BankConfig) { notified = cfg })

	res, err := c.ConnectAndStore(context.Background(), bankAddr, "node1")
	if err != nil {
		t.Fatalf("ConnectAndStore() error = %v", err)
	}
	if res.Error != "" {
		t.Fatalf("Result.Error = %q", res.Error)
	}
	if res.Key != "https/10.0.0.5/8080" {
		t.Errorf("Key = %q", res.Key)
	}

	if notified != bank || c.State.ActiveBankConfig() != bank {
		t.Error("state should publish the bank")
	}
	if c.State.ActiveValidatorConfig() != pv {
		t.Error("state should carry the freshly fetched validator")
	}

	key, stored := c.Store.ActiveBank()
	if key != res.Key || stored.Nickname != "node1" {
		t.Errorf("store active = %q %+v", key, stored)
	}
	if len(c.Store.Validators()) != 1 || c.Store.Validators()[0].Node.NodeIdentifier != "fresh" {
		t.Errorf("validators = %+v", c.Store.Validators())
	}
	if _, err := os.Stat(c.Store.Path()); err != nil {
		t.Errorf("store file should exist: %v", err)
	}
}

func TestConnectAndStore_ValidatorFallback(t *testing.T) {
	bank := sampleBank()
	c := newTestConnector(t, map[string]*fakeClient{
		"https://10.0.0.5:8080": {bank: bank},
		"http://20.0.0.1":       {valErr: errors.New("down")},
	})

	res, err := c.ConnectAndStore(context.Background(), bankAddr, "")
	if err != nil || res.Error != "" {
		t.Fatalf("ConnectAndStore() = %+v, %v", res, err)
	}
	if c.State.ActiveValidatorConfig() != bank.PrimaryValidator {
		t.Error("should fall back to the embedded validator config")
	}
}

func TestConnectAndStore_StructuredFailure(t *testing.T) {
	c := newTestConnector(t, nil)

	res, err := c.ConnectAndStore(context.Background(), bankAddr, "node1")
	if err != nil {
		t.Fatalf("ConnectAndStore() error = %v, want structured result", err)
	}
	if res.Error != "Connection refused" {
		t.Errorf("Result.Error = %q, want Connection refused", res.Error)
	}
	if c.State.ActiveBankConfig() != nil {
		t.Error("failed connect must not publish a bank")
	}
	if len(c.Store.Banks()) != 0 {
		t.Error("failed connect must not store a bank")
	}
}

func TestConnectAndStore_UnstructuredFailure(t *testing.T) {
	c := newTestConnector(t, map[string]*fakeClient{
		"https://10.0.0.5:8080": {bankErr: errors.New("unexpected")},
	})

	_, err := c.ConnectAndStore(context.Background(), bankAddr, "")
	if err == nil {
		t.Fatal("plain errors should be returned as errors")
	}
}

func TestConnectAndStore_Panic(t *testing.T) {
	c := newTestConnector(t, map[string]*fakeClient{
		"https://10.0.0.5:8080": {panicMsg: "boom"},
	})

	_, err := c.ConnectAndStore(context.Background(), bankAddr, "")
	if err == nil {
		t.Fatal("panic should surface as an error")
	}
}

func TestConnectAndStore_SaveFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub")
	st, err := store.Open(filepath.Join(dir, "store.yaml"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}

	// A plain file where the store directory should be makes Save fail
	if err := os.WriteFile(dir, nil, 0600); err != nil {
		t.Fatal(err)
	}

	c := NewConnector(New(), st)
	c.NewClient = factory(map[string]*fakeClient{"https://10.0.0.5:8080": {bank: sampleBank()}})

	_, err = c.ConnectAndStore(context.Background(), bankAddr, "")
	if err == nil {
		t.Fatal("store write failure should be an unstructured error")
	}
	if c.State.ActiveBankConfig() != nil {
		t.Error("bank must not be published when persisting fails")
	}
	if banks := st.Banks(); len(banks) != 0 {
		t.Errorf("unsaved bank left in the store: %v", banks)
	}
	if validators := st.Validators(); len(validators) != 0 {
		t.Errorf("unsaved validator left in the store: %v", validators)
	}
	if key, _ := st.ActiveBank(); key != "" {
		t.Errorf("ActiveBank() = %q, want none", key)
	}

	// A later successful save must not write the failed bank
	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reopened, err := store.Open(filepath.Join(dir, "store.yaml"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	if banks := reopened.Banks(); len(banks) != 0 {
		t.Errorf("failed connect reached disk: %v", banks)
	}
}

func TestConnectAndStore_Timeout(t *testing.T) {
	c := newTestConnector(t, map[string]*fakeClient{
		"https://10.0.0.5:8080": {wait: true},
	})
	c.Timeout = 10 * time.Millisecond

	res, err := c.ConnectAndStore(context.Background(), bankAddr, "")
	if err != nil {
		t.Fatalf("ConnectAndStore() error = %v", err)
	}
	if res.Error != "Node not responding (timeout)" {
		t.Errorf("Result.Error = %q", res.Error)
	}
}

func TestResumeAndDisconnect(t *testing.T) {
	bank := sampleBank()
	clients := map[string]*fakeClient{"https://10.0.0.5:8080": {bank: bank}}
	c := newTestConnector(t, clients)

	if _, ok, _ := c.Resume(context.Background()); ok {
		t.Fatal("Resume() with empty store should report nothing to resume")
	}

	if _, err := c.ConnectAndStore(context.Background(), bankAddr, "mine"); err != nil {
		t.Fatal(err)
	}

	// Fresh state, same store: simulates a restart
	restarted := NewConnector(New(), c.Store)
	restarted.NewClient = factory(clients)

	res, ok, err := restarted.Resume(context.Background())
	if !ok || err != nil || res.Error != "" {
		t.Fatalf("Resume() = %+v, %v, %v", res, ok, err)
	}
	if restarted.State.ActiveBankConfig() != bank {
		t.Error("Resume() should publish the bank")
	}
	if _, stored := c.Store.ActiveBank(); stored.Nickname != "mine" {
		t.Error("Resume() must keep the stored nickname")
	}

	if err := restarted.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if restarted.State.ActiveBankConfig() != nil {
		t.Error("Disconnect() should clear state")
	}
	if key, _ := c.Store.ActiveBank(); key != "" {
		t.Error("Disconnect() should clear the stored active bank")
	}
}
