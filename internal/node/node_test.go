package node

import (
	"encoding/json"
	"testing"
)

func TestFormatPathFromNode(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{
			name: "explicit port",
			addr: Address{IPAddress: "10.0.0.5", Port: IntPtr(8080), Protocol: ProtocolHTTPS},
			want: "https/10.0.0.5/8080",
		},
		{
			name: "http default port",
			addr: Address{IPAddress: "143.110.137.54", Protocol: ProtocolHTTP},
			want: "http/143.110.137.54/80",
		},
		{
			name: "https default port",
			addr: Address{IPAddress: "10.0.0.5", Protocol: ProtocolHTTPS},
			want: "https/10.0.0.5/443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPathFromNode(tt.addr); got != tt.want {
				t.Errorf("FormatPathFromNode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatPathFromBankConfig(t *testing.T) {
	cfg := &BankConfig{IPAddress: "20.0.0.1", Port: IntPtr(80), Protocol: ProtocolHTTP}
	if got := FormatPathFromNode(cfg); got != "http/20.0.0.1/80" {
		t.Errorf("FormatPathFromNode(bank) = %q", got)
	}
}

func TestParsePath_RoundTrip(t *testing.T) {
	addr := Address{IPAddress: "10.0.0.5", Port: IntPtr(8080), Protocol: ProtocolHTTPS}

	parsed, err := ParsePath(FormatPathFromNode(addr))
	if err != nil {
		t.Fatalf("ParsePath() error = %v", err)
	}
	if !parsed.Equal(addr) {
		t.Errorf("ParsePath() = %+v, want %+v", parsed, addr)
	}
}

func TestParsePath_Invalid(t *testing.T) {
	for _, path := range []string{"", "http/10.0.0.5", "ftp/10.0.0.5/80", "http//80", "http/10.0.0.5/abc"} {
		if _, err := ParsePath(path); err == nil {
			t.Errorf("ParsePath(%q) should fail", path)
		}
	}
}

func TestAddress_BaseURL(t *testing.T) {
	tests := []struct {
		addr Address
		want string
	}{
		{Address{IPAddress: "10.0.0.5", Protocol: ProtocolHTTP}, "http://10.0.0.5"},
		{Address{IPAddress: "10.0.0.5", Port: IntPtr(8080), Protocol: ProtocolHTTPS}, "https://10.0.0.5:8080"},
		{Address{IPAddress: "fe80::1", Protocol: ProtocolHTTP}, "http://[fe80::1]"},
		{Address{IPAddress: "fe80::1", Port: IntPtr(81), Protocol: ProtocolHTTP}, "http://[fe80::1]:81"},
	}

	for _, tt := range tests {
		if got := tt.addr.BaseURL(); got != tt.want {
			t.Errorf("BaseURL() = %q, want %q", got, tt.want)
		}
	}
}

func TestAddress_WebSocketURL(t *testing.T) {
	addr := Address{IPAddress: "10.0.0.5", Port: IntPtr(443), Protocol: ProtocolHTTPS}
	if got := addr.WebSocketURL("ws/crawl_status"); got != "wss://10.0.0.5:443/ws/crawl_status" {
		t.Errorf("WebSocketURL() = %q", got)
	}
}

func TestAddress_JSONNullPort(t *testing.T) {
	data, err := json.Marshal(Address{IPAddress: "10.0.0.5", Protocol: ProtocolHTTP})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"ip_address":"10.0.0.5","port":null,"protocol":"http"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestParseProtocol(t *testing.T) {
	if p, err := ParseProtocol("HTTPS"); err != nil || p != ProtocolHTTPS {
		t.Errorf("ParseProtocol(HTTPS) = %v, %v", p, err)
	}
	if _, err := ParseProtocol("ftp"); err == nil {
		t.Error("ParseProtocol(ftp) should fail")
	}
}

func TestBankConfig_Validate(t *testing.T) {
	valid := &BankConfig{IPAddress: "10.0.0.5", Protocol: ProtocolHTTP, NodeType: NodeTypeBank}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	validator := &BankConfig{IPAddress: "10.0.0.5", Protocol: ProtocolHTTP, NodeType: NodeTypePrimaryValidator}
	if err := validator.Validate(); err == nil {
		t.Error("Validate() should reject validator node type")
	}

	noIP := &BankConfig{Protocol: ProtocolHTTP, NodeType: NodeTypeBank}
	if err := noIP.Validate(); err == nil {
		t.Error("Validate() should reject missing ip_address")
	}
}
