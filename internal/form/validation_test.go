package form

import (
	"testing"

	"github.com/muurk/bankconnect/internal/node"
)

func TestValidate_Defaults(t *testing.T) {
	errs := Validate(DefaultValues())
	if !errs.Empty() {
		t.Errorf("Validate(DefaultValues()) = %v, want no errors", errs)
	}
}

func TestValidate_IPAddress(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty is required", "", MsgRequired},
		{"whitespace is required", "   ", MsgRequired},
		{"ipv4", "10.0.0.5", ""},
		{"ipv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334", ""},
		{"ipv6 compressed", "fe80::1", ""},
		{"ipv6 loopback", "::1", ""},
		{"hostname", "bank.example.com", MsgIPAddressFormat},
		{"partial ipv4", "10.0.5", MsgIPAddressFormat},
		{"embedded ipv4", "x10.0.0.5y", MsgIPAddressFormat},
		{"letters", "abc", MsgIPAddressFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := DefaultValues()
			values.IPAddress = tt.value

			errs := Validate(values)
			if got := errs[FieldIPAddress]; got != tt.want {
				t.Errorf("ipAddress error = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate_Port(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"", false},
		{"8080", false},
		{"0", false},
		{"-1", false},
		{"80a", true},
		{"80.5", true},
		{"port", true},
	}

	for _, tt := range tests {
		values := DefaultValues()
		values.Port = tt.value

		_, hasErr := Validate(values)[FieldPort]
		if hasErr != tt.wantErr {
			t.Errorf("Validate(port=%q) error present = %v, want %v", tt.value, hasErr, tt.wantErr)
		}
	}
}

func TestValidate_Protocol(t *testing.T) {
	values := DefaultValues()

	values.Protocol = ""
	if Validate(values)[FieldProtocol] == "" {
		t.Error("empty protocol should fail")
	}

	values.Protocol = "ftp"
	if got := Validate(values)[FieldProtocol]; got != MsgProtocolOneOf {
		t.Errorf("protocol error = %q, want %q", got, MsgProtocolOneOf)
	}

	values.Protocol = "https"
	if got := Validate(values)[FieldProtocol]; got != "" {
		t.Errorf("https should be valid, got %q", got)
	}
}

func TestValidate_NicknameUnconstrained(t *testing.T) {
	values := DefaultValues()
	values.Nickname = "  any thing at all ✓ "
	if _, ok := Validate(values)[FieldNickname]; ok {
		t.Error("nickname should never fail validation")
	}
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{FieldPort: MsgPortInteger, FieldIPAddress: MsgRequired}
	want := "IP Address: This field is required; Port: port must be an integer"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}

func TestBuildRequest(t *testing.T) {
	values := Values{Protocol: "https", IPAddress: "10.0.0.5", Port: "8080", Nickname: "node1"}

	addr, nickname, err := BuildRequest(values)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}

	if addr.IPAddress != "10.0.0.5" {
		t.Errorf("IPAddress = %q", addr.IPAddress)
	}
	if addr.Port == nil || *addr.Port != 8080 {
		t.Errorf("Port = %v, want 8080", addr.Port)
	}
	if addr.Protocol != node.ProtocolHTTPS {
		t.Errorf("Protocol = %q", addr.Protocol)
	}
	if nickname != "node1" {
		t.Errorf("nickname = %q, want node1", nickname)
	}
}

func TestBuildRequest_EmptyPortIsNil(t *testing.T) {
	addr, _, err := BuildRequest(Values{Protocol: "http", IPAddress: "10.0.0.5"})
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if addr.Port != nil {
		t.Errorf("Port = %v, want nil", *addr.Port)
	}
}

func TestBuildRequest_InvalidInput(t *testing.T) {
	if _, _, err := BuildRequest(Values{Protocol: "ftp", IPAddress: "10.0.0.5"}); err == nil {
		t.Error("BuildRequest() should reject unknown protocol")
	}
	if _, _, err := BuildRequest(Values{Protocol: "http", IPAddress: "10.0.0.5", Port: "x"}); err == nil {
		t.Error("BuildRequest() should reject non-integer port")
	}
}

func TestValuesSetGet(t *testing.T) {
	v := DefaultValues()
	for _, f := range Fields {
		v = v.Set(f, "x-"+string(f))
	}
	for _, f := range Fields {
		if got := v.Get(f); got != "x-"+string(f) {
			t.Errorf("Get(%s) = %q", f, got)
		}
	}
}
