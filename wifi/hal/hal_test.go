package hal

import "testing"

func TestInterfaceString(t *testing.T) {
	tests := []struct {
		iface Interface
		want  string
	}{
		{IfSta, "sta"},
		{IfAp, "ap"},
		{Interface(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.iface.String(); got != tt.want {
			t.Errorf("Interface(%d).String() = %q, want %q", tt.iface, got, tt.want)
		}
	}
	if NumInterfaces != 2 {
		t.Errorf("NumInterfaces = %d, want 2", NumInterfaces)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeNull, "null"},
		{ModeSta, "sta"},
		{ModeAp, "ap"},
		{ModeApSta, "apsta"},
		{Mode(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestMACString(t *testing.T) {
	m := MAC{0x02, 0x00, 0xAB, 0x01, 0x02, 0xFF}
	if got, want := m.String(), "02:00:ab:01:02:ff"; got != want {
		t.Errorf("MAC.String() = %q, want %q", got, want)
	}
	if !(MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}).IsBroadcast() {
		t.Error("IsBroadcast() = false for ff:ff:ff:ff:ff:ff")
	}
	if m.IsBroadcast() {
		t.Errorf("IsBroadcast() = true for %v", m)
	}
}
