package command

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type exitError struct{ code int }

func (e exitError) Error() string { return "exit status" }
func (e exitError) ExitCode() int { return e.code }

func TestAdminArgs(t *testing.T) {
	got := strings.Join(AdminArgs("Wi-Fi 2", true), " ")
	want := `netsh interface set interface name="Wi-Fi 2" admin=enable`
	if got != want {
		t.Errorf("AdminArgs() = %s, want %s", got, want)
	}
	if got := strings.Join(AdminArgs("Ethernet", false), " "); !strings.HasSuffix(got, "admin=disable") {
		t.Errorf("AdminArgs(disable) = %s", got)
	}
}

func TestConnectionArgs(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		connect bool
		want    string
	}{
		{"Wi-Fi", "HomeNet", true, `netsh wlan connect name="HomeNet" interface="Wi-Fi"`},
		{"Wi-Fi", "", false, `netsh wlan disconnect interface="Wi-Fi"`},
	}
	for _, tt := range tests {
		if got := strings.Join(ConnectionArgs(tt.name, tt.profile, tt.connect), " "); got != tt.want {
			t.Errorf("ConnectionArgs() = %s, want %s", got, tt.want)
		}
	}
}

func TestNetshExecutorErrors(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		err      error
		wantKind Kind
		wantCode int
	}{
		{"elevation declined", "", exitError{1223}, KindElevationDenied, 1223},
		{"generic failure", "The parameter is incorrect.", exitError{1}, KindNonZeroExit, 1},
		{"unknown interface", "The interface name is not registered with the router.", exitError{1}, KindNotFound, 1},
		{"not startable", "", errors.New(`exec: "netsh": executable file not found in $PATH`), KindProcessFailedToStart, 0},
		{"killed", "", exitError{-1}, KindFailed, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewNetshExecutor(func(context.Context, []string) ([]byte, error) {
				return []byte(tt.out), tt.err
			})
			err := x.SetAdminState(context.Background(), "Ethernet", true)

			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if ce.Kind != tt.wantKind || ce.Code != tt.wantCode {
				t.Errorf("Kind/Code = %s/%d, want %s/%d", ce.Kind, ce.Code, tt.wantKind, tt.wantCode)
			}
			if ce.Op != OpEnable || ce.Interface != "Ethernet" {
				t.Errorf("Op/Interface = %s/%s", ce.Op, ce.Interface)
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("KindOf() = %s", KindOf(err))
			}
		})
	}
}

func TestNetshExecutorSuccess(t *testing.T) {
	var ran []string
	x := NewNetshExecutor(func(_ context.Context, argv []string) ([]byte, error) {
		ran = argv
		return []byte("Ok."), nil
	})
	if err := x.SetConnectionState(context.Background(), "Wi-Fi", "", false); err != nil {
		t.Fatalf("SetConnectionState() error = %v", err)
	}
	if ran[1] != "wlan" || ran[2] != "disconnect" {
		t.Errorf("ran %v", ran)
	}
}

func TestNetshExecutorConnectNeedsProfile(t *testing.T) {
	x := NewNetshExecutor(func(context.Context, []string) ([]byte, error) {
		t.Fatal("command should not run")
		return nil, nil
	})
	if err := x.SetConnectionState(context.Background(), "Wi-Fi", " ", true); !errors.Is(err, ErrProfileRequired) {
		t.Errorf("error = %v, want ErrProfileRequired", err)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindNonZeroExit, Op: OpDisable, Interface: "Wi-Fi", Code: 1, Err: errors.New("boom")}
	want := `disable "Wi-Fi": non_zero_exit (code 1): boom`
	if err.Error() != want {
		t.Errorf("Error() = %s, want %s", err.Error(), want)
	}
	if KindOf(errors.New("plain")) != KindFailed {
		t.Error("KindOf(plain error) != KindFailed")
	}
}
