package inventory

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/HerbHall/netswitch/pkg/models"
)

const sampleTable = `
Admin State    State          Type             Interface Name
-------------------------------------------------------------------------
Enabled        Connected      Dedicated        Ethernet
Disabled       Disconnected   Dedicated        Wi-Fi
Enabled        Disconnected   Dedicated        Bluetooth Network Connection
Enabled        Connected      Loopback         Loopback Pseudo-Interface 1
`

func TestParseTable(t *testing.T) {
	got, err := ParseTable(sampleTable)
	if err != nil {
		t.Fatalf("ParseTable() error = %v", err)
	}

	want := []models.InterfaceRecord{
		{Name: "Ethernet", AdminState: models.AdminEnabled, OperState: models.OperConnected, Type: "Dedicated"},
		{Name: "Wi-Fi", AdminState: models.AdminDisabled, OperState: models.OperDisconnected, Type: "Dedicated"},
		{Name: "Bluetooth Network Connection", AdminState: models.AdminEnabled, OperState: models.OperDisconnected, Type: "Dedicated"},
		{Name: "Loopback Pseudo-Interface 1", AdminState: models.AdminEnabled, OperState: models.OperConnected, Type: "Loopback"},
	}
	if len(got) != len(want) {
		t.Fatalf("ParseTable() returned %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseTableSkipsMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"header only", "Admin State    State          Type             Interface Name\n", 0},
		{"separator only", "-----------------\n", 0},
		{"too few columns", "Enabled Connected Dedicated\n", 0},
		{"unknown admin", "Maybe Connected Dedicated Ethernet\n", 0},
		{"lowercase admin", "enabled connected dedicated eth0\n", 1},
		{"crlf", "Enabled        Connected      Dedicated        Ethernet\r\n", 1},
		{"mixed", "garbage\nEnabled  Connected  Dedicated  Ethernet\n\n  \nDisabled x\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := ParseTable(tt.text); err != nil || len(got) != tt.want {
				t.Errorf("ParseTable() = %+v, want %d records", got, tt.want)
			}
		})
	}
}

func TestParseTablePreservesInnerSpacing(t *testing.T) {
	got, _ := ParseTable("Enabled  Connected  Dedicated  vEthernet (Default  Switch)  \n")
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Name != "vEthernet (Default  Switch)" {
		t.Errorf("Name = %q", got[0].Name)
	}
}

func TestParseTableCollapsesDuplicateNames(t *testing.T) {
	got, _ := ParseTable("Enabled Connected Dedicated Ethernet\nDisabled Disconnected Dedicated ETHERNET\n")
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].AdminState != models.AdminDisabled {
		t.Errorf("AdminState = %s, want the later row to win", got[0].AdminState)
	}
}

func TestParseTableOverlongLine(t *testing.T) {
	text := "Enabled Connected Dedicated Ethernet\n" +
		"Enabled Connected Dedicated " + strings.Repeat("x", bufio.MaxScanTokenSize) + "\n"
	got, err := ParseTable(text)
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("ParseTable() error = %v, want bufio.ErrTooLong", err)
	}
	if got != nil {
		t.Errorf("ParseTable() = %+v, want no partial inventory", got)
	}
}
