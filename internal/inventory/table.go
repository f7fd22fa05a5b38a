package inventory

import (
	"bufio"
	"fmt"
	"strings"
	"unicode"

	"github.com/HerbHall/netswitch/pkg/models"
)

// ParseTable parses the whitespace-aligned interface table
//
//	Admin State    State          Type             Interface Name
//	-------------------------------------------------------------------------
//	Enabled        Connected      Dedicated        Ethernet
//	Disabled       Disconnected   Dedicated        Wi-Fi 2
//
// The interface name is everything after the third column and may contain
// spaces. Header, separator, blank and malformed lines are skipped, as are
// rows whose admin column is neither Enabled nor Disabled. A read error,
// such as a line longer than the scanner buffer, fails the whole parse.
func ParseTable(text string) ([]models.InterfaceRecord, error) {
	var out []models.InterfaceRecord
	seen := make(map[string]int)

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		rec, ok := parseRow(sc.Text())
		if !ok {
			continue
		}
		if i, dup := seen[rec.Key()]; dup {
			out[i] = rec
			continue
		}
		seen[rec.Key()] = len(out)
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse interface table: %w", err)
	}
	return out, nil
}

func parseRow(line string) (models.InterfaceRecord, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.Trim(line, "-= ") == "" {
		return models.InterfaceRecord{}, false
	}

	var cols [3]string
	rest := line
	for i := range cols {
		cols[i], rest = nextField(rest)
		if cols[i] == "" {
			return models.InterfaceRecord{}, false
		}
	}
	name := strings.TrimSpace(rest)
	if name == "" {
		return models.InterfaceRecord{}, false
	}

	admin := models.ParseAdminState(cols[0])
	if admin == models.AdminUnknown {
		return models.InterfaceRecord{}, false
	}
	return models.InterfaceRecord{
		Name:       name,
		AdminState: admin,
		OperState:  models.OperState(cols[1]),
		Type:       cols[2],
	}, true
}

// nextField splits the first whitespace-delimited field off s.
func nextField(s string) (field, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}
