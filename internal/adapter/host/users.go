package host

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/port"
)

// systemUsers never count as logged-in people.
var systemUsers = map[string]bool{
	"root":    true,
	"gdm":     true,
	"lightdm": true,
	"sddm":    true,
}

// Sessions lists the login sessions reported by `who -u`. A session with an
// idle column other than "." or "old" is still active.
func (h *Host) Sessions(ctx context.Context) ([]port.UserSession, error) {
	out, err := h.run(ctx, "who", "-u")
	if err != nil {
		return nil, err
	}
	return parseWho(out), nil
}

func parseWho(out []byte) []port.UserSession {
	sessions := []port.UserSession{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		s := port.UserSession{
			User:     fields[0],
			Terminal: fields[1],
			Active:   true,
			System:   systemUsers[fields[0]],
		}
		if open := strings.LastIndex(line, "("); open >= 0 {
			if end := strings.LastIndex(line, ")"); end > open {
				s.Host = line[open+1 : end]
			}
		}
		// who -u: user tty date time idle pid (host)
		if len(fields) >= 6 && fields[4] == "old" {
			s.Active = false
		}
		sessions = append(sessions, s)
	}
	return sessions
}
