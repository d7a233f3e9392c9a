package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback payloads arrive as opaque colon-delimited strings bound to inline
// buttons, e.g. "confirmInput:12" or "sendToGroup:-100123:12". decodeAction
// validates arity and parameter types at the boundary and returns a tagged
// variant so the handlers never touch the raw string.

type action interface{ isAction() }

type confirmAction struct{ ListID int64 }

type routeAction struct {
	GroupID int64
	ListID  int64
}

type payAction struct {
	ListID int64
	Paid   bool
}

type clearAction struct{}

func (confirmAction) isAction() {}
func (routeAction) isAction()   {}
func (payAction) isAction()     {}
func (clearAction) isAction()   {}

func decodeAction(data string) (action, error) {
	parts := strings.Split(data, ":")

	switch parts[0] {
	case "confirmInput":
		if len(parts) != 2 {
			return nil, fmt.Errorf("confirmInput: want 1 parameter, got %d", len(parts)-1)
		}
		id, err := parseID(parts[1])
		if err != nil {
			return nil, fmt.Errorf("confirmInput: %w", err)
		}
		return confirmAction{ListID: id}, nil

	case "sendToGroup":
		if len(parts) != 3 {
			return nil, fmt.Errorf("sendToGroup: want 2 parameters, got %d", len(parts)-1)
		}
		groupID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sendToGroup: bad group id %q", parts[1])
		}
		listID, err := parseID(parts[2])
		if err != nil {
			return nil, fmt.Errorf("sendToGroup: %w", err)
		}
		return routeAction{GroupID: groupID, ListID: listID}, nil

	case "pay", "unpay":
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s: want 1 parameter, got %d", parts[0], len(parts)-1)
		}
		id, err := parseID(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", parts[0], err)
		}
		return payAction{ListID: id, Paid: parts[0] == "pay"}, nil

	case "confirmClear":
		if len(parts) != 1 {
			return nil, fmt.Errorf("confirmClear: want no parameters, got %d", len(parts)-1)
		}
		return clearAction{}, nil
	}

	return nil, fmt.Errorf("unknown action %q", parts[0])
}

// parseID parses a ledger id, which is always positive.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q", s)
	}
	return id, nil
}
